package scenario

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tarsonis125/mocket/internal/registry"
)

// subscription tracks one named subscribe step.
type subscription struct {
	unsubscribe func()
	received    int
}

// Runner executes a scenario against a registry.
type Runner struct {
	reg  *registry.Registry
	subs map[string]*subscription
}

// NewRunner creates a Runner. reg may be shared with other harness parts;
// the runner only touches it through the public registry API.
func NewRunner(reg *registry.Registry) *Runner {
	return &Runner{
		reg:  reg,
		subs: make(map[string]*subscription),
	}
}

// Run executes every step in order. It stops at the first failure and
// returns an error naming the offending step.
func (r *Runner) Run(sc *Scenario) error {
	slog.Info("scenario: running", "name", sc.Name, "steps", len(sc.Steps))
	for i, st := range sc.Steps {
		if err := r.step(st); err != nil {
			return fmt.Errorf("scenario %q step %d (%s): %w", sc.Name, i+1, st.Op, err)
		}
	}
	return nil
}

func (r *Runner) step(st Step) error {
	switch st.Op {
	case "connect":
		return r.reg.Connect()

	case "disconnect":
		r.reg.Disconnect()
		// Named subscriptions died with the registry state.
		r.subs = make(map[string]*subscription)
		return nil

	case "drop":
		r.reg.SimulateDisconnect()
		return nil

	case "reconnect":
		r.reg.SimulateReconnect()
		return nil

	case "subscribe":
		if st.Channel == "" {
			return errors.New("subscribe needs a channel")
		}
		name := st.As
		if name == "" {
			name = st.Channel
		}
		if _, exists := r.subs[name]; exists {
			return fmt.Errorf("subscription %q already exists", name)
		}
		sub := &subscription{}
		sub.unsubscribe = r.reg.Subscribe(st.Channel, func(any) {
			sub.received++
		})
		r.subs[name] = sub
		return nil

	case "unsubscribe":
		sub, ok := r.subs[st.As]
		if !ok {
			return fmt.Errorf("unknown subscription %q", st.As)
		}
		sub.unsubscribe()
		delete(r.subs, st.As)
		return nil

	case "send":
		err := r.reg.Send(st.Payload)
		if st.ExpectError {
			if err == nil {
				return errors.New("expected send to fail, it succeeded")
			}
			return nil
		}
		return err

	case "simulate":
		if st.Channel == "" {
			return errors.New("simulate needs a channel")
		}
		r.reg.SimulateMessage(st.Channel, st.Payload)
		return nil

	case "clear":
		r.reg.ClearMessageQueue()
		return nil

	case "expect-queue":
		if got := len(r.reg.MessageQueue()); got != st.Length {
			return fmt.Errorf("queue length = %d, want %d", got, st.Length)
		}
		return nil

	case "expect-count":
		if got := r.reg.SubscriptionCount(st.Channel); got != st.Count {
			return fmt.Errorf("subscription count on %q = %d, want %d", st.Channel, got, st.Count)
		}
		return nil

	case "expect-received":
		sub, ok := r.subs[st.As]
		if !ok {
			return fmt.Errorf("unknown subscription %q", st.As)
		}
		if sub.received != st.Count {
			return fmt.Errorf("subscription %q received %d messages, want %d", st.As, sub.received, st.Count)
		}
		return nil

	case "expect-connected":
		if got := r.reg.IsConnected(); got != st.Connected {
			return fmt.Errorf("connected = %v, want %v", got, st.Connected)
		}
		return nil

	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
}

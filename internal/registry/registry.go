// Package registry implements the in-memory channel registry that stands in
// for a live publish/subscribe transport in tests.
//
// A Registry tracks three things: which handlers are subscribed to which
// channel, a FIFO record of every message sent while connected, and a single
// connectivity flag. Disconnect is a full teardown (subscriptions and queue
// are cleared); SimulateDisconnect/SimulateReconnect flip only the flag so
// tests can fake a transient network drop without losing state.
package registry

import (
	"errors"
	"sync"
)

// ErrNotConnected is returned by Send when the registry is disconnected.
var ErrNotConnected = errors.New("registry: not connected")

// Handler receives messages simulated on a subscribed channel.
type Handler func(msg any)

// Registry is a fake pub/sub transport. The zero value is not usable; use New.
//
// All methods are safe for concurrent use, and each completes before
// returning — callers never observe a half-applied operation.
type Registry struct {
	mu        sync.RWMutex
	connected bool
	nextID    uint64
	subs      map[string]map[uint64]Handler // channel → registration id → handler
	queue     []any                         // messages sent while connected, append order
}

func New() *Registry {
	return &Registry{
		subs: make(map[string]map[uint64]Handler),
	}
}

// Connect marks the registry connected. Calling it while already connected
// has no effect. It never fails; the error return mirrors the transport
// interface this fake stands in for.
func (r *Registry) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = true
	return nil
}

// Disconnect marks the registry disconnected and resets it: every
// subscription on every channel is removed and the message queue is emptied.
// Idempotent. For a flag-only drop see DropLink.
func (r *Registry) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = false
	r.subs = make(map[string]map[uint64]Handler)
	r.queue = nil
}

// Subscribe registers fn on channel and returns its unsubscribe func.
// The returned func removes exactly this registration; other subscribers and
// other channels are untouched. Calling it more than once is a no-op.
func (r *Registry) Subscribe(channel string, fn Handler) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.subs[channel]
	if !ok {
		set = make(map[uint64]Handler)
		r.subs[channel] = set
	}
	id := r.nextID
	r.nextID++
	set[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if set, ok := r.subs[channel]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(r.subs, channel)
				}
			}
		})
	}
}

// Send appends msg to the message queue. It fails with ErrNotConnected while
// the registry is disconnected; the queue is left untouched in that case.
func (r *Registry) Send(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.connected {
		return ErrNotConnected
	}
	r.queue = append(r.queue, msg)
	return nil
}

// SimulateMessage delivers msg to every handler currently subscribed to
// channel, each exactly once. Handlers registered after the call are not
// invoked. Unknown channels are a no-op.
//
// Handlers run on the caller's goroutine, outside the registry lock, so they
// may themselves call back into the registry.
func (r *Registry) SimulateMessage(channel string, msg any) {
	r.mu.RLock()
	handlers := make([]Handler, 0, len(r.subs[channel]))
	for _, fn := range r.subs[channel] {
		handlers = append(handlers, fn)
	}
	r.mu.RUnlock()

	for _, fn := range handlers {
		fn(msg)
	}
}

// SimulateDisconnect fakes a transient network drop: the connectivity flag
// goes false but subscriptions and the queue survive, unlike Disconnect.
func (r *Registry) SimulateDisconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = false
}

// SimulateReconnect reverses SimulateDisconnect.
func (r *Registry) SimulateReconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = true
}

// MessageQueue returns a copy of the queued messages in send order.
// Mutating the returned slice does not affect the registry.
func (r *Registry) MessageQueue() []any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]any, len(r.queue))
	copy(out, r.queue)
	return out
}

// ClearMessageQueue empties the queue, leaving subscriptions and the
// connectivity flag as they are.
func (r *Registry) ClearMessageQueue() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = nil
}

// IsConnected reports the current connectivity flag.
func (r *Registry) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

// SubscriptionCount returns the number of active subscriptions on channel,
// zero for channels never subscribed to.
func (r *Registry) SubscriptionCount(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[channel])
}

// Channels returns the names of all channels with at least one subscriber.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.subs))
	for n := range r.subs {
		names = append(names, n)
	}
	return names
}

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tarsonis125/mocket/internal/registry"
)

// Frame is the wire format, both directions. Type selects the operation;
// the other fields are operation-specific.
type Frame struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Payload any    `json:"payload,omitempty"`
	// Server → client only.
	Messages []any  `json:"messages"`
	Count    *int   `json:"count,omitempty"`
	Error    string `json:"error,omitempty"`
}

// session is one connected harness client.
type session struct {
	id   string
	reg  *registry.Registry
	conn *websocket.Conn

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu   sync.Mutex
	subs map[string]func() // channel → unsubscribe
}

func newSession(reg *registry.Registry, conn *websocket.Conn) *session {
	return &session{
		id:   uuid.NewString(),
		reg:  reg,
		conn: conn,
		subs: make(map[string]func()),
	}
}

// run reads frames until the socket closes, then releases this session's
// subscriptions.
func (s *session) run() {
	defer s.teardown()
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			s.writeError("", "malformed frame: "+err.Error())
			continue
		}
		s.handle(f)
	}
}

func (s *session) handle(f Frame) {
	switch f.Type {
	case "connect":
		_ = s.reg.Connect()
		s.writeOK(f.Type)

	case "disconnect":
		s.reg.Disconnect()
		// Every session's subscriptions are gone; forget ours so teardown
		// does not double-unsubscribe (which would be harmless but noisy).
		s.mu.Lock()
		s.subs = make(map[string]func())
		s.mu.Unlock()
		s.writeOK(f.Type)

	case "drop":
		s.reg.SimulateDisconnect()
		s.writeOK(f.Type)

	case "reconnect":
		s.reg.SimulateReconnect()
		s.writeOK(f.Type)

	case "subscribe":
		if f.Channel == "" {
			s.writeError(f.Type, "subscribe needs a channel")
			return
		}
		s.mu.Lock()
		if _, dup := s.subs[f.Channel]; dup {
			s.mu.Unlock()
			// One slot per channel per client; re-subscribing is a no-op.
			s.writeOK(f.Type)
			return
		}
		channel := f.Channel
		s.subs[channel] = s.reg.Subscribe(channel, func(msg any) {
			s.writeFrame(Frame{Type: "message", Channel: channel, Payload: msg})
		})
		s.mu.Unlock()
		s.writeOK(f.Type)

	case "unsubscribe":
		s.mu.Lock()
		un, ok := s.subs[f.Channel]
		delete(s.subs, f.Channel)
		s.mu.Unlock()
		if ok {
			un()
		}
		s.writeOK(f.Type)

	case "send":
		if err := s.reg.Send(f.Payload); err != nil {
			if errors.Is(err, registry.ErrNotConnected) {
				s.writeError(f.Type, "not connected")
			} else {
				s.writeError(f.Type, err.Error())
			}
			return
		}
		s.writeOK(f.Type)

	case "simulate":
		if f.Channel == "" {
			s.writeError(f.Type, "simulate needs a channel")
			return
		}
		s.reg.SimulateMessage(f.Channel, f.Payload)
		s.writeOK(f.Type)

	case "clear":
		s.reg.ClearMessageQueue()
		s.writeOK(f.Type)

	case "queue":
		msgs := s.reg.MessageQueue()
		if msgs == nil {
			msgs = []any{}
		}
		s.writeFrame(Frame{Type: "queue", Messages: msgs})

	case "count":
		n := s.reg.SubscriptionCount(f.Channel)
		s.writeFrame(Frame{Type: "count", Channel: f.Channel, Count: &n})

	case "status":
		connected := s.reg.IsConnected()
		s.writeFrame(Frame{Type: "status", Payload: connected})

	default:
		s.writeError(f.Type, "unknown frame type")
	}
}

func (s *session) teardown() {
	s.mu.Lock()
	subs := s.subs
	s.subs = make(map[string]func())
	s.mu.Unlock()
	for _, un := range subs {
		un()
	}
	_ = s.conn.Close()
}

func (s *session) writeOK(op string) {
	s.writeFrame(Frame{Type: "ok", Payload: op})
}

func (s *session) writeError(op, msg string) {
	s.writeFrame(Frame{Type: "error", Payload: op, Error: msg})
}

func (s *session) writeFrame(f Frame) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(f); err != nil {
		slog.Debug("server: write failed", "id", s.id, "err", err)
	}
}

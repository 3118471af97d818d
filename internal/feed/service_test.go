package feed

import (
	"context"
	"testing"
	"time"

	"github.com/tarsonis125/mocket/internal/config"
	"github.com/tarsonis125/mocket/internal/registry"
)

func newTestManager(t *testing.T, cfgs ...config.FeedConfig) (*Manager, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	if err := reg.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return NewManager(reg, cfgs), reg
}

// startManager starts the manager in the background and returns a cancel func.
func startManager(t *testing.T, m *Manager) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = m.Start(ctx) }()
	// Give Start() a moment to arm timers.
	time.Sleep(20 * time.Millisecond)
	return cancel
}

// ─── Add / Remove ──────────────────────────────────────────────────────────

func TestAdd_Every(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Add(Feed{Name: "tick", Channel: "tasks", Kind: "every", EveryMs: 5000, Payload: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names := m.Names(); len(names) != 1 || names[0] != "tick" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestAdd_BadEvery(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Add(Feed{Name: "tick", Channel: "tasks", Kind: "every"}); err == nil {
		t.Fatal("expected error for everyMs=0")
	}
}

func TestAdd_BadCronExpr(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Add(Feed{Name: "bad", Channel: "tasks", Kind: "cron", Expr: "not a cron"}); err == nil {
		t.Fatal("expected error for invalid expression")
	}
}

func TestAdd_UnknownKind(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.Add(Feed{Name: "bad", Channel: "tasks", Kind: "weekly"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestAdd_DuplicateName(t *testing.T) {
	m, _ := newTestManager(t)
	_ = m.Add(Feed{Name: "tick", Channel: "tasks", Kind: "every", EveryMs: 1000})
	if err := m.Add(Feed{Name: "tick", Channel: "logs", Kind: "every", EveryMs: 1000}); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestRemove(t *testing.T) {
	m, _ := newTestManager(t)
	_ = m.Add(Feed{Name: "tick", Channel: "tasks", Kind: "every", EveryMs: 1000})
	if !m.Remove("tick") {
		t.Fatal("expected Remove to return true")
	}
	if m.Remove("tick") {
		t.Fatal("expected Remove to return false for unknown feed")
	}
}

// ─── Config loading ────────────────────────────────────────────────────────

func TestNewManager_SkipsDisabledAndInvalid(t *testing.T) {
	m, _ := newTestManager(t,
		config.FeedConfig{Name: "on", Channel: "tasks", Kind: "every", EveryMs: 1000, Enabled: true},
		config.FeedConfig{Name: "off", Channel: "tasks", Kind: "every", EveryMs: 1000, Enabled: false},
		config.FeedConfig{Name: "broken", Channel: "tasks", Kind: "nope", Enabled: true},
	)
	names := m.Names()
	if len(names) != 1 || names[0] != "on" {
		t.Fatalf("expected only the enabled valid feed, got %v", names)
	}
}

// ─── Delivery ──────────────────────────────────────────────────────────────

func TestEveryFeed_Delivers(t *testing.T) {
	m, reg := newTestManager(t)
	got := make(chan any, 16)
	reg.Subscribe("tasks", func(msg any) { got <- msg })

	_ = m.Add(Feed{Name: "tick", Channel: "tasks", Kind: "every", EveryMs: 30, Payload: "ping {{n}}"})
	cancel := startManager(t, m)
	defer cancel()

	select {
	case msg := <-got:
		if msg != "ping 1" {
			t.Fatalf("expected %q, got %v", "ping 1", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first delivery")
	}
	select {
	case msg := <-got:
		if msg != "ping 2" {
			t.Fatalf("expected %q, got %v", "ping 2", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second delivery")
	}
}

func TestAtFeed_FiresOnce(t *testing.T) {
	m, reg := newTestManager(t)
	got := make(chan any, 16)
	reg.Subscribe("tasks", func(msg any) { got <- msg })

	_ = m.Add(Feed{Name: "once", Channel: "tasks", Kind: "at",
		AtMs: time.Now().Add(50 * time.Millisecond).UnixMilli(), Payload: "boom"})
	cancel := startManager(t, m)
	defer cancel()

	select {
	case msg := <-got:
		if msg != "boom" {
			t.Fatalf("expected boom, got %v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	select {
	case msg := <-got:
		t.Fatalf("at-feed fired twice: %v", msg)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestRemove_StopsDelivery(t *testing.T) {
	m, reg := newTestManager(t)
	got := make(chan any, 16)
	reg.Subscribe("tasks", func(msg any) { got <- msg })

	_ = m.Add(Feed{Name: "tick", Channel: "tasks", Kind: "every", EveryMs: 30, Payload: "x"})
	cancel := startManager(t, m)
	defer cancel()

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first delivery")
	}

	m.Remove("tick")
	// Drain anything already in flight, then expect silence.
	time.Sleep(50 * time.Millisecond)
	for len(got) > 0 {
		<-got
	}
	select {
	case msg := <-got:
		t.Fatalf("removed feed delivered: %v", msg)
	case <-time.After(120 * time.Millisecond):
	}
}

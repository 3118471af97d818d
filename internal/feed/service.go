// Package feed injects scheduled fake traffic into the channel registry.
//
// A feed names a channel, a schedule and a payload. Whenever the schedule
// fires, the payload is delivered to the channel's subscribers exactly as if
// a backend had pushed it. Feeds are how a UI under test gets a steady
// stream of realistic messages without anyone typing them in.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/tarsonis125/mocket/internal/config"
	"github.com/tarsonis125/mocket/internal/registry"
)

// Feed is one armed traffic source.
type Feed struct {
	Name    string
	Channel string
	Kind    string // "every" | "cron" | "at"
	EveryMs int64
	Expr    string
	AtMs    int64
	Payload string

	fired int64 // number of times this feed has delivered
}

// Manager owns all feeds and their timers.
type Manager struct {
	reg *registry.Registry

	mu      sync.Mutex
	started bool
	feeds   map[string]*Feed
	timers  map[string]*time.Timer
	cron    *robfigcron.Cron
	cronID  map[string]robfigcron.EntryID // feed name → cron entry
}

// NewManager creates a Manager delivering into reg, pre-loaded with the
// enabled feeds from cfg. Feeds with an unknown schedule kind are skipped
// with a warning rather than failing startup.
func NewManager(reg *registry.Registry, cfgs []config.FeedConfig) *Manager {
	m := &Manager{
		reg:    reg,
		feeds:  make(map[string]*Feed),
		timers: make(map[string]*time.Timer),
		cron:   robfigcron.New(),
		cronID: make(map[string]robfigcron.EntryID),
	}
	for _, fc := range cfgs {
		if !fc.Enabled {
			continue
		}
		if err := m.Add(Feed{
			Name:    fc.Name,
			Channel: fc.Channel,
			Kind:    fc.Kind,
			EveryMs: fc.EveryMs,
			Expr:    fc.Expr,
			AtMs:    fc.AtMs,
			Payload: fc.Payload,
		}); err != nil {
			slog.Warn("feed: skipping configured feed", "name", fc.Name, "err", err)
		}
	}
	return m
}

// Add validates and registers a feed. Timers are not armed until Start.
// Adding after Start arms immediately.
func (m *Manager) Add(f Feed) error {
	switch f.Kind {
	case "every":
		if f.EveryMs <= 0 {
			return fmt.Errorf("feed %q: everyMs must be positive", f.Name)
		}
	case "cron":
		if _, err := cronParser().Parse(f.Expr); err != nil {
			return fmt.Errorf("feed %q: bad cron expression %q: %w", f.Name, f.Expr, err)
		}
	case "at":
		if f.AtMs <= 0 {
			return fmt.Errorf("feed %q: atMs must be set", f.Name)
		}
	default:
		return fmt.Errorf("feed %q: unknown schedule kind %q", f.Name, f.Kind)
	}
	if f.Name == "" || f.Channel == "" {
		return fmt.Errorf("feed name and channel are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.feeds[f.Name]; exists {
		return fmt.Errorf("feed %q already exists", f.Name)
	}
	m.feeds[f.Name] = &f
	if m.started {
		m.armLocked(&f)
	}
	return nil
}

// Remove disarms and drops a feed by name, reporting whether it existed.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feeds[name]; !ok {
		return false
	}
	m.disarmLocked(name)
	delete(m.feeds, name)
	return true
}

// Names returns the registered feed names.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.feeds))
	for n := range m.feeds {
		out = append(out, n)
	}
	return out
}

// Start arms every feed and blocks until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	for _, f := range m.feeds {
		m.armLocked(f)
	}
	n := len(m.feeds)
	m.mu.Unlock()

	m.cron.Start()
	slog.Info("feed: started", "feeds", n)

	<-ctx.Done()

	<-m.cron.Stop().Done()
	m.mu.Lock()
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = make(map[string]*time.Timer)
	m.started = false
	m.mu.Unlock()
	return ctx.Err()
}

func (m *Manager) armLocked(f *Feed) {
	switch f.Kind {
	case "every":
		d := time.Duration(f.EveryMs) * time.Millisecond
		m.timers[f.Name] = time.AfterFunc(d, func() {
			m.deliver(f)
			// Re-arm for the next tick unless removed or stopped meanwhile.
			m.mu.Lock()
			if _, live := m.feeds[f.Name]; live && m.started {
				m.disarmLocked(f.Name)
				m.armLocked(f)
			}
			m.mu.Unlock()
		})

	case "at":
		delay := time.Until(time.UnixMilli(f.AtMs))
		if delay < 0 {
			return // already in the past
		}
		m.timers[f.Name] = time.AfterFunc(delay, func() {
			m.deliver(f)
		})

	case "cron":
		sched, err := cronParser().Parse(f.Expr)
		if err != nil {
			slog.Warn("feed: invalid cron expression", "feed", f.Name, "expr", f.Expr, "err", err)
			return
		}
		m.cronID[f.Name] = m.cron.Schedule(sched, robfigcron.FuncJob(func() {
			m.deliver(f)
		}))
	}
}

func (m *Manager) disarmLocked(name string) {
	if t, ok := m.timers[name]; ok {
		t.Stop()
		delete(m.timers, name)
	}
	if id, ok := m.cronID[name]; ok {
		m.cron.Remove(id)
		delete(m.cronID, name)
	}
}

func (m *Manager) deliver(f *Feed) {
	m.mu.Lock()
	f.fired++
	n := f.fired
	m.mu.Unlock()

	payload := strings.ReplaceAll(f.Payload, "{{n}}", strconv.FormatInt(n, 10))
	slog.Info("feed: delivering", "feed", f.Name, "channel", f.Channel, "n", n)
	m.reg.SimulateMessage(f.Channel, payload)
}

func cronParser() robfigcron.Parser {
	return robfigcron.NewParser(
		robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow,
	)
}

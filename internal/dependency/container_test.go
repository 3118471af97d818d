package dependency

import (
	"testing"

	"github.com/tarsonis125/mocket/internal/config"
)

func TestNew_WiresEverything(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Feeds = []config.FeedConfig{
		{Name: "tick", Channel: "tasks", Kind: "every", EveryMs: 60000, Payload: "x", Enabled: true},
	}

	c, err := New(&cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Registry() == nil || c.Feeds() == nil || c.Server() == nil {
		t.Fatal("container has nil services")
	}
	if !c.Registry().IsConnected() {
		t.Error("expected registry connected per startConnected default")
	}
	if names := c.Feeds().Names(); len(names) != 1 || names[0] != "tick" {
		t.Errorf("unexpected feeds: %v", names)
	}
}

func TestNew_StartDisconnected(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Registry.StartConnected = false

	c, err := New(&cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Registry().IsConnected() {
		t.Error("expected registry to start disconnected")
	}
}

// Package dependency wires the harness services using go.uber.org/dig.
package dependency

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/tarsonis125/mocket/internal/config"
	"github.com/tarsonis125/mocket/internal/feed"
	"github.com/tarsonis125/mocket/internal/registry"
	"github.com/tarsonis125/mocket/internal/server"
)

// Container holds the resolved harness singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	reg   *registry.Registry
	feeds *feed.Manager
	srv   *server.Server
}

func (c *Container) Registry() *registry.Registry { return c.reg }
func (c *Container) Feeds() *feed.Manager         { return c.feeds }
func (c *Container) Server() *server.Server       { return c.srv }

// New builds and wires all harness services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(newRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(newFeedManager); err != nil {
		return nil, err
	}
	if err := d.Provide(newServer); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		reg *registry.Registry,
		feeds *feed.Manager,
		srv *server.Server,
	) {
		result = &Container{
			reg:   reg,
			feeds: feeds,
			srv:   srv,
		}
	})
	return result, err
}

func newRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg := registry.New()
	if cfg.Registry.StartConnected {
		if err := reg.Connect(); err != nil {
			return nil, fmt.Errorf("connect registry: %w", err)
		}
	}
	return reg, nil
}

func newFeedManager(cfg *config.Config, reg *registry.Registry) *feed.Manager {
	return feed.NewManager(reg, cfg.Feeds)
}

func newServer(cfg *config.Config, reg *registry.Registry) *server.Server {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return server.New(reg, addr, cfg.Server.Path)
}

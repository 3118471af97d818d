package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tarsonis125/mocket/internal/config"
	"github.com/tarsonis125/mocket/internal/dependency"
)

var (
	servePort   int
	serveConfig string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mocket harness server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Override the configured port")
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "Config file path")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	c, err := dependency.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	fmt.Printf("%s Starting mocket harness on %s:%d%s\n",
		logo, cfg.Server.Host, cfg.Server.Port, cfg.Server.Path)
	if feeds := c.Feeds().Names(); len(feeds) > 0 {
		fmt.Printf("✓ Feeds enabled: %v\n", feeds)
	}

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Server().Start(gctx) })
	g.Go(func() error { return c.Feeds().Start(gctx) })

	fmt.Printf("%s Harness running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "harness error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}

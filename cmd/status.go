package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/tarsonis125/mocket/internal/config"
	"github.com/tarsonis125/mocket/internal/server"
)

var statusChannel string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running harness",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusChannel, "channel", "C", "", "Also report the subscriber count for this channel")
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	url := fmt.Sprintf("ws://%s:%d%s", cfg.Server.Host, cfg.Server.Port, cfg.Server.Path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s (is the harness running?): %w", url, err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	fmt.Printf("%s mocket Status — %s\n\n", logo, url)

	if err := conn.WriteJSON(server.Frame{Type: "status"}); err != nil {
		return fmt.Errorf("request status: %w", err)
	}
	var f server.Frame
	if err := conn.ReadJSON(&f); err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	mark := "✗ disconnected"
	if connected, _ := f.Payload.(bool); connected {
		mark = "✓ connected"
	}
	fmt.Printf("Registry:  %s\n", mark)

	if err := conn.WriteJSON(server.Frame{Type: "queue"}); err != nil {
		return fmt.Errorf("request queue: %w", err)
	}
	if err := conn.ReadJSON(&f); err != nil {
		return fmt.Errorf("read queue: %w", err)
	}
	fmt.Printf("Queue:     %d message(s)\n", len(f.Messages))

	if statusChannel != "" {
		if err := conn.WriteJSON(server.Frame{Type: "count", Channel: statusChannel}); err != nil {
			return fmt.Errorf("request count: %w", err)
		}
		if err := conn.ReadJSON(&f); err != nil {
			return fmt.Errorf("read count: %w", err)
		}
		n := 0
		if f.Count != nil {
			n = *f.Count
		}
		fmt.Printf("Channel:   %q has %d subscriber(s)\n", statusChannel, n)
	}
	return nil
}

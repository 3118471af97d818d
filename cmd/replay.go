package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarsonis125/mocket/internal/registry"
	"github.com/tarsonis125/mocket/internal/scenario"
)

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.yaml> [more.yaml...]",
	Short: "Run scenario files against a fresh registry",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReplay,
}

func runReplay(_ *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		sc, err := scenario.Load(path)
		if err != nil {
			return err
		}
		// Each file gets its own registry, like each test gets its own fake.
		if err := scenario.NewRunner(registry.New()).Run(sc); err != nil {
			fmt.Printf("✗ %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("✓ %s (%d steps)\n", path, len(sc.Steps))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
	}
	return nil
}

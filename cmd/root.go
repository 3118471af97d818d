// Package cmd implements the mocket CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "🔌"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "mocket",
	Short: logo + " mocket — fake pub/sub transport for frontend tests",
	Long: logo + ` mocket — an in-memory publish/subscribe fake with a WebSocket
harness server, so component and e2e test suites can run against
predictable fake traffic instead of a live backend.`,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(statusCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reportkit",
		Short: "URL-synced paginated report views for Go",
		Long: `Reportkit serves paginated, filterable data reports whose entire
view state (page, page size, active filters) is mirrored in the URL
query string, making views shareable, bookmarkable and restorable.

  • Canonical query-string state with push/replace history modes
  • Staged filter editing with option validation
  • Automatic pagination correction and stale-fetch discarding
  • JSON endpoint, WebSocket live sessions, Prometheus metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("reportkit %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// Package cliapp implements esrtctl, the command-line driver for the
// esrt runtime: loading a topology, running a demo workload against
// it, and querying a running daemon's introspection API.
package cliapp

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/esrt/internal/logging"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default introspection API URL, checking
// the ESRT_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("ESRT_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for esrtctl.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "esrtctl",
		Short: "esrtctl — control and inspect an esrt scheduling runtime",
		Long:  "esrtctl loads topologies, runs demo workloads, and queries a running esrt daemon's introspection API.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "esrt daemon URL (or ESRT_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newInspectCmd(),
		newFinishCmd(),
		newExitCmd(),
	)

	return root
}

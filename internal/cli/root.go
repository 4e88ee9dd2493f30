// Package cli defines the rowgate command tree: serve runs the
// gateway, load bulk-writes rows into the store.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds the global flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the rowgate root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rowgate",
		Short: "REST read gateway over a versioned column-family table store",
		Long: `rowgate serves sparse, versioned, column-family tables over HTTP.

Tables are declared as YAML layouts, rows live in a bbolt database, and
clients read them as JSON documents: single rows by entity identifier,
or row ranges as a CRLF-delimited record stream.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(opts.Verbose)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "rowgate.yaml", "path to configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))

	return cmd
}

// configureLogging installs the process-wide text logger on stderr.
func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

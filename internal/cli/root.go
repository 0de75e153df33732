package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/roster-geo-etl/internal/config"
	"github.com/couchcryptid/roster-geo-etl/internal/observability"
	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// app carries the loaded configuration and output streams through the
// command tree.
type app struct {
	cfg      *config.Config
	logLevel string
	out      io.Writer
	errOut   io.Writer
}

// consoleLogger returns the text logger used by batch commands. It writes to
// the error stream so the report owns stdout.
func (a *app) consoleLogger() *slog.Logger {
	return observability.NewConsoleLogger(a.errOut, a.cfg.LogLevel)
}

// NewRootCommand creates the rostergeo command tree.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "rostergeo",
		Short: "Map subscriber rosters to geographic regions",
		Long: "rostergeo reads a subscriber roster CSV, resolves each row to a canonical\n" +
			"region (a Japanese prefecture or a US ZIP area) and writes an aggregated\n" +
			"summary ready for map rendering.",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			a.cfg = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(
		newPlacementCommand(a),
		newResidenceCommand(a),
		newServeCommand(a),
		newGazetteerCommand(a),
	)
	return cmd
}

// Execute runs the command tree against the process arguments and returns
// the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

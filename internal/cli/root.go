// Package cli implements the deardayone command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrlokans/deardayone/internal/config"
	"github.com/mrlokans/deardayone/internal/exporter"
	"github.com/mrlokans/deardayone/internal/exportstate"
	"github.com/mrlokans/deardayone/internal/logger"
	"github.com/mrlokans/deardayone/internal/remarkable"
	"github.com/mrlokans/deardayone/internal/runner"
	"github.com/mrlokans/deardayone/internal/setup"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DataDir  string
	LogLevel string
	Verbose  bool
}

// deps are the process-level collaborators, replaced in tests.
type deps struct {
	runner   runner.Runner
	prompter func() (setup.Prompter, func(), error)
}

func defaultDeps() deps {
	return deps{
		runner:   runner.NewExec(),
		prompter: newLinePrompter,
	}
}

// NewRootCommand creates the root command. Without a subcommand it exports
// pending pages, or runs the interactive setup with --setup.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	return newRootCommand(cfg, defaultDeps())
}

func newRootCommand(cfg *config.Config, d deps) *cobra.Command {
	opts := &RootOptions{}
	var runSetup, dryRun bool

	cmd := &cobra.Command{
		Use:   "deardayone",
		Short: "Export reMarkable handwritten journal pages to Day One",
		Long: `Export the pages of one reMarkable handwritten notebook to a Day One journal.

Each page is rendered to PNG and published as one journal entry. Pages are
tracked by identifier so that every page is published exactly once across
repeated runs. Run with --setup first to choose the notebook and journal.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := opts.LogLevel
			if opts.Verbose {
				level = "debug"
			}
			return logger.Init(level)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cfg, opts, d, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()

			if runSetup {
				return app.setup(cmd.Context())
			}
			_, err = app.export(cmd.Context(), exporter.Options{DryRun: dryRun})
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", cfg.Remarkable.DataDir, "reMarkable desktop data directory")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", cfg.Log.Level, "log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (same as --log-level=debug)")

	cmd.Flags().BoolVar(&runSetup, "setup", false, "interactive setup to pick a reMarkable notebook and Day One journal")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be exported without actually doing it")
	cmd.MarkFlagsMutuallyExclusive("setup", "dry-run")

	cmd.AddCommand(NewHistoryCommand(cfg))
	cmd.AddCommand(newScheduleCommand(cfg, opts, d))

	return cmd
}

// PrintError writes err and, for the errors a user can act on, a hint.
func PrintError(w io.Writer, err error) {
	var notFound *exporter.NotebookNotFoundError
	switch {
	case errors.Is(err, exportstate.ErrNotConfigured):
		fmt.Fprintln(w, "No configuration found. Run `deardayone --setup` first.")
	case errors.As(err, &notFound):
		fmt.Fprintf(w, "Error: %v\n", err)
		fmt.Fprintln(w, "  It may have been deleted or the data hasn't synced.")
		fmt.Fprintln(w, "  Run `deardayone --setup` to select a different notebook.")
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, "Interrupted. Pages exported so far are saved; re-run to continue.")
	case errors.Is(err, remarkable.ErrStoreNotFound):
		fmt.Fprintf(w, "Error: %v\n", err)
		fmt.Fprintln(w, "  Make sure the reMarkable desktop app is installed and has synced.")
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

// Execute runs the command line until it finishes or the process receives
// SIGINT or SIGTERM, and reports errors on the command's error stream.
// Cancelling setup is not an error.
func Execute(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return ExecuteContext(ctx, cmd)
}

// ExecuteContext is Execute with a caller-controlled context. Cancelling ctx
// stops an export between pages and kills a running conversion; the run's
// temporary files are removed before it returns.
func ExecuteContext(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if err == nil || errors.Is(err, setup.ErrCancelled) {
		return nil
	}
	PrintError(cmd.ErrOrStderr(), err)
	return err
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/deardayone/internal/config"
	"github.com/mrlokans/deardayone/internal/dayone"
	"github.com/mrlokans/deardayone/internal/exporter"
	"github.com/mrlokans/deardayone/internal/scheduler"
)

// ScheduleOptions holds flags for the schedule command.
type ScheduleOptions struct {
	Cron string
	Now  bool
}

func newScheduleCommand(cfg *config.Config, rootOpts *RootOptions, d deps) *cobra.Command {
	opts := &ScheduleOptions{}

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Export new pages periodically",
		Long: `Keep running and export new pages on a cron schedule until interrupted
with SIGINT or SIGTERM.

A run that is still in progress when the next one is due is not interrupted;
the overlapping run is skipped.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd.Context(), cfg, rootOpts, opts, d, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cron, "cron", cfg.Schedule.Cron, "cron schedule (e.g. \"0 * * * *\" for hourly)")
	cmd.Flags().BoolVar(&opts.Now, "now", false, "also export once immediately")

	return cmd
}

func runSchedule(ctx context.Context, cfg *config.Config, rootOpts *RootOptions, opts *ScheduleOptions, d deps, cmd *cobra.Command) error {
	if err := scheduler.ValidateSchedule(opts.Cron); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	app, err := newApp(cfg, rootOpts, d, out)
	if err != nil {
		return err
	}
	defer app.Close()

	// A missing configuration would fail every tick; report it up front.
	if _, err := app.state.Load(); err != nil {
		return err
	}

	export := func(ctx context.Context) error {
		_, err := app.export(ctx, exporter.Options{})
		return err
	}

	if opts.Now {
		if err := export(ctx); err != nil {
			PrintError(cmd.ErrOrStderr(), err)
		}
	}

	s := scheduler.NewExportScheduler(opts.Cron, export)
	if err := s.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "Exporting on schedule '%s'. Press Ctrl+C to stop.\n", opts.Cron)
	if next := s.NextRun(); next != nil {
		fmt.Fprintf(out, "Next run: %s\n", next.Format(dayone.DateLayout))
	}

	<-ctx.Done()
	s.Stop()
	fmt.Fprintln(out, "Scheduler stopped.")
	return nil
}

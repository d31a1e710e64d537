package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/deardayone/internal/audit"
	"github.com/mrlokans/deardayone/internal/config"
	"github.com/mrlokans/deardayone/internal/database"
	"github.com/mrlokans/deardayone/internal/database/history"
	"github.com/mrlokans/deardayone/internal/dayone"
	"github.com/mrlokans/deardayone/internal/entities"
	"github.com/mrlokans/deardayone/internal/exportstate"
	"github.com/mrlokans/deardayone/internal/utils"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	Limit          int
	PruneOlderThan time.Duration
	RunID          string
	PageID         string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(cfg *config.Config) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent page export attempts",
		Long: `Show the most recent page export attempts, newest first.

The history is informational. Whether a page has been exported is decided by
the export configuration alone, so pruning history never causes a re-export.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of attempts to show")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show only the attempts of one export run")
	cmd.Flags().StringVar(&opts.PageID, "page", "", "show every attempt for one page of the configured notebook")
	cmd.MarkFlagsMutuallyExclusive("run", "page")
	cmd.Flags().DurationVar(&opts.PruneOlderThan, "prune-older-than", 0, "delete attempts older than this duration (e.g. 720h) before listing")

	return cmd
}

func runHistory(cfg *config.Config, opts *HistoryOptions, out io.Writer) error {
	if !cfg.History.Enabled {
		fmt.Fprintln(out, "Export history is disabled.")
		return nil
	}

	db, err := database.NewDatabase(cfg.History.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open export history: %w", err)
	}
	defer db.Close()

	svc := audit.NewService(history.NewRepository(db.DB))

	if opts.PruneOlderThan > 0 {
		deleted, err := svc.DeleteOldEvents(opts.PruneOlderThan)
		if err != nil {
			return fmt.Errorf("failed to prune export history: %w", err)
		}
		fmt.Fprintf(out, "Pruned %d record(s) older than %s.\n\n", deleted, opts.PruneOlderThan)
	}

	events, err := selectEvents(cfg, svc, opts)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(out, "No export attempts recorded.")
		return nil
	}

	for _, ev := range events {
		fmt.Fprintln(out, formatEvent(ev))
	}
	return nil
}

func selectEvents(cfg *config.Config, svc *audit.Service, opts *HistoryOptions) ([]entities.ExportEvent, error) {
	var (
		events []entities.ExportEvent
		err    error
	)
	switch {
	case opts.RunID != "":
		events, err = svc.RunEvents(opts.RunID)
	case opts.PageID != "":
		state, loadErr := exportstate.NewStore(cfg.State.ConfigFile).Load()
		if loadErr != nil {
			return nil, loadErr
		}
		events, err = svc.PageEvents(state.NotebookGUID, opts.PageID)
	default:
		events, err = svc.RecentEvents(opts.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read export history: %w", err)
	}
	return events, nil
}

func formatEvent(ev entities.ExportEvent) string {
	line := fmt.Sprintf("%s  %-7s  %s  page %d (%s...)",
		ev.CreatedAt.Local().Format(dayone.DateLayout),
		ev.Status,
		ev.NotebookName,
		ev.Position,
		utils.ShortID(ev.PageID, 8),
	)
	if ev.Status == entities.ExportStatusFailed {
		return line + "  " + ev.ErrorMsg
	}
	if ev.EntryID != "" {
		return line + "  -> " + ev.EntryID
	}
	return line
}

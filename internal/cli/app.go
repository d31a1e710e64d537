package cli

import (
	"context"
	"io"

	"github.com/mrlokans/deardayone/internal/audit"
	"github.com/mrlokans/deardayone/internal/config"
	"github.com/mrlokans/deardayone/internal/convert"
	"github.com/mrlokans/deardayone/internal/database"
	"github.com/mrlokans/deardayone/internal/database/history"
	"github.com/mrlokans/deardayone/internal/dayone"
	"github.com/mrlokans/deardayone/internal/exporter"
	"github.com/mrlokans/deardayone/internal/exportstate"
	"github.com/mrlokans/deardayone/internal/logger"
	"github.com/mrlokans/deardayone/internal/remarkable"
	"github.com/mrlokans/deardayone/internal/setup"
)

// app wires the components used by the export and setup commands.
type app struct {
	cfg   *config.Config
	deps  deps
	out   io.Writer
	store *remarkable.Store
	state *exportstate.Store
	db    *database.Database
	audit *audit.Service
}

// newApp checks the document store and opens the export history. A history
// database that cannot be opened is logged and skipped.
func newApp(cfg *config.Config, opts *RootOptions, d deps, out io.Writer) (*app, error) {
	store := remarkable.NewStore(opts.DataDir)
	if err := store.Check(); err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		deps:  d,
		out:   out,
		store: store,
		state: exportstate.NewStore(cfg.State.ConfigFile),
	}

	if cfg.History.Enabled {
		db, err := database.NewDatabase(cfg.History.DatabasePath)
		if err != nil {
			logger.Warn("Export history disabled", err, logger.Fields{"path": cfg.History.DatabasePath})
		} else {
			a.db = db
			a.audit = audit.NewService(history.NewRepository(db.DB))
		}
	}

	return a, nil
}

func (a *app) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		logger.Warn("Failed to close history database", err)
	}
}

func (a *app) exporter() *exporter.Exporter {
	ecfg := exporter.Config{
		Store:     a.store,
		State:     a.state,
		Converter: convert.NewPipeline(a.cfg.Tools.RmcBin, a.cfg.Tools.InkscapeBin, a.deps.runner),
		Publisher: dayone.NewPublisher(a.cfg.DayOne.Bin, a.deps.runner),
		Out:       a.out,
		SourceTag: a.cfg.DayOne.SourceTag,
	}
	if a.audit != nil {
		ecfg.History = a.audit
	}
	return exporter.New(ecfg)
}

func (a *app) export(ctx context.Context, opts exporter.Options) (*exporter.Summary, error) {
	summary, err := a.exporter().Run(ctx, opts)
	if err != nil {
		return summary, err
	}
	logger.Info("Export finished", logger.Fields{
		"run_id":   summary.RunID,
		"exported": summary.Exported,
		"failed":   summary.Failed(),
		"dry_run":  summary.DryRun,
	})
	return summary, nil
}

func (a *app) setup(ctx context.Context) error {
	prompter, closePrompter, err := a.deps.prompter()
	if err != nil {
		return err
	}
	defer closePrompter()

	s := setup.New(setup.Config{
		Store:    a.store,
		Journals: dayone.NewJournalReader(a.cfg.DayOne.DatabasePath),
		State:    a.state,
		Prompter: prompter,
		Out:      a.out,
	})
	_, err = s.Run(ctx)
	return err
}

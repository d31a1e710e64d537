// Package exporter drives the incremental export of one notebook into a
// Day One journal.
//
// A run loads the export configuration, checks that the notebook still
// exists, lists its pages in declared order and keeps those that have a
// stroke file and are not yet in the exported set. Each pending page is
// converted, published, and then added to the exported set, which is saved
// immediately, so a crash repeats at most the page in flight. A failing page
// is reported and skipped; the next run retries it.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/deardayone/internal/convert"
	"github.com/mrlokans/deardayone/internal/dayone"
	"github.com/mrlokans/deardayone/internal/entities"
	"github.com/mrlokans/deardayone/internal/exportstate"
	"github.com/mrlokans/deardayone/internal/logger"
	"github.com/mrlokans/deardayone/internal/remarkable"
	"github.com/mrlokans/deardayone/internal/utils"
)

// State names the steps of an export run.
type State string

const (
	StateLoadingConfig      State = "LOADING_CONFIG"
	StateValidatingNotebook State = "VALIDATING_NOTEBOOK"
	StateResolvingPages     State = "RESOLVING_PAGES"
	StateDiffing            State = "DIFFING"
	StateDryRunReport       State = "DRY_RUN_REPORT"
	StateExporting          State = "EXPORTING"
	StateDone               State = "DONE"
)

// ErrNotebookNotFound matches NotebookNotFoundError.
var ErrNotebookNotFound = errors.New("notebook not found")

// NotebookNotFoundError is returned when the configured notebook is no
// longer in the document store.
type NotebookNotFoundError struct {
	GUID string
	Name string
}

func (e *NotebookNotFoundError) Error() string {
	return fmt.Sprintf("notebook '%s' (%s) not found in reMarkable data", e.Name, e.GUID)
}

func (e *NotebookNotFoundError) Is(target error) bool {
	return target == ErrNotebookNotFound
}

// StateStore loads and persists the export configuration.
type StateStore interface {
	Load() (*exportstate.Config, error)
	Save(cfg *exportstate.Config) error
}

// Converter renders a stroke file to a PNG at rasterPath.
type Converter interface {
	Convert(ctx context.Context, strokePath, rasterPath string) (string, error)
}

// Publisher creates one journal entry and returns its identifier.
type Publisher interface {
	CreateEntry(ctx context.Context, entry dayone.Entry) (string, error)
}

// HistoryRecorder keeps a log of page export attempts.
type HistoryRecorder interface {
	LogPageExport(event *entities.ExportEvent, err error)
}

// Config holds the collaborators of an Exporter.
type Config struct {
	Store     *remarkable.Store
	State     StateStore
	Converter Converter
	Publisher Publisher
	History   HistoryRecorder // optional
	Out       io.Writer       // progress output; defaults to os.Stdout
	SourceTag string          // first tag of every entry
	Location  *time.Location  // time zone of entry dates; defaults to time.Local
	TempDir   string          // parent of the run's scratch directory; "" uses the OS default
}

// Options controls a single run.
type Options struct {
	DryRun bool
}

// PendingPage is a page selected for export.
type PendingPage struct {
	Position   int // 1-based position in the notebook's declared page order
	Page       remarkable.Page
	StrokePath string
	Date       time.Time
}

// PageFailure describes a page that could not be exported.
type PageFailure struct {
	Position int
	PageID   string
	Err      error
}

// Summary reports what a run did.
type Summary struct {
	RunID           string
	NotebookGUID    string
	NotebookName    string
	Journal         string
	TotalPages      int
	AlreadyExported int
	Pending         []PendingPage
	Exported        int
	Failures        []PageFailure
	DryRun          bool
}

// Failed returns the number of pages that could not be exported.
func (s *Summary) Failed() int {
	return len(s.Failures)
}

// Exporter runs incremental exports. Runs are sequential; an Exporter must
// not be used by two runs at once.
type Exporter struct {
	store     *remarkable.Store
	state     StateStore
	converter Converter
	publisher Publisher
	history   HistoryRecorder
	out       io.Writer
	sourceTag string
	location  *time.Location
	tempDir   string
}

// New creates an Exporter from its collaborators
func New(cfg Config) *Exporter {
	e := &Exporter{
		store:     cfg.Store,
		state:     cfg.State,
		converter: cfg.Converter,
		publisher: cfg.Publisher,
		history:   cfg.History,
		out:       cfg.Out,
		sourceTag: cfg.SourceTag,
		location:  cfg.Location,
		tempDir:   cfg.TempDir,
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.location == nil {
		e.location = time.Local
	}
	return e
}

// Run performs one export run. Configuration, notebook and page-list
// problems abort the run with an error; per-page failures are collected in
// the returned Summary.
func (e *Exporter) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString(), DryRun: opts.DryRun}
	log := logger.Fields{"run_id": summary.RunID}

	e.enter(StateLoadingConfig, log)
	cfg, err := e.state.Load()
	if err != nil {
		if errors.Is(err, exportstate.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	summary.NotebookGUID = cfg.NotebookGUID
	summary.NotebookName = cfg.NotebookName
	summary.Journal = cfg.Journal

	e.enter(StateValidatingNotebook, log)
	if !e.store.NotebookExists(cfg.NotebookGUID) {
		return nil, &NotebookNotFoundError{GUID: cfg.NotebookGUID, Name: cfg.NotebookName}
	}

	e.enter(StateResolvingPages, log)
	pages, err := e.store.Pages(cfg.NotebookGUID)
	if err != nil {
		return nil, fmt.Errorf("failed to read pages of '%s': %w", cfg.NotebookName, err)
	}
	summary.TotalPages = len(pages)
	if len(pages) == 0 {
		fmt.Fprintf(e.out, "Notebook '%s' has no pages.\n", cfg.NotebookName)
		e.enter(StateDone, log)
		return summary, nil
	}

	e.enter(StateDiffing, log)
	summary.Pending = e.pendingPages(cfg, pages)
	summary.AlreadyExported = len(cfg.ExportedPages)
	if len(summary.Pending) == 0 {
		fmt.Fprintf(e.out, "Nothing to export. All %d pages of '%s' are already exported.\n", len(pages), cfg.NotebookName)
		e.enter(StateDone, log)
		return summary, nil
	}

	action := "Exporting"
	if opts.DryRun {
		action = "Would export"
	}
	fmt.Fprintf(e.out, "%s %d page(s) from '%s' to Day One journal '%s'\n",
		action, len(summary.Pending), cfg.NotebookName, cfg.Journal)
	if summary.AlreadyExported > 0 {
		fmt.Fprintf(e.out, "  (%d page(s) already exported, skipping)\n", summary.AlreadyExported)
	}
	fmt.Fprintln(e.out)

	if opts.DryRun {
		e.enter(StateDryRunReport, log)
		e.reportDryRun(summary.Pending)
		e.enter(StateDone, log)
		return summary, nil
	}

	e.enter(StateExporting, log)
	if err := e.export(ctx, cfg, summary); err != nil {
		return summary, err
	}

	e.enter(StateDone, log)
	fmt.Fprintln(e.out)
	fmt.Fprintf(e.out, "Done! %d page(s) exported, %d error(s).\n", summary.Exported, summary.Failed())
	if summary.Failed() > 0 {
		fmt.Fprintln(e.out, "  Re-run to retry failed pages.")
	}
	return summary, nil
}

func (e *Exporter) enter(state State, fields logger.Fields) {
	logger.Debug("Export state", fields, logger.Fields{"state": string(state)})
}

// pendingPages keeps, in declared order, the pages that have a stroke file
// and are not in the exported set.
func (e *Exporter) pendingPages(cfg *exportstate.Config, pages []remarkable.Page) []PendingPage {
	exported := cfg.ExportedSet()

	var pending []PendingPage
	for i, page := range pages {
		if _, done := exported[page.ID]; done {
			continue
		}
		strokePath, ok := e.store.StrokePath(cfg.NotebookGUID, page.ID)
		if !ok {
			continue
		}
		info, err := os.Stat(strokePath)
		if err != nil || info.IsDir() {
			continue
		}
		pending = append(pending, PendingPage{
			Position:   i + 1,
			Page:       page,
			StrokePath: strokePath,
			Date:       e.entryDate(page, info),
		})
	}
	return pending
}

// entryDate uses the page's declared modification time, falling back to the
// stroke file's mtime when the page carries none.
func (e *Exporter) entryDate(page remarkable.Page, info os.FileInfo) time.Time {
	if page.ModifiedMs > 0 {
		return time.UnixMilli(page.ModifiedMs).In(e.location)
	}
	return info.ModTime().In(e.location)
}

func (e *Exporter) reportDryRun(pending []PendingPage) {
	for _, p := range pending {
		fmt.Fprintf(e.out, "  Page %d: %s... (%s)\n", p.Position, utils.ShortID(p.Page.ID, 8), p.Date.Format(dayone.DateLayout))
	}
	fmt.Fprintln(e.out)
	fmt.Fprintln(e.out, "Run without --dry-run to export.")
}

// export converts and publishes every pending page. It returns an error only
// when the run cannot continue: the scratch directory cannot be created, the
// context is cancelled, or progress cannot be saved after a publish.
func (e *Exporter) export(ctx context.Context, cfg *exportstate.Config, summary *Summary) error {
	workDir, err := os.MkdirTemp(e.tempDir, "deardayone-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Debug("Failed to remove temporary directory", logger.Fields{"path": workDir, "error": err.Error()})
		}
	}()

	for _, page := range summary.Pending {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("export interrupted: %w", err)
		}

		fmt.Fprintf(e.out, "  Page %d/%d: ", page.Position, summary.TotalPages)

		entryID, err := e.exportPage(ctx, cfg, page, workDir)
		e.record(summary, cfg, page, entryID, err)
		if err != nil {
			fmt.Fprintf(e.out, "FAILED - %v\n", err)
			summary.Failures = append(summary.Failures, PageFailure{Position: page.Position, PageID: page.Page.ID, Err: err})
			continue
		}

		cfg.MarkExported(page.Page.ID)
		if err := e.state.Save(cfg); err != nil {
			fmt.Fprintln(e.out, "FAILED - could not save progress")
			return fmt.Errorf("failed to save progress after exporting page %s: %w", page.Page.ID, err)
		}
		summary.Exported++
		fmt.Fprintf(e.out, "OK (%s)\n", page.Date.Format(dayone.DateLayout))
	}
	return nil
}

func (e *Exporter) exportPage(ctx context.Context, cfg *exportstate.Config, page PendingPage, workDir string) (string, error) {
	job := convert.NewJob(workDir, page.Page.ID, page.StrokePath)

	png, err := e.converter.Convert(ctx, job.StrokePath, job.RasterPath)
	if err != nil {
		return "", err
	}
	// The raster only has to outlive the publish call.
	defer os.Remove(png)

	return e.publisher.CreateEntry(ctx, dayone.Entry{
		Journal:    cfg.Journal,
		Date:       page.Date,
		Tags:       []string{e.sourceTag, cfg.NotebookName},
		Attachment: png,
		Body:       fmt.Sprintf("Page %d of %s", page.Position, cfg.NotebookName),
	})
}

func (e *Exporter) record(summary *Summary, cfg *exportstate.Config, page PendingPage, entryID string, err error) {
	if e.history == nil {
		return
	}
	e.history.LogPageExport(&entities.ExportEvent{
		RunID:        summary.RunID,
		NotebookGUID: cfg.NotebookGUID,
		NotebookName: cfg.NotebookName,
		PageID:       page.Page.ID,
		Position:     page.Position,
		Journal:      cfg.Journal,
		EntryID:      entryID,
	}, err)
}

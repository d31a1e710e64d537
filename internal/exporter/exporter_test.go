package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/deardayone/internal/convert"
	"github.com/mrlokans/deardayone/internal/dayone"
	"github.com/mrlokans/deardayone/internal/entities"
	"github.com/mrlokans/deardayone/internal/exportstate"
	"github.com/mrlokans/deardayone/internal/remarkable"
	"github.com/mrlokans/deardayone/internal/runner"
	"github.com/mrlokans/deardayone/internal/testutil"
)

const (
	notebookID   = "6d2b1f0e-93c4-4a8e-b1b7-5f0c3a9e2d11"
	notebookName = "Morning Pages"
	journal      = "Journal"
)

type page struct {
	id       string
	modified string // raw JSON value of "modifed"; empty omits the field
	stroke   bool
}

type harness struct {
	t         *testing.T
	root      string
	statePath string
	tempDir   string
	state     *exportstate.Store
	runner    *testutil.FakeRunner
	out       *bytes.Buffer
	history   *recorder
	exporter  *Exporter
	entries   int
}

func newHarness(t *testing.T, pages ...page) *harness {
	t.Helper()

	h := &harness{
		t:         t,
		root:      t.TempDir(),
		statePath: filepath.Join(t.TempDir(), "config.json"),
		tempDir:   t.TempDir(),
		runner:    testutil.NewFakeRunner(),
		out:       &bytes.Buffer{},
		history:   &recorder{},
	}
	h.state = exportstate.NewStore(h.statePath)
	h.writeNotebook(pages...)

	h.runner.
		On("rmc", testutil.RmcWritesSVG()).
		On("inkscape", testutil.InkscapeWritesPNG()).
		On("dayone", func([]string) (runner.Result, error) {
			h.entries++
			return runner.Result{Stdout: fmt.Sprintf("Created new entry with uuid: ENTRY%d\n", h.entries)}, nil
		})

	h.exporter = New(Config{
		Store:     remarkable.NewStore(h.root),
		State:     h.state,
		Converter: convert.NewPipeline("rmc", "inkscape", h.runner),
		Publisher: dayone.NewPublisher("dayone", h.runner),
		History:   h.history,
		Out:       h.out,
		SourceTag: "reMarkable",
		Location:  time.UTC,
		TempDir:   h.tempDir,
	})
	return h
}

func (h *harness) writeFile(name, body string) {
	h.t.Helper()

	path := filepath.Join(h.root, name)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(h.t, os.WriteFile(path, []byte(body), 0644))
}

func (h *harness) writeNotebook(pages ...page) {
	h.t.Helper()

	h.writeFile(notebookID+".metadata", `{"type": "DocumentType", "parent": "", "visibleName": "`+notebookName+`"}`)

	var entries []string
	for _, p := range pages {
		entry := `{"id": "` + p.id + `"`
		if p.modified != "" {
			entry += `, "modifed": ` + p.modified
		}
		entries = append(entries, entry+"}")
		if p.stroke {
			h.writeFile(filepath.Join(notebookID, p.id+".rm"), "reMarkable .lines file, version=6")
		}
	}
	h.writeFile(notebookID+".content",
		`{"fileType": "notebook", "cPages": {"pages": [`+strings.Join(entries, ",")+`]}}`)
}

func (h *harness) configure(exported ...string) {
	h.t.Helper()

	cfg := exportstate.ForSelection(nil, notebookID, notebookName, journal)
	for _, id := range exported {
		cfg.MarkExported(id)
	}
	require.NoError(h.t, h.state.Save(cfg))
}

func (h *harness) exported() []string {
	h.t.Helper()

	cfg, err := h.state.Load()
	require.NoError(h.t, err)
	return cfg.ExportedPages
}

func (h *harness) run(opts Options) *Summary {
	h.t.Helper()

	summary, err := h.exporter.Run(context.Background(), opts)
	require.NoError(h.t, err)
	return summary
}

func (h *harness) bodies() []string {
	var out []string
	for _, c := range h.runner.CallsTo("dayone") {
		out = append(out, c.Args[len(c.Args)-1])
	}
	return out
}

type recorder struct {
	events []entities.ExportEvent
}

func (r *recorder) LogPageExport(event *entities.ExportEvent, err error) {
	ev := *event
	ev.Status = entities.ExportStatusSuccess
	if err != nil {
		ev.Status = entities.ExportStatusFailed
		ev.ErrorMsg = err.Error()
	}
	r.events = append(r.events, ev)
}

func TestRun_ExportsPresentPageAndSkipsMissingStroke(t *testing.T) {
	h := newHarness(t,
		page{id: "A", modified: `"1700000000000"`, stroke: true},
		page{id: "B", modified: `"1700000060000"`},
	)
	h.configure()

	summary := h.run(Options{})

	calls := h.runner.CallsTo("dayone")
	require.Len(t, calls, 1)

	args := calls[0].Args
	require.Len(t, args, 12)
	assert.Equal(t, []string{
		"--journal", journal,
		"--date", "2023-11-14 22:13:20",
		"--tags", "reMarkable", notebookName,
		"--attachments",
	}, args[:8])
	assert.Equal(t, "A.png", filepath.Base(args[8]))
	assert.Equal(t, []string{"--", "new", "Page 1 of Morning Pages"}, args[9:])

	assert.Equal(t, []string{"A"}, h.exported())
	assert.Equal(t, 1, summary.Exported)
	assert.Equal(t, 0, summary.Failed())
	assert.Equal(t, 2, summary.TotalPages)

	assert.Equal(t, "Exporting 1 page(s) from 'Morning Pages' to Day One journal 'Journal'\n"+
		"\n"+
		"  Page 1/2: OK (2023-11-14 22:13:20)\n"+
		"\n"+
		"Done! 1 page(s) exported, 0 error(s).\n", h.out.String())
}

func TestRun_Idempotent(t *testing.T) {
	h := newHarness(t,
		page{id: "A", modified: `"1700000000000"`, stroke: true},
		page{id: "B", modified: `"1700000060000"`, stroke: true},
	)
	h.configure()

	first := h.run(Options{})
	assert.Equal(t, 2, first.Exported)

	h.out.Reset()
	second := h.run(Options{})

	assert.Equal(t, 0, second.Exported)
	assert.Empty(t, second.Pending)
	assert.Len(t, h.runner.CallsTo("dayone"), 2)
	assert.Equal(t, []string{"A", "B"}, h.exported())
	assert.Equal(t, "Nothing to export. All 2 pages of 'Morning Pages' are already exported.\n", h.out.String())
}

func TestRun_PreservesDeclaredOrder(t *testing.T) {
	h := newHarness(t,
		page{id: "zz", modified: "1700000000000", stroke: true},
		page{id: "aa", modified: "1600000000000", stroke: true},
		page{id: "mm", modified: "1800000000000", stroke: true},
	)
	h.configure()

	h.run(Options{})

	assert.Equal(t, []string{
		"Page 1 of Morning Pages",
		"Page 2 of Morning Pages",
		"Page 3 of Morning Pages",
	}, h.bodies())
	assert.Equal(t, []string{"zz", "aa", "mm"}, h.exported())
}

func TestRun_PositionCountsSkippedPages(t *testing.T) {
	h := newHarness(t,
		page{id: "p1", stroke: true},
		page{id: "p2"},
		page{id: "p3", stroke: true},
	)
	h.configure("p1")

	h.run(Options{})

	assert.Equal(t, []string{"Page 3 of Morning Pages"}, h.bodies())
	assert.Contains(t, h.out.String(), "  (1 page(s) already exported, skipping)\n")
	assert.Contains(t, h.out.String(), "  Page 3/3: OK")
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	h := newHarness(t,
		page{id: "p1", modified: "1700000000000", stroke: true},
		page{id: "p2", modified: "1700000000000", stroke: true},
		page{id: "p3", modified: "1700000000000", stroke: true},
	)
	h.configure()

	rmcOK := testutil.RmcWritesSVG()
	h.runner.On("rmc", func(args []string) (runner.Result, error) {
		if strings.HasSuffix(args[2], "p2.rm") {
			return runner.Result{ExitCode: 1, Stderr: "Traceback (most recent call last):\n  ...\nValueError: bad block\n"}, nil
		}
		return rmcOK(args)
	})

	summary := h.run(Options{})

	assert.Equal(t, 2, summary.Exported)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "p2", summary.Failures[0].PageID)
	assert.Equal(t, 2, summary.Failures[0].Position)

	var convErr *convert.ConversionError
	assert.True(t, errors.As(summary.Failures[0].Err, &convErr))

	assert.Equal(t, []string{"p1", "p3"}, h.exported())
	assert.Equal(t, []string{"Page 1 of Morning Pages", "Page 3 of Morning Pages"}, h.bodies())

	output := h.out.String()
	assert.Contains(t, output, "  Page 2/3: FAILED - rmc conversion failed: ValueError: bad block\n")
	assert.Contains(t, output, "Done! 2 page(s) exported, 1 error(s).\n")
	assert.Contains(t, output, "  Re-run to retry failed pages.\n")

	// The failed page is retried on the next run.
	h.runner.On("rmc", rmcOK)
	retry := h.run(Options{})

	assert.Equal(t, 1, retry.Exported)
	assert.Equal(t, []string{"p1", "p3", "p2"}, h.exported())
	assert.Equal(t, "Page 2 of Morning Pages", h.bodies()[2])
}

func TestRun_PublishFailureLeavesPageUnexported(t *testing.T) {
	h := newHarness(t, page{id: "p1", stroke: true})
	h.configure()
	h.runner.On("dayone", testutil.Fail("Journal not found\n"))

	summary := h.run(Options{})

	assert.Equal(t, 0, summary.Exported)
	assert.Equal(t, 1, summary.Failed())
	assert.Empty(t, h.exported())
	assert.Contains(t, h.out.String(), "FAILED - dayone failed: Journal not found\n")
}

func TestRun_SavesAfterEveryPublishedPage(t *testing.T) {
	h := newHarness(t,
		page{id: "p1", stroke: true},
		page{id: "p2", stroke: true},
		page{id: "p3", stroke: true},
	)
	h.configure()

	var seen [][]string
	h.runner.On("dayone", func([]string) (runner.Result, error) {
		seen = append(seen, h.exported())
		return runner.Result{Stdout: "ENTRY\n"}, nil
	})

	h.run(Options{})

	assert.Equal(t, [][]string{{}, {"p1"}, {"p1", "p2"}}, seen)
	assert.Equal(t, []string{"p1", "p2", "p3"}, h.exported())
}

func TestRun_InterruptKeepsCompletedPages(t *testing.T) {
	h := newHarness(t,
		page{id: "p1", stroke: true},
		page{id: "p2", stroke: true},
	)
	h.configure()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.runner.On("dayone", func([]string) (runner.Result, error) {
		cancel()
		return runner.Result{Stdout: "ENTRY\n"}, nil
	})

	summary, err := h.exporter.Run(ctx, Options{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Exported)
	assert.Equal(t, []string{"p1"}, h.exported())

	// Resuming publishes only the remaining page.
	h.runner.On("dayone", testutil.Prints("ENTRY\n"))
	h.run(Options{})

	assert.Equal(t, []string{"p1", "p2"}, h.exported())
	assert.Len(t, h.runner.CallsTo("dayone"), 2)
}

type failingSave struct {
	*exportstate.Store
}

func (f failingSave) Save(*exportstate.Config) error {
	return errors.New("disk full")
}

func TestRun_SaveFailureStopsRun(t *testing.T) {
	h := newHarness(t,
		page{id: "p1", stroke: true},
		page{id: "p2", stroke: true},
	)
	h.configure()
	h.exporter.state = failingSave{h.state}

	summary, err := h.exporter.Run(context.Background(), Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save progress")
	assert.Equal(t, 0, summary.Exported)
	assert.Len(t, h.runner.CallsTo("dayone"), 1)
}

func TestRun_FallsBackToStrokeModTime(t *testing.T) {
	h := newHarness(t,
		page{id: "p1", stroke: true},
		page{id: "p2", modified: `"not a number"`, stroke: true},
	)
	h.configure()

	mtime := time.Date(2024, 3, 9, 7, 30, 0, 0, time.UTC)
	for _, id := range []string{"p1", "p2"} {
		path := filepath.Join(h.root, notebookID, id+".rm")
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	summary := h.run(Options{DryRun: true})

	require.Len(t, summary.Pending, 2)
	for _, p := range summary.Pending {
		assert.True(t, p.Date.Equal(mtime), "page %s dated %s", p.Page.ID, p.Date)
	}
}

func TestRun_DryRunIsPure(t *testing.T) {
	h := newHarness(t,
		page{id: "11111111-aaaa-4bbb-8ccc-000000000001", modified: `"1699990000000"`, stroke: true},
		page{id: "22222222-aaaa-4bbb-8ccc-000000000002", modified: `"1700000000000"`, stroke: true},
		page{id: "33333333-aaaa-4bbb-8ccc-000000000003"},
		page{id: "44444444-aaaa-4bbb-8ccc-000000000004", modified: "1700000060000", stroke: true},
	)
	h.configure("11111111-aaaa-4bbb-8ccc-000000000001")

	before, err := os.ReadFile(h.statePath)
	require.NoError(t, err)

	summary := h.run(Options{DryRun: true})

	assert.True(t, summary.DryRun)
	assert.Len(t, summary.Pending, 2)
	assert.Empty(t, h.runner.Calls())
	assert.Empty(t, h.history.events)

	after, err := os.ReadFile(h.statePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(h.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "dry_run", h.out.Bytes())
}

func TestRun_NotConfigured(t *testing.T) {
	h := newHarness(t, page{id: "p1", stroke: true})

	_, err := h.exporter.Run(context.Background(), Options{})

	assert.ErrorIs(t, err, exportstate.ErrNotConfigured)
	assert.Empty(t, h.runner.Calls())
}

func TestRun_NotebookNotFound(t *testing.T) {
	h := newHarness(t, page{id: "p1", stroke: true})
	require.NoError(t, h.state.Save(exportstate.ForSelection(nil, "gone", "Old Notes", journal)))

	_, err := h.exporter.Run(context.Background(), Options{})

	require.ErrorIs(t, err, ErrNotebookNotFound)
	var nf *NotebookNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "gone", nf.GUID)
	assert.Contains(t, err.Error(), "Old Notes")
}

func TestRun_CorruptContentIsFatal(t *testing.T) {
	h := newHarness(t, page{id: "p1", stroke: true})
	h.configure()
	h.writeFile(notebookID+".content", "{")

	_, err := h.exporter.Run(context.Background(), Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read pages")
	assert.Empty(t, h.runner.Calls())
}

func TestRun_EmptyNotebook(t *testing.T) {
	h := newHarness(t)
	h.configure()

	summary := h.run(Options{})

	assert.Equal(t, 0, summary.TotalPages)
	assert.Equal(t, "Notebook 'Morning Pages' has no pages.\n", h.out.String())
}

func TestRun_RemovesTemporaryFiles(t *testing.T) {
	h := newHarness(t,
		page{id: "p1", stroke: true},
		page{id: "p2", stroke: true},
	)
	h.configure()
	h.runner.On("inkscape", testutil.Fail("cannot open display"))

	h.run(Options{})

	entries, err := os.ReadDir(h.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_RecordsHistory(t *testing.T) {
	h := newHarness(t,
		page{id: "p1", stroke: true},
		page{id: "p2", stroke: true},
	)
	h.configure()

	h.runner.On("dayone", func(args []string) (runner.Result, error) {
		if args[len(args)-1] == "Page 2 of Morning Pages" {
			return runner.Result{ExitCode: 1, Stderr: "sync error"}, nil
		}
		return runner.Result{Stdout: "ENTRY-1\n"}, nil
	})

	summary := h.run(Options{})

	require.Len(t, h.history.events, 2)

	ok := h.history.events[0]
	assert.Equal(t, summary.RunID, ok.RunID)
	assert.Equal(t, notebookID, ok.NotebookGUID)
	assert.Equal(t, "p1", ok.PageID)
	assert.Equal(t, 1, ok.Position)
	assert.Equal(t, "ENTRY-1", ok.EntryID)
	assert.Equal(t, entities.ExportStatusSuccess, ok.Status)

	failed := h.history.events[1]
	assert.Equal(t, "p2", failed.PageID)
	assert.Equal(t, entities.ExportStatusFailed, failed.Status)
	assert.Contains(t, failed.ErrorMsg, "sync error")
}

func TestRun_WithoutHistory(t *testing.T) {
	h := newHarness(t, page{id: "p1", stroke: true})
	h.configure()
	h.exporter.history = nil

	summary := h.run(Options{})

	assert.Equal(t, 1, summary.Exported)
}

func TestRun_SkipsPageIdentifiersOutsideNotebook(t *testing.T) {
	h := newHarness(t,
		page{id: "../outside", stroke: false},
		page{id: "p2", stroke: true},
	)
	h.writeFile("outside.rm", "lines")
	h.configure()

	summary := h.run(Options{})

	require.Len(t, summary.Pending, 1)
	assert.Equal(t, "p2", summary.Pending[0].Page.ID)
	assert.Equal(t, []string{"Page 2 of Morning Pages"}, h.bodies())
}

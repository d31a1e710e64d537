// Package setup implements the interactive selection of the notebook to
// export and the Day One journal that receives it.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mrlokans/deardayone/internal/exportstate"
	"github.com/mrlokans/deardayone/internal/logger"
	"github.com/mrlokans/deardayone/internal/remarkable"
)

// DefaultJournal is offered when no journals can be read from Day One.
const DefaultJournal = "Journal"

var (
	// ErrCancelled is returned when the user aborts a prompt. Nothing is saved.
	ErrCancelled = errors.New("setup cancelled")
	// ErrNoNotebooks is returned when the store holds no handwritten notebooks.
	ErrNoNotebooks = errors.New("no handwritten notebooks found")
)

// Prompter reads one line of input after showing a label. Implementations
// return ErrCancelled or io.EOF when input ends or the user aborts.
type Prompter interface {
	Prompt(label string) (string, error)
}

// JournalSource lists the destination journals.
type JournalSource interface {
	Journals() ([]string, error)
}

// StateStore loads and persists the export configuration.
type StateStore interface {
	Load() (*exportstate.Config, error)
	Save(cfg *exportstate.Config) error
	Path() string
}

// Config holds the collaborators of a Setup.
type Config struct {
	Store    *remarkable.Store
	Journals JournalSource
	State    StateStore
	Prompter Prompter
	Out      io.Writer
}

// Setup runs the interactive setup flow.
type Setup struct {
	store    *remarkable.Store
	journals JournalSource
	state    StateStore
	prompter Prompter
	out      io.Writer
}

func New(cfg Config) *Setup {
	s := &Setup{
		store:    cfg.Store,
		journals: cfg.Journals,
		state:    cfg.State,
		prompter: cfg.Prompter,
		out:      cfg.Out,
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	return s
}

// Run lists the notebooks, asks for a notebook and a journal, and saves the
// selection. Choosing the notebook that is already configured keeps its
// exported pages; choosing another one starts from an empty set.
func (s *Setup) Run(ctx context.Context) (*exportstate.Config, error) {
	fmt.Fprintln(s.out, "Scanning reMarkable notebooks...")
	fmt.Fprintln(s.out)

	notebooks, err := s.store.Notebooks()
	if err != nil {
		return nil, fmt.Errorf("failed to discover notebooks: %w", err)
	}
	if len(notebooks) == 0 {
		fmt.Fprintln(s.out, "No handwritten notebooks found in reMarkable data.")
		fmt.Fprintf(s.out, "  Looked in: %s\n", s.store.Root)
		return nil, ErrNoNotebooks
	}

	fmt.Fprintf(s.out, "Found %d handwritten notebook(s):\n\n", len(notebooks))
	for i, nb := range notebooks {
		location := ""
		if folder := s.store.FolderName(nb.Parent); folder != "" {
			location = "  [" + folder + "]"
		}
		fmt.Fprintf(s.out, "  %3d. %s%s  (%d/%d pages with content)\n",
			i+1, nb.Name, location, nb.ContentPageCount, nb.PageCount)
	}
	fmt.Fprintln(s.out)

	idx, err := s.choose(ctx, "Select notebook number: ", len(notebooks))
	if err != nil {
		return nil, s.cancelled(err)
	}
	selected := notebooks[idx]
	fmt.Fprintf(s.out, "\nSelected: %s\n", selected.Name)

	journal, err := s.chooseJournal(ctx)
	if err != nil {
		return nil, s.cancelled(err)
	}

	previous := s.previous()
	cfg := exportstate.ForSelection(previous, selected.ID, selected.Name, journal)
	if previous != nil && previous.NotebookGUID == selected.ID {
		fmt.Fprintf(s.out, "  (Preserving %d previously exported page records)\n", len(cfg.ExportedPages))
	}

	if err := s.state.Save(cfg); err != nil {
		return nil, err
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Setup complete!")
	fmt.Fprintf(s.out, "  Notebook: %s\n", cfg.NotebookName)
	fmt.Fprintf(s.out, "  Journal:  %s\n", cfg.Journal)
	fmt.Fprintf(s.out, "  Config:   %s\n", s.state.Path())
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Run `deardayone` to export pages, or `deardayone --dry-run` to preview.")

	return cfg, nil
}

func (s *Setup) chooseJournal(ctx context.Context) (string, error) {
	journals, err := s.journals.Journals()
	if err != nil {
		logger.Warn("Failed to read Day One journals", err)
		journals = nil
	}

	if len(journals) > 0 {
		fmt.Fprint(s.out, "\nDay One journals:\n\n")
		for i, j := range journals {
			fmt.Fprintf(s.out, "  %3d. %s\n", i+1, j)
		}
		fmt.Fprintln(s.out)

		idx, err := s.choose(ctx, "Select journal number: ", len(journals))
		if err != nil {
			return "", err
		}
		return journals[idx], nil
	}

	fmt.Fprintln(s.out, "\nCould not read Day One journals from database.")
	if err := ctx.Err(); err != nil {
		return "", err
	}
	answer, err := s.prompter.Prompt(fmt.Sprintf("Day One journal name [%s]: ", DefaultJournal))
	if err != nil {
		return "", err
	}
	if answer = strings.TrimSpace(answer); answer != "" {
		return answer, nil
	}
	return DefaultJournal, nil
}

// choose asks for a 1-based number until it gets one in 1..n and returns it
// as a 0-based index.
func (s *Setup) choose(ctx context.Context, label string, n int) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		answer, err := s.prompter.Prompt(label)
		if err != nil {
			return 0, err
		}

		num, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			fmt.Fprintln(s.out, "  Please enter a valid number")
			continue
		}
		if num < 1 || num > n {
			fmt.Fprintf(s.out, "  Please enter a number between 1 and %d\n", n)
			continue
		}
		return num - 1, nil
	}
}

// previous returns the saved configuration, or nil when there is none or it
// cannot be read.
func (s *Setup) previous() *exportstate.Config {
	cfg, err := s.state.Load()
	if err != nil {
		if !errors.Is(err, exportstate.ErrNotConfigured) {
			logger.Warn("Ignoring unreadable configuration", err, logger.Fields{"path": s.state.Path()})
		}
		return nil
	}
	return cfg
}

func (s *Setup) cancelled(err error) error {
	if errors.Is(err, ErrCancelled) || errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintln(s.out, "\nSetup cancelled.")
		return ErrCancelled
	}
	return fmt.Errorf("failed to read input: %w", err)
}

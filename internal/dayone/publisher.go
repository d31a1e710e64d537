// Package dayone talks to the Day One journaling app: entries are created
// through its command-line tool and journal names are read from its local
// database.
package dayone

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mrlokans/deardayone/internal/runner"
)

// ActionNew is the dayone CLI verb that creates an entry.
const ActionNew = "new"

// PublishError reports a failed entry creation with the tool's diagnostic.
type PublishError struct {
	Message string
	Err     error // set when the tool could not be started
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("dayone failed: %s", e.Message)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Entry is one journal entry to create.
type Entry struct {
	Journal    string
	Date       time.Time
	Tags       []string
	Attachment string
	Body       string
}

// Publisher creates entries with the dayone CLI.
type Publisher struct {
	Bin    string
	runner runner.Runner
}

// NewPublisher creates a Publisher invoking bin through r
func NewPublisher(bin string, r runner.Runner) *Publisher {
	return &Publisher{Bin: bin, runner: r}
}

// CreateEntry creates exactly one entry and returns the identifier the app
// printed for it.
func (p *Publisher) CreateEntry(ctx context.Context, entry Entry) (string, error) {
	b := NewCommandBuilder().
		Journal(entry.Journal).
		Date(entry.Date).
		Tags(entry.Tags...)
	if entry.Attachment != "" {
		b.Attach(entry.Attachment)
	}

	result, err := p.runner.Run(ctx, p.Bin, b.Args(ActionNew, entry.Body)...)
	if err != nil {
		return "", &PublishError{Message: err.Error(), Err: err}
	}
	if !result.Success() {
		return "", &PublishError{Message: strings.TrimSpace(result.Stderr)}
	}

	return strings.TrimSpace(result.Stdout), nil
}

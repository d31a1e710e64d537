package cli

import (
	"errors"
	"io"

	"github.com/peterh/liner"

	"github.com/mrlokans/deardayone/internal/setup"
)

// linePrompter reads setup answers from the terminal.
type linePrompter struct {
	line *liner.State
}

func newLinePrompter() (setup.Prompter, func(), error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	p := &linePrompter{line: line}
	return p, func() { _ = line.Close() }, nil
}

func (p *linePrompter) Prompt(label string) (string, error) {
	answer, err := p.line.Prompt(label)
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return "", setup.ErrCancelled
	}
	return answer, err
}

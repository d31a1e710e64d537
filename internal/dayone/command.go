package dayone

import "time"

// DateLayout is the date format accepted by the dayone CLI's --date flag.
const DateLayout = "2006-01-02 15:04:05"

// EndOfOptions stops the dayone CLI from reading further tokens as flag values.
const EndOfOptions = "--"

// CommandBuilder assembles dayone arguments. The CLI's --tags and
// --attachments flags are greedy and swallow every following token up to the
// next flag or "--", so Args always emits scalar flags first, then the
// greedy flags, then "--", then the action and its positional arguments,
// regardless of the order the builder methods were called in.
type CommandBuilder struct {
	journal     string
	date        time.Time
	tags        []string
	attachments []string
}

// NewCommandBuilder creates an empty builder
func NewCommandBuilder() *CommandBuilder {
	return &CommandBuilder{}
}

// Journal selects the destination journal; empty means the app's default.
func (b *CommandBuilder) Journal(name string) *CommandBuilder {
	b.journal = name
	return b
}

// Date stamps the entry; the zero time means "now".
func (b *CommandBuilder) Date(t time.Time) *CommandBuilder {
	b.date = t
	return b
}

// Tags appends entry tags.
func (b *CommandBuilder) Tags(tags ...string) *CommandBuilder {
	b.tags = append(b.tags, tags...)
	return b
}

// Attach appends attachment file paths.
func (b *CommandBuilder) Attach(paths ...string) *CommandBuilder {
	b.attachments = append(b.attachments, paths...)
	return b
}

// Args returns the argument vector for action (e.g. "new") followed by its
// positional arguments.
func (b *CommandBuilder) Args(action string, positional ...string) []string {
	var args []string

	if b.journal != "" {
		args = append(args, "--journal", b.journal)
	}
	if !b.date.IsZero() {
		args = append(args, "--date", b.date.Format(DateLayout))
	}
	if len(b.tags) > 0 {
		args = append(args, "--tags")
		args = append(args, b.tags...)
	}
	if len(b.attachments) > 0 {
		args = append(args, "--attachments")
		args = append(args, b.attachments...)
	}

	args = append(args, EndOfOptions, action)
	return append(args, positional...)
}

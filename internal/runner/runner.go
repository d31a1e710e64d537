// Package runner invokes external programs and captures their output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mrlokans/deardayone/internal/logger"
)

// Result is the outcome of a program that ran to completion.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the program exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner runs a program with arguments. A non-zero exit status is reported
// through Result, not as an error; the error is reserved for programs that
// could not be started or were interrupted.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Exec runs programs as child processes.
type Exec struct{}

// NewExec creates a Runner backed by os/exec
func NewExec() *Exec {
	return &Exec{}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running external command", logger.Fields{
		"command": name,
		"args":    strings.Join(args, " "),
	})

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("failed to run %s: %w", name, err)
	}

	return result, nil
}

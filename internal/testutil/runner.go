// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/mrlokans/deardayone/internal/runner"
)

// Call is one recorded invocation.
type Call struct {
	Name string
	Args []string
}

// Handler produces the outcome of a fake invocation.
type Handler func(args []string) (runner.Result, error)

// FakeRunner records invocations and answers them from per-program handlers.
// Programs without a handler succeed with empty output.
type FakeRunner struct {
	mu       sync.Mutex
	calls    []Call
	handlers map[string]Handler
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{handlers: make(map[string]Handler)}
}

// On registers the handler for a program.
func (f *FakeRunner) On(name string, h Handler) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
	return f
}

func (f *FakeRunner) Run(_ context.Context, name string, args ...string) (runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	h := f.handlers[name]
	f.mu.Unlock()

	if h == nil {
		return runner.Result{}, nil
	}
	return h(args)
}

// Calls returns every recorded invocation in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded invocations of one program.
func (f *FakeRunner) CallsTo(name string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Fail returns a handler that exits with status 1 and the given stderr.
func Fail(stderr string) Handler {
	return func([]string) (runner.Result, error) {
		return runner.Result{ExitCode: 1, Stderr: stderr}, nil
	}
}

// RmcWritesSVG mimics a successful "rmc -t svg <in> -o <out>".
func RmcWritesSVG() Handler {
	return func(args []string) (runner.Result, error) {
		for i, a := range args {
			if a == "-o" && i+1 < len(args) {
				if err := os.WriteFile(args[i+1], []byte("<svg/>"), 0644); err != nil {
					return runner.Result{}, err
				}
			}
		}
		return runner.Result{}, nil
	}
}

// InkscapeWritesPNG mimics a successful "inkscape --export-filename=<out> <in>".
func InkscapeWritesPNG() Handler {
	return func(args []string) (runner.Result, error) {
		for _, a := range args {
			if out, ok := strings.CutPrefix(a, "--export-filename="); ok {
				if err := os.WriteFile(out, []byte("\x89PNG"), 0644); err != nil {
					return runner.Result{}, err
				}
			}
		}
		return runner.Result{}, nil
	}
}

// Prints returns a handler that succeeds with the given stdout.
func Prints(stdout string) Handler {
	return func([]string) (runner.Result, error) {
		return runner.Result{Stdout: stdout}, nil
	}
}

// Package fakerunner provides a scripted system.Runner for tests.
package fakerunner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/relayprov/internal/system"
)

// ExitError mimics a process that ran and exited non-zero.
type ExitError struct {
	Code int
}

func (e ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// ExitStatus satisfies the interface system.IsExitError looks for.
func (e ExitError) ExitStatus() int { return e.Code }

// Exit returns an ExitError with the given code.
func Exit(code int) error { return ExitError{Code: code} }

// Handler produces the response for a matched command.
type Handler func(cmd system.Command) (system.Result, error)

type rule struct {
	prefix  string
	handler Handler
}

// Runner records every command and answers from registered rules. Rules
// match on the prefix of the rendered command line; the most recently
// registered match wins. Unmatched commands succeed with empty output.
type Runner struct {
	mu    sync.Mutex
	rules []rule
	calls []system.Command
}

var _ system.Runner = (*Runner)(nil)

// New creates an empty Runner.
func New() *Runner {
	return &Runner{}
}

// On registers a fixed response for commands starting with prefix.
func (r *Runner) On(prefix string, res system.Result, err error) *Runner {
	return r.OnFunc(prefix, func(system.Command) (system.Result, error) {
		return res, err
	})
}

// OnFunc registers a dynamic response for commands starting with prefix.
func (r *Runner) OnFunc(prefix string, h Handler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{prefix: prefix, handler: h})
	return r
}

// Run implements system.Runner.
func (r *Runner) Run(_ context.Context, cmd system.Command) (system.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	var h Handler
	line := cmd.String()
	for i := len(r.rules) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, r.rules[i].prefix) {
			h = r.rules[i].handler
			break
		}
	}
	r.mu.Unlock()

	if h == nil {
		return system.Result{}, nil
	}
	return h(cmd)
}

// Calls returns the rendered command lines in invocation order.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.String()
	}
	return out
}

// Commands returns the raw recorded commands.
func (r *Runner) Commands() []system.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]system.Command(nil), r.calls...)
}

// CalledWith reports whether any recorded command line starts with prefix.
func (r *Runner) CalledWith(prefix string) bool {
	for _, c := range r.Calls() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

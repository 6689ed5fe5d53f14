// Package action holds the mutators. An action is only invoked after its
// probe reported the resource absent, and each one changes exactly the
// resource it names.
package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

// Action brings one resource to its desired state. Implementations must be
// idempotent: applying an already converged resource is a no-op or an
// identical overwrite.
type Action interface {
	Resource() resource.ID
	Apply(ctx context.Context) error
}

// ErrorKind classifies which mutation failed.
type ErrorKind string

const (
	KindInstall ErrorKind = "install"
	KindWrite   ErrorKind = "write"
	KindReload  ErrorKind = "reload"
	KindEnable  ErrorKind = "enable"
	KindStart   ErrorKind = "start"
	KindClone   ErrorKind = "clone"
	KindExec    ErrorKind = "exec"
)

// Error is returned by every action. Stderr carries the captured output of
// the external tool, if any, so operators can diagnose without re-running.
type Error struct {
	Kind     ErrorKind
	Resource resource.ID
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Kind, e.Resource)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, "\n%s", e.Stderr)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Kind, so callers can test
// errors.Is(err, &action.Error{Kind: action.KindReload}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Resource.IsZero() || t.Resource == e.Resource)
}

func newError(kind ErrorKind, id resource.ID, stderr string, err error) *Error {
	return &Error{Kind: kind, Resource: id, Stderr: strings.TrimSpace(stderr), Err: err}
}

// Package probe reads the current state of a single resource. Probes never
// mutate the machine; they only decide whether an action is needed.
package probe

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

// Probe checks one resource.
type Probe interface {
	// Resource returns the identity this probe inspects.
	Resource() resource.ID

	// Check reports Present, Absent or Error. A resource that simply does
	// not exist is Absent; Error is reserved for genuine I/O failures.
	Check(ctx context.Context) model.ProbeResult
}

// Error reports that the current state of a resource could not be read.
type Error struct {
	Resource resource.ID
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("probe %s failed", e.Resource)
	}
	return fmt.Sprintf("probe %s: %v", e.Resource, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func failed(id resource.ID, err error) model.ProbeResult {
	return model.Errored(&Error{Resource: id, Err: err})
}

func cancelled(ctx context.Context, id resource.ID) (model.ProbeResult, bool) {
	if err := ctx.Err(); err != nil {
		return failed(id, fmt.Errorf("context cancelled: %w", err)), true
	}
	return model.ProbeResult{}, false
}

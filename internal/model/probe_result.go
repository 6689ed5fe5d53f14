package model

import "fmt"

// ProbeState is the read-only verdict a probe reaches about a resource.
type ProbeState string

const (
	// StatePresent means the resource already matches its desired state.
	StatePresent ProbeState = "present"
	// StateAbsent means the resource is missing or differs from its desired state.
	StateAbsent ProbeState = "absent"
	// StateError means the current state could not be determined.
	StateError ProbeState = "error"
)

// IsValid reports whether the state is one of the known constants.
func (s ProbeState) IsValid() bool {
	switch s {
	case StatePresent, StateAbsent, StateError:
		return true
	}
	return false
}

// ProbeResult is returned by every probe. Err is only set for StateError.
type ProbeResult struct {
	State  ProbeState
	Reason string
	Err    error

	// Diff optionally previews the change an action would make.
	Diff string
}

// Present builds a Present result.
func Present(reason string) ProbeResult {
	return ProbeResult{State: StatePresent, Reason: reason}
}

// Absent builds an Absent result.
func Absent(reason string) ProbeResult {
	return ProbeResult{State: StateAbsent, Reason: reason}
}

// Errored builds an Error result wrapping err.
func Errored(err error) ProbeResult {
	reason := "probe failed"
	if err != nil {
		reason = err.Error()
	}
	return ProbeResult{State: StateError, Reason: reason, Err: err}
}

// WithDiff attaches a change preview.
func (r ProbeResult) WithDiff(diff string) ProbeResult {
	r.Diff = diff
	return r
}

func (r ProbeResult) String() string {
	if r.Reason == "" {
		return string(r.State)
	}
	return fmt.Sprintf("%s (%s)", r.State, r.Reason)
}

package components

import "github.com/alexisbeaulieu97/relayprov/internal/model"

// StepEntry is one row of the step list.
type StepEntry struct {
	Plan        string
	Index       int
	Resource    string
	Description string
	Outcome     model.Outcome
	Fatal       bool
	Error       string
}

// StepList holds step rows in execution order.
type StepList struct {
	entries []StepEntry
}

// NewStepList constructs a step list component.
func NewStepList(entries []StepEntry) StepList {
	clone := make([]StepEntry, len(entries))
	copy(clone, entries)
	return StepList{entries: clone}
}

// Entries returns the ordered step entries.
func (s StepList) Entries() []StepEntry {
	clone := make([]StepEntry, len(s.entries))
	copy(clone, s.entries)
	return clone
}

// Tail returns at most n trailing entries, keeping the running step in
// view on small terminals.
func (s StepList) Tail(n int) []StepEntry {
	if n <= 0 || n >= len(s.entries) {
		return s.Entries()
	}
	clone := make([]StepEntry, n)
	copy(clone, s.entries[len(s.entries)-n:])
	return clone
}

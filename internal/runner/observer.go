package runner

import (
	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

// Event is delivered to observers as the run progresses.
type Event interface {
	isEvent()
}

// RunStarted opens a run. Steps is the total across all selected plans.
type RunStarted struct {
	RunID  string
	DryRun bool
	Plans  []string
	Steps  int
}

// PlanStarted is sent before the first step of a plan.
type PlanStarted struct {
	Plan  string
	Steps int
}

// PlanSkipped is sent for plans never started because the run aborted.
type PlanSkipped struct {
	Plan string
}

// StepStarted is sent just before a step probes.
type StepStarted struct {
	Plan        string
	Index       int
	Resource    resource.ID
	Description string
}

// StepFinished carries the recorded outcome of a step.
type StepFinished struct {
	Plan   string
	Index  int
	Report model.StepReport
}

// RunFinished carries the finalized report.
type RunFinished struct {
	Report *model.RunReport
}

func (RunStarted) isEvent()   {}
func (PlanStarted) isEvent()  {}
func (PlanSkipped) isEvent()  {}
func (StepStarted) isEvent()  {}
func (StepFinished) isEvent() {}
func (RunFinished) isEvent()  {}

// Observer receives run events synchronously on the runner goroutine.
// Implementations must not block for long.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) { f(e) }

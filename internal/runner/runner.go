// Package runner executes plans strictly in order, one step at a time, and
// records every outcome in a RunReport.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alexisbeaulieu97/relayprov/internal/logger"
	"github.com/alexisbeaulieu97/relayprov/internal/model"
	"github.com/alexisbeaulieu97/relayprov/internal/plan"
	"github.com/alexisbeaulieu97/relayprov/internal/step"
)

// Runner drives plans toward convergence.
//
// A failed fatal step stops its plan and every later plan; the partial
// report is returned with the failure marked. A failed non-fatal step is
// logged and the run continues. Re-running is the retry mechanism.
type Runner struct {
	Logger    *logger.Logger
	Observers []Observer
	DryRun    bool
	Profile   string

	now   func() time.Time
	newID func() string
}

// New creates a Runner.
func New(log *logger.Logger, dryRun bool, observers ...Observer) *Runner {
	return &Runner{Logger: log, DryRun: dryRun, Observers: observers}
}

// Execute validates every plan, then runs them in order. A validation
// failure returns the error and a nil report; nothing is probed. A context
// cancelled between steps aborts the run and is returned alongside the
// partial report.
func (r *Runner) Execute(ctx context.Context, plans ...*plan.Plan) (*model.RunReport, error) {
	if err := plan.ValidateAll(plans); err != nil {
		r.Logger.Error(err, "plan validation failed")
		return nil, err
	}

	report := model.NewRunReport(r.runID(), r.Profile, r.DryRun, r.clock())
	log := r.Logger.WithFields(map[string]any{"run_id": report.RunID, "dry_run": r.DryRun})

	total := 0
	for _, p := range plans {
		total += len(p.Steps)
	}
	r.notify(RunStarted{RunID: report.RunID, DryRun: r.DryRun, Plans: plan.Names(plans), Steps: total})
	log.Info("run started")

	var runErr error
	aborted := false
	for _, p := range plans {
		if aborted {
			_ = report.SkipPlan(p.Name)
			r.notify(PlanSkipped{Plan: p.Name})
			log.With("plan", p.Name).Debug("plan not run")
			continue
		}

		_ = report.BeginPlan(p.Name)
		r.notify(PlanStarted{Plan: p.Name, Steps: len(p.Steps)})
		planLog := log.With("plan", p.Name)
		planLog.Debug("plan started")

		for i, s := range p.Steps {
			if err := ctx.Err(); err != nil {
				planLog.Error(err, "run cancelled")
				_ = report.Abort()
				aborted = true
				runErr = err
				break
			}

			sr := r.runStep(ctx, planLog, p.Name, i, s)
			_ = report.Record(sr)
			r.notify(StepFinished{Plan: p.Name, Index: i, Report: sr})

			if sr.IsFailure() && s.Fatal {
				_ = report.Abort()
				aborted = true
				break
			}
		}
	}

	report.Finish(r.clock())
	r.notify(RunFinished{Report: report})

	counts := report.Counts()
	log.Event(levelFor(report.Status)).
		Str("status", string(report.Status)).
		Int("applied", counts[model.OutcomeApplied]).
		Int("skipped", counts[model.OutcomeSkipped]).
		Int("failed", counts[model.OutcomeFailed]).
		Int("would_apply", counts[model.OutcomeWouldApply]).
		Dur("duration", report.Duration()).
		Msg("run finished")

	return report, runErr
}

func (r *Runner) runStep(ctx context.Context, log *logger.Logger, planName string, idx int, s *step.Step) model.StepReport {
	id := s.Resource()
	r.notify(StepStarted{Plan: planName, Index: idx, Resource: id, Description: s.Description})

	start := r.clock()
	// Cancellation is honoured between steps only; a started action runs to
	// completion or failure.
	res := s.Run(context.WithoutCancel(ctx), r.DryRun)
	sr := model.StepReport{
		Resource:    id,
		ResourceID:  id.String(),
		Description: s.Description,
		Outcome:     res.Outcome,
		Fatal:       s.Fatal,
		Detail:      res.Detail,
		Diff:        res.Diff,
		Duration:    r.clock().Sub(start),
		Err:         res.Err,
	}
	if res.Err != nil {
		sr.Error = res.Err.Error()
	}

	stepLog := log.WithFields(map[string]any{"resource": id.String(), "outcome": string(res.Outcome)})
	switch {
	case res.Outcome != model.OutcomeFailed:
		stepLog.Info(stepMessage(s, res.Outcome))
	case s.Fatal:
		stepLog.Error(res.Err, "fatal step failed")
	default:
		stepLog.Warn(res.Err, "non-fatal step failed, continuing")
	}
	return sr
}

func stepMessage(s *step.Step, outcome model.Outcome) string {
	if s.Description != "" {
		return s.Description
	}
	return string(outcome)
}

func levelFor(status model.RunStatus) zerolog.Level {
	switch status {
	case model.RunAborted:
		return zerolog.ErrorLevel
	case model.RunCompletedWithWarnings:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func (r *Runner) notify(e Event) {
	for _, o := range r.Observers {
		if o != nil {
			o.Notify(e)
		}
	}
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) runID() string {
	if r.newID != nil {
		return r.newID()
	}
	return uuid.NewString()
}

// Package plan holds named, ordered step sequences. A plan is pure data:
// it is validated before anything runs and executed in declaration order.
package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/relayprov/internal/resource"
	"github.com/alexisbeaulieu97/relayprov/internal/step"
)

// Plan is one named provisioning task.
type Plan struct {
	Name        string
	Description string
	Steps       []*step.Step
}

// New declares a plan.
func New(name string, steps ...*step.Step) *Plan {
	return &Plan{Name: name, Steps: steps}
}

// Add appends steps and returns the plan for chaining.
func (p *Plan) Add(steps ...*step.Step) *Plan {
	p.Steps = append(p.Steps, steps...)
	return p
}

// Validate rejects plans that could never run correctly: no name, no
// steps, a step whose probe and action disagree, or two steps targeting
// the same resource.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Code: ErrCodeMissingName, Message: "plan name is required"}
	}
	if len(p.Steps) == 0 {
		return &ValidationError{Code: ErrCodeEmpty, Plan: p.Name, Message: "plan has no steps"}
	}

	seen := make(map[resource.ID]int, len(p.Steps))
	for i, s := range p.Steps {
		if s == nil {
			return &ValidationError{Code: ErrCodeInvalidStep, Plan: p.Name, Message: fmt.Sprintf("step %d is nil", i+1)}
		}
		if err := s.Validate(); err != nil {
			code := ErrCodeInvalidStep
			if errors.Is(err, step.ErrIdentityMismatch) {
				code = ErrCodeIdentityMismatch
			}
			return &ValidationError{
				Code:     code,
				Plan:     p.Name,
				Resource: s.Resource(),
				Message:  fmt.Sprintf("step %d is invalid", i+1),
				Cause:    err,
			}
		}

		id := s.Resource()
		if first, dup := seen[id]; dup {
			return newDuplicateError(p.Name, id, first, i)
		}
		seen[id] = i
	}
	return nil
}

// Resources lists step identities in order.
func (p *Plan) Resources() []resource.ID {
	ids := make([]resource.ID, 0, len(p.Steps))
	for _, s := range p.Steps {
		ids = append(ids, s.Resource())
	}
	return ids
}

// ValidateAll validates each plan and joins every failure.
func ValidateAll(plans []*Plan) error {
	var errs []error
	names := make(map[string]struct{}, len(plans))
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := names[p.Name]; dup {
			errs = append(errs, &ValidationError{Code: ErrCodeDuplicate, Plan: p.Name, Message: "plan declared twice"})
		}
		names[p.Name] = struct{}{}
	}
	return errors.Join(errs...)
}

// Select keeps the plans named in names, preserving declaration order.
// An empty names slice selects everything; an unknown name is an error.
func Select(plans []*Plan, names []string) ([]*Plan, error) {
	if len(names) == 0 {
		return plans, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.TrimSpace(n)] = false
	}

	selected := make([]*Plan, 0, len(names))
	for _, p := range plans {
		if _, ok := wanted[p.Name]; ok {
			wanted[p.Name] = true
			selected = append(selected, p)
		}
	}

	var unknown []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if !wanted[n] {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return nil, &ValidationError{
			Code:    ErrCodeUnknown,
			Plan:    strings.Join(unknown, ","),
			Message: fmt.Sprintf("unknown plan; available: %s", strings.Join(Names(plans), ", ")),
		}
	}
	return selected, nil
}

// Names returns plan names in order.
func Names(plans []*Plan) []string {
	out := make([]string, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.Name)
	}
	return out
}

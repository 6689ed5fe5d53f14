package plan

import (
	"errors"
	"fmt"

	"github.com/alexisbeaulieu97/relayprov/internal/resource"
)

// ErrorCode identifies why a plan was rejected.
type ErrorCode string

const (
	ErrCodeDuplicate        ErrorCode = "DUPLICATE_RESOURCE"
	ErrCodeIdentityMismatch ErrorCode = "IDENTITY_MISMATCH"
	ErrCodeEmpty            ErrorCode = "EMPTY_PLAN"
	ErrCodeMissingName      ErrorCode = "MISSING_NAME"
	ErrCodeUnknown          ErrorCode = "UNKNOWN_PLAN"
	ErrCodeInvalidStep      ErrorCode = "INVALID_STEP"
)

// ValidationError is raised before execution begins. A run that hits one
// executes nothing.
type ValidationError struct {
	Code     ErrorCode
	Plan     string
	Resource resource.ID
	Message  string
	Cause    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: plan %q: %s", e.Code, e.Plan, e.Message)
	if !e.Resource.IsZero() {
		msg += " (" + e.Resource.String() + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another *ValidationError by code.
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func newDuplicateError(plan string, id resource.ID, first, second int) *ValidationError {
	return &ValidationError{
		Code:     ErrCodeDuplicate,
		Plan:     plan,
		Resource: id,
		Message:  fmt.Sprintf("steps %d and %d target the same resource", first+1, second+1),
	}
}

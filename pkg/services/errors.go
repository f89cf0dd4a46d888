// Package services implements the business operations over templates,
// executions, and service orders.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. Validation errors map to 400 responses, conflicts
// to 409.
var (
	// Validation errors (400 Bad Request).
	ErrTemplateHasNoSteps  = errors.New("workflow template has no steps")
	ErrDuplicateStepID     = errors.New("workflow template has duplicate step ids")
	ErrInvalidStepOrder    = errors.New("workflow step order must be positive")
	ErrUnknownDefaultStep  = errors.New("default step id does not match any step")
	ErrInvalidFormData     = errors.New("form data does not match the step's form schema")
	ErrTemplateNameMissing = errors.New("workflow template name is required")

	// Business logic conflicts (409 Conflict).
	ErrExecutionExists    = errors.New("service order already has an active workflow")
	ErrTemplateAssigned   = errors.New("workflow template is already assigned to this service order")
	ErrExecutionCompleted = errors.New("workflow execution is already completed")
	ErrStepNotCurrent     = errors.New("step is not the execution's current step")
	ErrAdvanceInProgress  = errors.New("another advance is in progress for this execution")
	ErrAssignInProgress   = errors.New("another assignment is in progress for this service order")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrTemplateHasNoSteps) ||
		errors.Is(err, ErrDuplicateStepID) ||
		errors.Is(err, ErrInvalidStepOrder) ||
		errors.Is(err, ErrUnknownDefaultStep) ||
		errors.Is(err, ErrInvalidFormData) ||
		errors.Is(err, ErrTemplateNameMissing)
}

// IsConflictError checks if an error is a business logic conflict that should
// return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrExecutionExists) ||
		errors.Is(err, ErrTemplateAssigned) ||
		errors.Is(err, ErrExecutionCompleted) ||
		errors.Is(err, ErrStepNotCurrent) ||
		errors.Is(err, ErrAdvanceInProgress) ||
		errors.Is(err, ErrAssignInProgress)
}

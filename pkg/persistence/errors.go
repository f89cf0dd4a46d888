package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrTemplateNotFound indicates a workflow template was not found.
	ErrTemplateNotFound = errors.New("workflow template not found")

	// ErrExecutionNotFound indicates a workflow execution was not found.
	ErrExecutionNotFound = errors.New("workflow execution not found")

	// ErrServiceOrderNotFound indicates a service order was not found.
	ErrServiceOrderNotFound = errors.New("service order not found")

	// ErrExecutionExists indicates a service order already has an execution.
	ErrExecutionExists = errors.New("workflow execution already exists for service order")
)

// StoreError wraps persistence errors with the failing operation and entity.
type StoreError struct {
	Op       string // Operation being performed (e.g., "GetByID", "Save")
	EntityID string // Entity ID if applicable
	Err      error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.EntityID, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a persistence error with context.
func NewStoreError(op, entityID string, err error) *StoreError {
	return &StoreError{Op: op, EntityID: entityID, Err: err}
}

// IsTemplateNotFound checks if an error indicates a missing template.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsExecutionNotFound checks if an error indicates a missing execution.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsServiceOrderNotFound checks if an error indicates a missing service order.
func IsServiceOrderNotFound(err error) bool {
	return errors.Is(err, ErrServiceOrderNotFound)
}

// IsExecutionExists checks if an error indicates a duplicate execution for a
// service order.
func IsExecutionExists(err error) bool {
	return errors.Is(err, ErrExecutionExists)
}

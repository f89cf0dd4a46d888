package models

import "time"

// ExecutionStatus represents the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusActive    ExecutionStatus = "active"
	ExecutionStatusCompleted ExecutionStatus = "completed"
)

// StepStatus is the derived state of a single step within an execution. It is
// never stored; it is computed from the step history.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
)

// WorkflowExecution is the live, per-service-order instance of a template. One
// active execution exists per service order; the execution advances
// monotonically through the template's steps until the final step completes.
type WorkflowExecution struct {
	ID                 string             `json:"id"`
	ServiceOrderID     string             `json:"service_order_id"`
	WorkflowTemplateID string             `json:"workflow_template_id"`
	CurrentStepID      string             `json:"current_step_id"`
	Status             ExecutionStatus    `json:"status"`
	StartedAt          time.Time          `json:"started_at"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
	StepHistory        []StepHistoryEntry `json:"step_history"`
}

// StepHistoryEntry is an append-only record of one step's start and completion
// within an execution.
type StepHistoryEntry struct {
	StepID      string         `json:"step_id"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CompletedBy string         `json:"completed_by,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	FormData    map[string]any `json:"form_data,omitempty"`
}

// HistoryFor returns the most recent history entry for the given step, or nil
// when the step has not been started.
func (e *WorkflowExecution) HistoryFor(stepID string) *StepHistoryEntry {
	for i := len(e.StepHistory) - 1; i >= 0; i-- {
		if e.StepHistory[i].StepID == stepID {
			return &e.StepHistory[i]
		}
	}

	return nil
}

// StepStatusOf derives a step's status from the execution's history: absent
// means pending, started-but-not-completed means active, completed means
// completed.
func (e *WorkflowExecution) StepStatusOf(stepID string) StepStatus {
	entry := e.HistoryFor(stepID)
	if entry == nil {
		return StepStatusPending
	}

	if entry.CompletedAt != nil {
		return StepStatusCompleted
	}

	return StepStatusActive
}

// Package models defines the core domain models for service-order workflow tracking.
package models

import (
	"sort"
	"time"
)

// WorkflowTemplate is a reusable, ordered definition of service steps for one
// kind of service order (maintenance, installation, repair, ...). Templates are
// reference data: executions point at them but never mutate them.
type WorkflowTemplate struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"                      validate:"required,min=3"`
	Description   string          `json:"description,omitempty"`
	ServiceType   string          `json:"service_type,omitempty"`
	DefaultStepID string          `json:"default_step_id,omitempty"`
	Steps         []*WorkflowStep `json:"steps"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
}

// WorkflowStep is a single step within a template. Order defines the display
// and advancement sequence; ties are broken by ID so the sequence is total.
type WorkflowStep struct {
	ID          string         `json:"id"          validate:"required"`
	Name        string         `json:"name"        validate:"required"`
	Description string         `json:"description,omitempty"`
	Order       int            `json:"order"       validate:"required,min=1"`
	FormSchema  map[string]any `json:"form_schema,omitempty"`
}

// SortedSteps returns the template's steps ordered by (Order, ID). This order
// is authoritative for next-step computation.
func (t *WorkflowTemplate) SortedSteps() []*WorkflowStep {
	steps := make([]*WorkflowStep, len(t.Steps))
	copy(steps, t.Steps)

	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].Order != steps[j].Order {
			return steps[i].Order < steps[j].Order
		}

		return steps[i].ID < steps[j].ID
	})

	return steps
}

// StepByID returns the step with the given ID, or nil when the template has no
// such step.
func (t *WorkflowTemplate) StepByID(id string) *WorkflowStep {
	for _, step := range t.Steps {
		if step.ID == id {
			return step
		}
	}

	return nil
}

// StartingStep resolves the step a new execution begins on: the default step
// when it is set and still exists, otherwise the first step in sorted order.
// Returns nil for templates with no steps.
func (t *WorkflowTemplate) StartingStep() *WorkflowStep {
	if t.DefaultStepID != "" {
		if step := t.StepByID(t.DefaultStepID); step != nil {
			return step
		}
	}

	sorted := t.SortedSteps()
	if len(sorted) == 0 {
		return nil
	}

	return sorted[0]
}

// StepOrdinal returns the 1-based position of the given step in sorted order,
// or 0 when the step is not part of the template.
func (t *WorkflowTemplate) StepOrdinal(stepID string) int {
	for i, step := range t.SortedSteps() {
		if step.ID == stepID {
			return i + 1
		}
	}

	return 0
}

// Package web provides the HTTP handlers and request/response types for the
// workflow API.
package web

import (
	"fmt"
	"time"

	"github.com/hvacops/stepflow/pkg/models"
)

// CreateTemplateRequest is the request body for creating a workflow template.
type CreateTemplateRequest struct {
	Name          string               `json:"name"            validate:"required,min=3"`
	Description   string               `json:"description"`
	ServiceType   string               `json:"service_type"`
	DefaultStepID string               `json:"default_step_id"`
	Steps         []CreateStepRequest  `json:"steps"           validate:"required,min=1,dive"`
}

// CreateStepRequest is one step of a template creation request.
type CreateStepRequest struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required"`
	Description string         `json:"description"`
	Order       int            `json:"order"       validate:"required,min=1"`
	FormSchema  map[string]any `json:"form_schema"`
}

// CreateServiceOrderRequest is the request body for creating a service order.
type CreateServiceOrderRequest struct {
	CustomerName string `json:"customer_name" validate:"required"`
	ServiceType  string `json:"service_type"  validate:"required"`
	Description  string `json:"description"`
}

// AssignWorkflowRequest is the request body for assigning a template to a
// service order.
type AssignWorkflowRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
	AssignedBy string `json:"assigned_by"`
}

// AdvanceStepRequest is the request body for completing an execution's
// current step.
type AdvanceStepRequest struct {
	StepID      string         `json:"step_id"      validate:"required"`
	CompletedBy string         `json:"completed_by" validate:"required"`
	Notes       string         `json:"notes"`
	FormData    map[string]any `json:"form_data"`
}

// HistoryEntryResponse is one step-history row with step metadata resolved
// from the template.
type HistoryEntryResponse struct {
	StepID          string         `json:"step_id"`
	StepName        string         `json:"step_name"`
	StepDescription string         `json:"step_description,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CompletedBy     string         `json:"completed_by,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	FormData        map[string]any `json:"form_data,omitempty"`
	Status          string         `json:"status"`
}

// TransformHistory resolves step names for an execution's history. Entries
// whose step no longer exists in the template render with a synthetic
// "Step N" label instead of failing.
func TransformHistory(execution *models.WorkflowExecution, template *models.WorkflowTemplate) []HistoryEntryResponse {
	entries := make([]HistoryEntryResponse, 0, len(execution.StepHistory))

	for i, entry := range execution.StepHistory {
		response := HistoryEntryResponse{
			StepID:      entry.StepID,
			StepName:    fmt.Sprintf("Step %d", i+1),
			StartedAt:   entry.StartedAt,
			CompletedAt: entry.CompletedAt,
			CompletedBy: entry.CompletedBy,
			Notes:       entry.Notes,
			FormData:    entry.FormData,
			Status:      string(models.StepStatusActive),
		}

		if entry.CompletedAt != nil {
			response.Status = string(models.StepStatusCompleted)
		}

		if template != nil {
			if step := template.StepByID(entry.StepID); step != nil {
				response.StepName = step.Name
				response.StepDescription = step.Description
			}
		}

		entries = append(entries, response)
	}

	return entries
}

func (r *CreateTemplateRequest) toModel() *models.WorkflowTemplate {
	steps := make([]*models.WorkflowStep, 0, len(r.Steps))

	for _, step := range r.Steps {
		steps = append(steps, &models.WorkflowStep{
			ID:          step.ID,
			Name:        step.Name,
			Description: step.Description,
			Order:       step.Order,
			FormSchema:  step.FormSchema,
		})
	}

	return &models.WorkflowTemplate{
		Name:          r.Name,
		Description:   r.Description,
		ServiceType:   r.ServiceType,
		DefaultStepID: r.DefaultStepID,
		Steps:         steps,
	}
}

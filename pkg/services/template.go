package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence"
)

// ErrTemplateNotFound is returned when a template is not found.
var ErrTemplateNotFound = persistence.ErrTemplateNotFound

// Template is the service for workflow template reference data.
type Template struct {
	persistence persistence.Persistence
}

// NewTemplate creates a new template service.
func NewTemplate(persistence persistence.Persistence) *Template {
	return &Template{persistence: persistence}
}

// HealthCheck checks the health of the persistence layer.
func (s *Template) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListTemplatesRequest contains options for listing templates.
type ListTemplatesRequest struct {
	ServiceType  string
	IncludeSteps bool
}

// List retrieves templates, optionally filtered by service type. General
// templates (no service type) are always included.
func (s *Template) List(ctx context.Context, req ListTemplatesRequest) ([]*models.WorkflowTemplate, error) {
	templates, err := s.persistence.TemplateRepository().List(ctx, persistence.TemplateListOptions{
		ServiceType:  req.ServiceType,
		IncludeSteps: req.IncludeSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	return templates, nil
}

// FetchByID retrieves a template by its ID.
func (s *Template) FetchByID(ctx context.Context, id string, includeSteps bool) (*models.WorkflowTemplate, error) {
	template, err := s.persistence.TemplateRepository().GetByID(ctx, id, includeSteps)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, ErrTemplateNotFound
	}

	return template, nil
}

// Create validates and stores a new template. Step IDs default to fresh UUIDs
// when omitted.
func (s *Template) Create(ctx context.Context, template *models.WorkflowTemplate) (*models.WorkflowTemplate, error) {
	for _, step := range template.Steps {
		if step.ID == "" {
			step.ID = uuid.New().String()
		}
	}

	if err := validateTemplate(template); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	template.ID = uuid.New().String()
	template.CreatedAt = now
	template.UpdatedAt = now

	err := s.persistence.TemplateRepository().Save(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	return template, nil
}

// Delete soft deletes a template. Existing executions keep referencing it.
func (s *Template) Delete(ctx context.Context, id string) error {
	existing, err := s.persistence.TemplateRepository().GetByID(ctx, id, false)
	if err != nil {
		return err
	}

	if existing == nil {
		return ErrTemplateNotFound
	}

	err = s.persistence.TemplateRepository().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

func validateTemplate(template *models.WorkflowTemplate) error {
	if template.Name == "" {
		return NewValidationError("Create", "TEMPLATE_NAME_MISSING",
			"workflow template name is required", ErrTemplateNameMissing)
	}

	if len(template.Steps) == 0 {
		return NewValidationError("Create", "TEMPLATE_HAS_NO_STEPS",
			"workflow template must define at least one step", ErrTemplateHasNoSteps)
	}

	seen := make(map[string]struct{}, len(template.Steps))

	for _, step := range template.Steps {
		if step.Order < 1 {
			return NewValidationError("Create", "INVALID_STEP_ORDER",
				fmt.Sprintf("step %q has non-positive order %d", step.ID, step.Order), ErrInvalidStepOrder)
		}

		if _, dup := seen[step.ID]; dup {
			return NewValidationError("Create", "DUPLICATE_STEP_ID",
				fmt.Sprintf("step id %q appears more than once", step.ID), ErrDuplicateStepID)
		}

		seen[step.ID] = struct{}{}
	}

	if template.DefaultStepID != "" {
		if _, ok := seen[template.DefaultStepID]; !ok {
			return NewValidationError("Create", "UNKNOWN_DEFAULT_STEP",
				fmt.Sprintf("default step id %q does not match any step", template.DefaultStepID), ErrUnknownDefaultStep)
		}
	}

	return nil
}

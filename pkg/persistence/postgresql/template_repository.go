package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence"
)

// TemplateRepository handles workflow template database operations. Steps are
// stored as a JSONB document on the template row; templates are immutable
// reference data and are always read whole.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

func (r *TemplateRepository) List(ctx context.Context, opts persistence.TemplateListOptions) ([]*models.WorkflowTemplate, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , service_type
		  , default_step_id
		  , steps
		  , created_at
		  , updated_at
		FROM workflow_templates
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR service_type = '' OR service_type = $1)
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, opts.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	templates := make([]*models.WorkflowTemplate, 0)

	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}

		if !opts.IncludeSteps {
			template.Steps = nil
		}

		templates = append(templates, template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string, includeSteps bool) (*models.WorkflowTemplate, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , service_type
		  , default_step_id
		  , steps
		  , created_at
		  , updated_at
		FROM workflow_templates
		WHERE id = $1 AND deleted_at IS NULL
	`

	template, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan template: %w", err)
	}

	if !includeSteps {
		template.Steps = nil
	}

	return template, nil
}

func (r *TemplateRepository) Save(ctx context.Context, template *models.WorkflowTemplate) error {
	now := time.Now().UTC()

	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	template.UpdatedAt = now

	if template.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate template ID: %w", err)
		}

		template.ID = id.String()
	}

	stepsJSON, err := json.Marshal(template.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	query := `
		INSERT INTO workflow_templates
			(id, name, description, service_type, default_step_id, steps, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			service_type = EXCLUDED.service_type,
			default_step_id = EXCLUDED.default_step_id,
			steps = EXCLUDED.steps,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = r.db.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.Description,
		template.ServiceType,
		template.DefaultStepID,
		stepsJSON,
		template.CreatedAt,
		template.UpdatedAt,
		template.DeletedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", template.ID, err)
	}

	return nil
}

// Delete soft deletes a template by setting deleted_at.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workflow_templates SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return persistence.NewStoreError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", id, persistence.ErrTemplateNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*models.WorkflowTemplate, error) {
	var (
		template      models.WorkflowTemplate
		description   sql.NullString
		serviceType   sql.NullString
		defaultStepID sql.NullString
		stepsJSON     []byte
	)

	err := row.Scan(
		&template.ID,
		&template.Name,
		&description,
		&serviceType,
		&defaultStepID,
		&stepsJSON,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	template.Description = description.String
	template.ServiceType = serviceType.String
	template.DefaultStepID = defaultStepID.String

	if len(stepsJSON) > 0 {
		if err := json.Unmarshal(stepsJSON, &template.Steps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
		}
	}

	return &template, nil
}

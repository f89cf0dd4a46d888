package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence"
)

// ExecutionRepository handles workflow execution database operations. The step
// history is stored as a JSONB document; a partial unique index guarantees at
// most one active execution per service order.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , service_order_id
  , workflow_template_id
  , current_step_id
  , status
  , started_at
  , completed_at
  , step_history
`

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := "SELECT " + executionColumns + " FROM workflow_executions WHERE id = $1"

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

func (r *ExecutionRepository) GetByServiceOrder(ctx context.Context, serviceOrderID string) (*models.WorkflowExecution, error) {
	// The active execution wins; otherwise the most recently started one.
	query := "SELECT " + executionColumns + `
		FROM workflow_executions
		WHERE service_order_id = $1
		ORDER BY (status = 'active') DESC, started_at DESC
		LIMIT 1
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, serviceOrderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

func (r *ExecutionRepository) ListActive(ctx context.Context) ([]*models.WorkflowExecution, error) {
	query := "SELECT " + executionColumns + `
		FROM workflow_executions
		WHERE status = 'active'
		ORDER BY started_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	if execution.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate execution ID: %w", err)
		}

		execution.ID = id.String()
	}

	historyJSON, err := json.Marshal(execution.StepHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal step history: %w", err)
	}

	query := `
		INSERT INTO workflow_executions
			(id, service_order_id, workflow_template_id, current_step_id, status, started_at, completed_at, step_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			current_step_id = EXCLUDED.current_step_id,
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			step_history = EXCLUDED.step_history
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.ServiceOrderID,
		execution.WorkflowTemplateID,
		execution.CurrentStepID,
		execution.Status,
		execution.StartedAt,
		execution.CompletedAt,
		historyJSON,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewStoreError("Save", execution.ID, persistence.ErrExecutionExists)
		}

		return persistence.NewStoreError("Save", execution.ID, err)
	}

	return nil
}

// isUniqueViolation reports whether err is the unique-index violation raised
// when a second active execution is inserted for the same service order.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return false
}

func scanExecution(row rowScanner) (*models.WorkflowExecution, error) {
	var (
		execution   models.WorkflowExecution
		historyJSON []byte
	)

	err := row.Scan(
		&execution.ID,
		&execution.ServiceOrderID,
		&execution.WorkflowTemplateID,
		&execution.CurrentStepID,
		&execution.Status,
		&execution.StartedAt,
		&execution.CompletedAt,
		&historyJSON,
	)
	if err != nil {
		return nil, err
	}

	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &execution.StepHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal step history: %w", err)
		}
	}

	return &execution, nil
}

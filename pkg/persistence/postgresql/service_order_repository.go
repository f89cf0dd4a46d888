package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence"
)

// ServiceOrderRepository handles service order database operations.
type ServiceOrderRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewServiceOrderRepository creates a new service order repository.
func NewServiceOrderRepository(db *sql.DB, logger *slog.Logger) *ServiceOrderRepository {
	return &ServiceOrderRepository{db: db, logger: logger}
}

const serviceOrderColumns = `
	id
  , customer_name
  , service_type
  , description
  , status
  , workflow_id
  , current_step
  , created_at
  , updated_at
`

func (r *ServiceOrderRepository) List(ctx context.Context) ([]*models.ServiceOrder, error) {
	query := "SELECT " + serviceOrderColumns + " FROM service_orders ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query service orders: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	orders := make([]*models.ServiceOrder, 0)

	for rows.Next() {
		order, err := scanServiceOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service order: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service orders: %w", err)
	}

	return orders, nil
}

func (r *ServiceOrderRepository) GetByID(ctx context.Context, id string) (*models.ServiceOrder, error) {
	query := "SELECT " + serviceOrderColumns + " FROM service_orders WHERE id = $1"

	order, err := scanServiceOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan service order: %w", err)
	}

	return order, nil
}

func (r *ServiceOrderRepository) Save(ctx context.Context, order *models.ServiceOrder) error {
	now := time.Now().UTC()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}

	order.UpdatedAt = now

	if order.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate service order ID: %w", err)
		}

		order.ID = id.String()
	}

	var workflowID any
	if order.WorkflowID != "" {
		workflowID = order.WorkflowID
	}

	query := `
		INSERT INTO service_orders
			(id, customer_name, service_type, description, status, workflow_id, current_step, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			customer_name = EXCLUDED.customer_name,
			service_type = EXCLUDED.service_type,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			workflow_id = EXCLUDED.workflow_id,
			current_step = EXCLUDED.current_step,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.CustomerName,
		order.ServiceType,
		order.Description,
		order.Status,
		workflowID,
		order.CurrentStep,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", order.ID, err)
	}

	return nil
}

func scanServiceOrder(row rowScanner) (*models.ServiceOrder, error) {
	var (
		order       models.ServiceOrder
		description sql.NullString
		workflowID  sql.NullString
	)

	err := row.Scan(
		&order.ID,
		&order.CustomerName,
		&order.ServiceType,
		&description,
		&order.Status,
		&workflowID,
		&order.CurrentStep,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.Description = description.String
	order.WorkflowID = workflowID.String

	return &order, nil
}

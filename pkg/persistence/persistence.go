// Package persistence provides the data storage abstraction for workflow
// templates, executions, and service orders.
package persistence

import (
	"context"

	"github.com/hvacops/stepflow/pkg/models"
)

// TemplateListOptions filters template listings.
type TemplateListOptions struct {
	// ServiceType limits results to templates for one service type. Templates
	// with an empty service type are general-purpose and always included.
	ServiceType string

	// IncludeSteps controls whether step definitions are loaded.
	IncludeSteps bool
}

// TemplateRepository stores workflow templates.
type TemplateRepository interface {
	List(ctx context.Context, opts TemplateListOptions) ([]*models.WorkflowTemplate, error)
	GetByID(ctx context.Context, id string, includeSteps bool) (*models.WorkflowTemplate, error)
	Save(ctx context.Context, template *models.WorkflowTemplate) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores workflow executions. GetByServiceOrder returns
// (nil, nil) when the order has no execution.
type ExecutionRepository interface {
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	GetByServiceOrder(ctx context.Context, serviceOrderID string) (*models.WorkflowExecution, error)
	ListActive(ctx context.Context) ([]*models.WorkflowExecution, error)
	Save(ctx context.Context, execution *models.WorkflowExecution) error
}

// ServiceOrderRepository stores service orders.
type ServiceOrderRepository interface {
	List(ctx context.Context) ([]*models.ServiceOrder, error)
	GetByID(ctx context.Context, id string) (*models.ServiceOrder, error)
	Save(ctx context.Context, order *models.ServiceOrder) error
}

// Persistence aggregates the repositories behind one backing store.
type Persistence interface {
	TemplateRepository() TemplateRepository
	ExecutionRepository() ExecutionRepository
	ServiceOrderRepository() ServiceOrderRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

package models

import "time"

// ServiceOrderStatus represents the lifecycle state of a service order.
type ServiceOrderStatus string

const (
	ServiceOrderStatusOpen       ServiceOrderStatus = "open"
	ServiceOrderStatusInProgress ServiceOrderStatus = "in_progress"
	ServiceOrderStatusCompleted  ServiceOrderStatus = "completed"
)

// ServiceOrder is a unit of field work for a customer. WorkflowID and
// CurrentStep are denormalized from the order's execution: CurrentStep is the
// 1-based ordinal of the execution's current step in the template's sorted
// order, kept for list views that must not load the execution.
type ServiceOrder struct {
	ID           string             `json:"id"`
	CustomerName string             `json:"customer_name" validate:"required"`
	ServiceType  string             `json:"service_type"  validate:"required"`
	Description  string             `json:"description,omitempty"`
	Status       ServiceOrderStatus `json:"status"`
	WorkflowID   string             `json:"workflow_id,omitempty"`
	CurrentStep  int                `json:"current_step,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

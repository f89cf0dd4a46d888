// Package notify builds operator-facing notifications from workflow events
// and suppresses repeats of reminder notifications.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hvacops/stepflow/pkg/events"
)

// Notification is one operator-facing message about a service order.
type Notification struct {
	Kind           string    `json:"kind"`
	ServiceOrderID string    `json:"service_order_id"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromAssigned renders a notification for a workflow assignment.
func FromAssigned(event *events.WorkflowAssigned) Notification {
	return Notification{
		Kind:           "workflow_assigned",
		ServiceOrderID: event.ServiceOrderID,
		Message:        fmt.Sprintf("Workflow %q assigned, starting on step %s", event.TemplateName, event.StartStepID),
		CreatedAt:      event.Timestamp,
	}
}

// FromStepAdvanced renders a notification for a completed step.
func FromStepAdvanced(event *events.WorkflowStepAdvanced) Notification {
	return Notification{
		Kind:           "step_advanced",
		ServiceOrderID: event.ServiceOrderID,
		Message: fmt.Sprintf("Step %s completed by %s, now on %s (%d%%)",
			event.CompletedStepID, event.CompletedBy, event.NextStepID, event.Percent),
		CreatedAt: event.Timestamp,
	}
}

// FromCompleted renders a notification for a finished workflow.
func FromCompleted(event *events.WorkflowCompleted) Notification {
	return Notification{
		Kind:           "workflow_completed",
		ServiceOrderID: event.ServiceOrderID,
		Message:        fmt.Sprintf("Workflow finished after %s", event.Duration.Round(time.Second)),
		CreatedAt:      event.Timestamp,
	}
}

// StaleStep renders a reminder for an execution stuck on one step.
func StaleStep(serviceOrderID, stepID string, since time.Duration) Notification {
	return Notification{
		Kind:           "stale_step",
		ServiceOrderID: serviceOrderID,
		Message:        fmt.Sprintf("Step %s has been open for %s", stepID, since.Round(time.Hour)),
		CreatedAt:      time.Now().UTC(),
	}
}

// Deduper suppresses repeated reminders. MarkOnce returns true exactly once
// per key within the TTL window.
type Deduper interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Close() error
}

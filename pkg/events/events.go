// Package events defines event types for workflow lifecycle notifications.
package events

import "time"

type EventType string

// Topic is the event bus topic all workflow events are published on.
const Topic = "stepflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// WorkflowAssignedEvent fires when a template is assigned to a service order.
	WorkflowAssignedEvent EventType = "workflow.assigned"

	// WorkflowStepAdvancedEvent fires when an execution completes a step and
	// moves to the next one.
	WorkflowStepAdvancedEvent EventType = "workflow.step.advanced"

	// WorkflowCompletedEvent fires when an execution's final step completes.
	WorkflowCompletedEvent EventType = "workflow.completed"
)

type BaseEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	ServiceOrderID string    `json:"service_order_id"`
	ExecutionID    string    `json:"execution_id"`
}

// WorkflowAssigned is published after an execution record is created.
type WorkflowAssigned struct {
	BaseEvent

	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name"`
	StartStepID  string `json:"start_step_id"`
	AssignedBy   string `json:"assigned_by,omitempty"`
}

func (e WorkflowAssigned) GetType() EventType {
	return WorkflowAssignedEvent
}

// WorkflowStepAdvanced is published after a non-final step completes.
type WorkflowStepAdvanced struct {
	BaseEvent

	CompletedStepID string `json:"completed_step_id"`
	NextStepID      string `json:"next_step_id"`
	CompletedBy     string `json:"completed_by,omitempty"`
	Percent         int    `json:"percent"`
}

func (e WorkflowStepAdvanced) GetType() EventType {
	return WorkflowStepAdvancedEvent
}

// WorkflowCompleted is published after the final step completes.
type WorkflowCompleted struct {
	BaseEvent

	TemplateID  string        `json:"template_id"`
	CompletedBy string        `json:"completed_by,omitempty"`
	Duration    time.Duration `json:"duration"`
}

func (e WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hvacops/stepflow/pkg/eventbus"
	"github.com/hvacops/stepflow/pkg/events"
	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/otelhelper"
	"github.com/hvacops/stepflow/pkg/persistence"
	"github.com/hvacops/stepflow/pkg/workflow"
)

var (
	// ErrExecutionNotFound is returned when an execution is not found.
	ErrExecutionNotFound = persistence.ErrExecutionNotFound

	// ErrWorkflowNotAssigned is returned when a service order has neither an
	// execution nor an assigned template.
	ErrWorkflowNotAssigned = errors.New("service order has no workflow assigned")
)

// Execution is the service for workflow executions: assignment, advancement,
// and progress reads.
type Execution struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
	inflight    *inflightGuard
}

// NewExecution creates a new execution service.
func NewExecution(persistence persistence.Persistence, eventBus eventbus.EventPublisher, logger *slog.Logger) *Execution {
	return &Execution{
		persistence: persistence,
		eventBus:    eventBus,
		logger:      logger,
		tracer:      noop.NewTracerProvider().Tracer("stepflow"),
		inflight:    newInflightGuard(),
	}
}

// WithTracer sets the tracer used for assignment and advance spans.
func (s *Execution) WithTracer(tracer trace.Tracer) *Execution {
	s.tracer = tracer

	return s
}

// FetchByServiceOrder returns the order's execution, or nil when no workflow
// has been assigned yet.
func (s *Execution) FetchByServiceOrder(ctx context.Context, serviceOrderID string) (*models.WorkflowExecution, error) {
	execution, err := s.persistence.ExecutionRepository().GetByServiceOrder(ctx, serviceOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load execution for service order %s: %w", serviceOrderID, err)
	}

	return execution, nil
}

// AssignRequest describes a template assignment to a service order.
type AssignRequest struct {
	ServiceOrderID string
	TemplateID     string
	AssignedBy     string
}

// Assign creates the execution for a service order: the starting step becomes
// active with a single open history entry, and the order's denormalized
// workflow fields are updated. Templates without steps are refused before any
// record is written. A second assignment for the same order is a conflict.
func (s *Execution) Assign(ctx context.Context, req AssignRequest) (*models.WorkflowExecution, error) {
	ctx, span := s.tracer.Start(ctx, "execution.assign", trace.WithAttributes(
		attribute.String(otelhelper.ServiceOrderIDKey, req.ServiceOrderID),
		attribute.String(otelhelper.TemplateIDKey, req.TemplateID),
	))
	defer span.End()

	execution, err := s.assign(ctx, req)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return execution, err
}

func (s *Execution) assign(ctx context.Context, req AssignRequest) (*models.WorkflowExecution, error) {
	// The existence check below and the Save are not atomic, so overlapping
	// assignments for the same order must be serialized here.
	key := "assign:" + req.ServiceOrderID
	if !s.inflight.acquire(key) {
		return nil, ErrAssignInProgress
	}
	defer s.inflight.release(key)

	order, err := s.persistence.ServiceOrderRepository().GetByID(ctx, req.ServiceOrderID)
	if err != nil {
		return nil, err
	}

	if order == nil {
		return nil, ErrServiceOrderNotFound
	}

	template, err := s.persistence.TemplateRepository().GetByID(ctx, req.TemplateID, true)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, ErrTemplateNotFound
	}

	start := template.StartingStep()
	if start == nil {
		return nil, NewValidationError("Assign", "TEMPLATE_HAS_NO_STEPS",
			fmt.Sprintf("template %s has no steps", template.ID), ErrTemplateHasNoSteps)
	}

	existing, err := s.persistence.ExecutionRepository().GetByServiceOrder(ctx, req.ServiceOrderID)
	if err != nil {
		return nil, err
	}

	if existing != nil && existing.Status == models.ExecutionStatusActive {
		if existing.WorkflowTemplateID == req.TemplateID {
			return nil, ErrTemplateAssigned
		}

		return nil, ErrExecutionExists
	}

	now := time.Now().UTC()
	execution := &models.WorkflowExecution{
		ID:                 uuid.New().String(),
		ServiceOrderID:     order.ID,
		WorkflowTemplateID: template.ID,
		CurrentStepID:      start.ID,
		Status:             models.ExecutionStatusActive,
		StartedAt:          now,
		StepHistory: []models.StepHistoryEntry{
			{StepID: start.ID, StartedAt: now},
		},
	}

	if err := s.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		if persistence.IsExecutionExists(err) {
			return nil, ErrExecutionExists
		}

		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	order.WorkflowID = template.ID
	order.CurrentStep = template.StepOrdinal(start.ID)
	order.Status = models.ServiceOrderStatusInProgress

	if err := s.persistence.ServiceOrderRepository().Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update service order: %w", err)
	}

	s.publish(ctx, order.ID, events.WorkflowAssigned{
		BaseEvent: events.BaseEvent{
			Type:           events.WorkflowAssignedEvent,
			Timestamp:      now,
			ServiceOrderID: order.ID,
			ExecutionID:    execution.ID,
		},
		TemplateID:   template.ID,
		TemplateName: template.Name,
		StartStepID:  start.ID,
		AssignedBy:   req.AssignedBy,
	})

	return execution, nil
}

// AdvanceRequest describes completing an execution's current step.
type AdvanceRequest struct {
	ExecutionID string
	StepID      string
	CompletedBy string
	Notes       string
	FormData    map[string]any
}

// Advance completes the execution's current step. The submitted step must be
// the current one, so replayed or raced requests fail as conflicts instead of
// skipping steps. On a non-final step the next step in sorted order becomes
// active; on the final step the execution completes. Only one Advance may be
// in flight per execution.
func (s *Execution) Advance(ctx context.Context, req AdvanceRequest) (*models.WorkflowExecution, error) {
	ctx, span := s.tracer.Start(ctx, "execution.advance", trace.WithAttributes(
		attribute.String(otelhelper.ExecutionIDKey, req.ExecutionID),
		attribute.String(otelhelper.StepIDKey, req.StepID),
	))
	defer span.End()

	execution, err := s.advance(ctx, req)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return execution, err
}

func (s *Execution) advance(ctx context.Context, req AdvanceRequest) (*models.WorkflowExecution, error) {
	key := "advance:" + req.ExecutionID
	if !s.inflight.acquire(key) {
		return nil, ErrAdvanceInProgress
	}
	defer s.inflight.release(key)

	execution, err := s.persistence.ExecutionRepository().GetByID(ctx, req.ExecutionID)
	if err != nil {
		return nil, err
	}

	if execution == nil {
		return nil, ErrExecutionNotFound
	}

	if execution.Status == models.ExecutionStatusCompleted {
		return nil, ErrExecutionCompleted
	}

	if req.StepID != execution.CurrentStepID {
		return nil, ErrStepNotCurrent
	}

	template, err := s.persistence.TemplateRepository().GetByID(ctx, execution.WorkflowTemplateID, true)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, ErrTemplateNotFound
	}

	step := template.StepByID(req.StepID)
	if step != nil && step.FormSchema != nil {
		if err := validateFormData(step.FormSchema, req.FormData); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()

	entry := execution.HistoryFor(req.StepID)
	if entry == nil {
		// Current step without a history entry should not happen; repair by
		// recording the start now.
		execution.StepHistory = append(execution.StepHistory, models.StepHistoryEntry{
			StepID:    req.StepID,
			StartedAt: now,
		})
		entry = &execution.StepHistory[len(execution.StepHistory)-1]
	}

	entry.CompletedAt = &now
	entry.CompletedBy = req.CompletedBy
	entry.Notes = req.Notes
	entry.FormData = req.FormData

	next := workflow.NextStep(template, req.StepID)
	isFinal := next == nil

	if isFinal {
		execution.Status = models.ExecutionStatusCompleted
		execution.CompletedAt = &now
	} else {
		execution.CurrentStepID = next.ID
		execution.StepHistory = append(execution.StepHistory, models.StepHistoryEntry{
			StepID:    next.ID,
			StartedAt: now,
		})
	}

	if err := s.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to save execution: %w", err)
	}

	if err := s.syncServiceOrder(ctx, execution, template, isFinal); err != nil {
		return nil, err
	}

	if isFinal {
		s.publish(ctx, execution.ServiceOrderID, events.WorkflowCompleted{
			BaseEvent: events.BaseEvent{
				Type:           events.WorkflowCompletedEvent,
				Timestamp:      now,
				ServiceOrderID: execution.ServiceOrderID,
				ExecutionID:    execution.ID,
			},
			TemplateID:  template.ID,
			CompletedBy: req.CompletedBy,
			Duration:    now.Sub(execution.StartedAt),
		})
	} else {
		snapshot := workflow.Snapshot(workflow.NewLiveView(execution, template))

		s.publish(ctx, execution.ServiceOrderID, events.WorkflowStepAdvanced{
			BaseEvent: events.BaseEvent{
				Type:           events.WorkflowStepAdvancedEvent,
				Timestamp:      now,
				ServiceOrderID: execution.ServiceOrderID,
				ExecutionID:    execution.ID,
			},
			CompletedStepID: req.StepID,
			NextStepID:      execution.CurrentStepID,
			CompletedBy:     req.CompletedBy,
			Percent:         snapshot.Percent,
		})
	}

	return execution, nil
}

// ProgressFor resolves the order's workflow into a progress snapshot: live
// when an execution exists, a read-only preview when only a template is
// assigned, and ErrWorkflowNotAssigned otherwise.
func (s *Execution) ProgressFor(ctx context.Context, serviceOrderID string) (*workflow.Progress, error) {
	order, err := s.persistence.ServiceOrderRepository().GetByID(ctx, serviceOrderID)
	if err != nil {
		return nil, err
	}

	if order == nil {
		return nil, ErrServiceOrderNotFound
	}

	execution, err := s.persistence.ExecutionRepository().GetByServiceOrder(ctx, serviceOrderID)
	if err != nil {
		return nil, err
	}

	if execution != nil {
		template, err := s.persistence.TemplateRepository().GetByID(ctx, execution.WorkflowTemplateID, true)
		if err != nil {
			return nil, err
		}

		if template == nil {
			return nil, ErrTemplateNotFound
		}

		return workflow.Snapshot(workflow.NewLiveView(execution, template)), nil
	}

	if order.WorkflowID == "" {
		return nil, ErrWorkflowNotAssigned
	}

	template, err := s.persistence.TemplateRepository().GetByID(ctx, order.WorkflowID, true)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, ErrTemplateNotFound
	}

	return workflow.Snapshot(workflow.NewPreviewView(template)), nil
}

func (s *Execution) syncServiceOrder(ctx context.Context, execution *models.WorkflowExecution, template *models.WorkflowTemplate, isFinal bool) error {
	order, err := s.persistence.ServiceOrderRepository().GetByID(ctx, execution.ServiceOrderID)
	if err != nil {
		return err
	}

	if order == nil {
		return ErrServiceOrderNotFound
	}

	if isFinal {
		order.Status = models.ServiceOrderStatusCompleted
		order.CurrentStep = len(template.SortedSteps())
	} else {
		order.CurrentStep = template.StepOrdinal(execution.CurrentStepID)
	}

	if err := s.persistence.ServiceOrderRepository().Save(ctx, order); err != nil {
		return fmt.Errorf("failed to update service order: %w", err)
	}

	return nil
}

// publish sends an event to the bus. Delivery failures are logged, not
// returned: the mutation has already been committed.
func (s *Execution) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.eventBus == nil {
		return
	}

	if err := s.eventBus.Publish(ctx, key, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}

func validateFormData(schema map[string]any, formData map[string]any) error {
	if formData == nil {
		formData = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(formData))
	if err != nil {
		return NewValidationError("Advance", "INVALID_FORM_SCHEMA", err.Error(), ErrInvalidFormData)
	}

	if !result.Valid() {
		detail := ""
		for _, desc := range result.Errors() {
			if detail != "" {
				detail += "; "
			}

			detail += desc.String()
		}

		return NewValidationError("Advance", "INVALID_FORM_DATA", detail, ErrInvalidFormData)
	}

	return nil
}

// Package main provides the Stepflow notification worker: it turns workflow
// events into operator notifications and reminds about executions stuck on
// one step.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hvacops/stepflow/pkg/eventbus"
	"github.com/hvacops/stepflow/pkg/events"
	"github.com/hvacops/stepflow/pkg/notify"
	"github.com/hvacops/stepflow/pkg/persistence"
)

// Config holds the notifier's tunables.
type Config struct {
	ReminderSchedule string
	StaleAfter       time.Duration
}

type Notifier struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	deduper     notify.Deduper
	config      Config
}

func NewNotifier(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	deduper notify.Deduper,
	config Config,
) *Notifier {
	return &Notifier{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		deduper:     deduper,
		config:      config,
	}
}

// Run subscribes to workflow events and starts the stale-step sweep, then
// blocks until the context is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	if err := n.registerHandlers(); err != nil {
		return err
	}

	if err := n.eventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	scheduler, err := n.scheduler(ctx)
	if err != nil {
		return err
	}

	scheduler.Start()
	defer scheduler.Stop()

	n.logger.InfoContext(ctx, "Notifier running",
		"reminder_schedule", n.config.ReminderSchedule,
		"stale_after", n.config.StaleAfter)

	<-ctx.Done()

	return nil
}

// scheduler builds the cron scheduler for the stale-step sweep.
func (n *Notifier) scheduler(ctx context.Context) (*cron.Cron, error) {
	scheduler := cron.New()

	_, err := scheduler.AddFunc(n.config.ReminderSchedule, func() {
		if err := n.SweepStaleSteps(ctx); err != nil {
			n.logger.ErrorContext(ctx, "Stale-step sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", n.config.ReminderSchedule, err)
	}

	return scheduler, nil
}

func (n *Notifier) registerHandlers() error {
	if err := n.eventBus.Handle(events.WorkflowAssignedEvent, func(ctx context.Context, event any) error {
		assigned, ok := event.(*events.WorkflowAssigned)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		n.deliver(ctx, notify.FromAssigned(assigned))

		return nil
	}); err != nil {
		return err
	}

	if err := n.eventBus.Handle(events.WorkflowStepAdvancedEvent, func(ctx context.Context, event any) error {
		advanced, ok := event.(*events.WorkflowStepAdvanced)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		n.deliver(ctx, notify.FromStepAdvanced(advanced))

		return nil
	}); err != nil {
		return err
	}

	return n.eventBus.Handle(events.WorkflowCompletedEvent, func(ctx context.Context, event any) error {
		completed, ok := event.(*events.WorkflowCompleted)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		n.deliver(ctx, notify.FromCompleted(completed))

		return nil
	})
}

// SweepStaleSteps reminds about active executions whose current step has been
// open longer than the configured threshold. Each execution/step pair is
// reminded at most once per threshold window.
func (n *Notifier) SweepStaleSteps(ctx context.Context) error {
	executions, err := n.persistence.ExecutionRepository().ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active executions: %w", err)
	}

	now := time.Now().UTC()

	for _, execution := range executions {
		entry := execution.HistoryFor(execution.CurrentStepID)
		if entry == nil || entry.CompletedAt != nil {
			continue
		}

		openFor := now.Sub(entry.StartedAt)
		if openFor < n.config.StaleAfter {
			continue
		}

		key := fmt.Sprintf("stale:%s:%s", execution.ID, execution.CurrentStepID)

		first, err := n.deduper.MarkOnce(ctx, key, n.config.StaleAfter)
		if err != nil {
			n.logger.ErrorContext(ctx, "Reminder dedupe failed", "key", key, "error", err)

			continue
		}

		if !first {
			continue
		}

		n.deliver(ctx, notify.StaleStep(execution.ServiceOrderID, execution.CurrentStepID, openFor))
	}

	return nil
}

// deliver emits the notification. Delivery is structured logging for now; a
// mail or chat channel can hang off the same call site.
func (n *Notifier) deliver(ctx context.Context, notification notify.Notification) {
	n.logger.InfoContext(ctx, "Notification",
		"kind", notification.Kind,
		"service_order_id", notification.ServiceOrderID,
		"message", notification.Message,
	)
}

package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/hvacops/stepflow/pkg/cmd"
	"github.com/hvacops/stepflow/pkg/log"
	"github.com/hvacops/stepflow/pkg/notify"
)

func main() {
	logger := log.WithModule("notifier")

	command := &cli.Command{
		Name:                  "stepflow-notifier",
		Usage:                 "Deliver workflow notifications and stale-step reminders",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (postgres:// or a file path)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for reminder deduplication (in-memory when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "reminder-schedule",
				Usage:   "Cron schedule for the stale-step sweep",
				Value:   "0 * * * *",
				Sources: cli.EnvVars("REMINDER_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "stale-after",
				Usage:   "How long a step may stay open before a reminder fires",
				Value:   48 * time.Hour,
				Sources: cli.EnvVars("STALE_AFTER"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Stepflow notifier")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "stepflow-notifier", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var (
				deduper notify.Deduper
				err     error
			)

			if redisURL := command.String("redis-url"); redisURL != "" {
				deduper, err = notify.NewRedisDeduper(ctx, redisURL)
				if err != nil {
					return err
				}
			} else {
				deduper = notify.NewMemoryDeduper()
			}

			defer func() {
				if err := deduper.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close deduper", "error", err)
				}
			}()

			notifier := NewNotifier(logger, persistence, eventBus, deduper, Config{
				ReminderSchedule: command.String("reminder-schedule"),
				StaleAfter:       command.Duration("stale-after"),
			})

			return notifier.Run(ctx)
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

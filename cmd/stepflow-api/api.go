// Package main provides the Stepflow API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/hvacops/stepflow/pkg/eventbus"
	"github.com/hvacops/stepflow/pkg/otelhelper"
	"github.com/hvacops/stepflow/pkg/persistence"
	"github.com/hvacops/stepflow/pkg/services"
	"github.com/hvacops/stepflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App(ctx context.Context) *fiber.App {
	templateService := services.NewTemplate(a.persistence)
	serviceOrderService := services.NewServiceOrder(a.persistence)
	executionService := services.NewExecution(a.persistence, a.eventBus, a.logger)

	if tracer, err := otelhelper.NewTracer(ctx, "stepflow-api"); err == nil {
		executionService = executionService.WithTracer(tracer)
	} else {
		a.logger.WarnContext(ctx, "Tracing disabled", "error", err)
	}

	handlers := web.NewAPIHandlers(templateService, executionService, serviceOrderService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Stepflow API")
	})

	t := app.Group("/templates")
	t.Get("/", handlers.GetTemplates)
	t.Post("/", handlers.CreateTemplate)
	t.Get("/:id", handlers.GetTemplate)
	t.Delete("/:id", handlers.DeleteTemplate)

	o := app.Group("/service-orders")
	o.Get("/", handlers.GetServiceOrders)
	o.Post("/", handlers.CreateServiceOrder)
	o.Get("/:id", handlers.GetServiceOrder)
	o.Get("/:id/execution", handlers.GetExecution)
	o.Post("/:id/workflow", handlers.AssignWorkflow)
	o.Get("/:id/progress", handlers.GetProgress)
	o.Get("/:id/history", handlers.GetHistory)

	e := app.Group("/executions")
	e.Post("/:id/advance", handlers.AdvanceStep)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	app := a.App(ctx)

	return app.Listen(":" + strconv.Itoa(port))
}

package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/hvacops/stepflow/pkg/persistence"
	"github.com/hvacops/stepflow/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		return conflict(c, err.Error())

	case errors.Is(err, services.ErrWorkflowNotAssigned):
		return notFound(c, "workflow_not_assigned", "service order has no workflow assigned")

	case persistence.IsTemplateNotFound(err):
		return notFound(c, "template_not_found", "workflow template not found")

	case persistence.IsExecutionNotFound(err):
		return notFound(c, "execution_not_found", "workflow execution not found")

	case persistence.IsServiceOrderNotFound(err):
		return notFound(c, "service_order_not_found", "service order not found")

	case persistence.IsExecutionExists(err):
		return conflict(c, err.Error())

	default:
		return internalError(c, err)
	}
}

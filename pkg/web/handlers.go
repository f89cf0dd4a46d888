package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/persistence"
	"github.com/hvacops/stepflow/pkg/services"
)

// APIHandlers exposes the workflow operations over HTTP.
type APIHandlers struct {
	templateService     *services.Template
	executionService    *services.Execution
	serviceOrderService *services.ServiceOrder
	validator           *validator.Validate
}

func NewAPIHandlers(
	templateService *services.Template,
	executionService *services.Execution,
	serviceOrderService *services.ServiceOrder,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		templateService:     templateService,
		executionService:    executionService,
		serviceOrderService: serviceOrderService,
		validator:           validator,
	}
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	includeSteps := true

	if includeStepsStr := c.Query("include_steps"); includeStepsStr != "" {
		parsed, err := strconv.ParseBool(includeStepsStr)
		if err != nil {
			return badRequest(c, "Invalid include_steps value: "+includeStepsStr)
		}

		includeSteps = parsed
	}

	templates, err := h.templateService.List(c.Context(), services.ListTemplatesRequest{
		ServiceType:  c.Query("service_type"),
		IncludeSteps: includeSteps,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"templates":   templates,
		"total_count": len(templates),
	})
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	includeSteps := true

	if includeStepsStr := c.Query("include_steps"); includeStepsStr != "" {
		parsed, err := strconv.ParseBool(includeStepsStr)
		if err != nil {
			return badRequest(c, "Invalid include_steps value: "+includeStepsStr)
		}

		includeSteps = parsed
	}

	template, err := h.templateService.FetchByID(c.Context(), id, includeSteps)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) CreateTemplate(c fiber.Ctx) error {
	var req CreateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.templateService.Create(c.Context(), req.toModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	if err := h.templateService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetServiceOrders(c fiber.Ctx) error {
	orders, err := h.serviceOrderService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"service_orders": orders,
		"total_count":    len(orders),
	})
}

func (h *APIHandlers) GetServiceOrder(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Service order ID is required")
	}

	order, err := h.serviceOrderService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(order)
}

func (h *APIHandlers) CreateServiceOrder(c fiber.Ctx) error {
	var req CreateServiceOrderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.serviceOrderService.Create(c.Context(), &models.ServiceOrder{
		CustomerName: req.CustomerName,
		ServiceType:  req.ServiceType,
		Description:  req.Description,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	serviceOrderID := c.Params("id")
	if serviceOrderID == "" {
		return badRequest(c, "Service order ID is required")
	}

	execution, err := h.executionService.FetchByServiceOrder(c.Context(), serviceOrderID)
	if err != nil {
		return handleServiceError(c, err)
	}

	if execution == nil {
		return notFound(c, "execution_not_found", "service order has no workflow execution")
	}

	return c.JSON(execution)
}

func (h *APIHandlers) AssignWorkflow(c fiber.Ctx) error {
	serviceOrderID := c.Params("id")
	if serviceOrderID == "" {
		return badRequest(c, "Service order ID is required")
	}

	var req AssignWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.executionService.Assign(c.Context(), services.AssignRequest{
		ServiceOrderID: serviceOrderID,
		TemplateID:     req.TemplateID,
		AssignedBy:     req.AssignedBy,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(execution)
}

func (h *APIHandlers) GetProgress(c fiber.Ctx) error {
	serviceOrderID := c.Params("id")
	if serviceOrderID == "" {
		return badRequest(c, "Service order ID is required")
	}

	progress, err := h.executionService.ProgressFor(c.Context(), serviceOrderID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(progress)
}

func (h *APIHandlers) GetHistory(c fiber.Ctx) error {
	serviceOrderID := c.Params("id")
	if serviceOrderID == "" {
		return badRequest(c, "Service order ID is required")
	}

	execution, err := h.executionService.FetchByServiceOrder(c.Context(), serviceOrderID)
	if err != nil {
		return handleServiceError(c, err)
	}

	if execution == nil {
		return notFound(c, "execution_not_found", "service order has no workflow execution")
	}

	// Best effort: a deleted template still yields history with synthetic
	// step labels.
	template, err := h.templateService.FetchByID(c.Context(), execution.WorkflowTemplateID, true)
	if err != nil && !persistence.IsTemplateNotFound(err) {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"execution_id": execution.ID,
		"entries":      TransformHistory(execution, template),
	})
}

func (h *APIHandlers) AdvanceStep(c fiber.Ctx) error {
	executionID := c.Params("id")
	if executionID == "" {
		return badRequest(c, "Execution ID is required")
	}

	var req AdvanceStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.executionService.Advance(c.Context(), services.AdvanceRequest{
		ExecutionID: executionID,
		StepID:      req.StepID,
		CompletedBy: req.CompletedBy,
		Notes:       req.Notes,
		FormData:    req.FormData,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.templateService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Stepflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Stepflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

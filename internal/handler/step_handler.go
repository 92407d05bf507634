package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/service"
	"github.com/noah-isme/portfolio-go-api/internal/utils"
)

// StepHandler exposes step validity and navigation.
type StepHandler struct {
	service service.StepService
	logger  zerolog.Logger
}

// NewStepHandler constructs a step handler.
func NewStepHandler(service service.StepService, logger zerolog.Logger) *StepHandler {
	return &StepHandler{
		service: service,
		logger:  logger.With().Str("component", "step_handler").Logger(),
	}
}

// Register wires step routes below /assignments.
func (h *StepHandler) Register(router fiber.Router) {
	router.Get("/:id/steps", h.evaluate)
	router.Post("/:id/steps/navigate", h.navigate)
}

func (h *StepHandler) evaluate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	steps, err := h.service.Evaluate(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "steps retrieved", steps)
}

func (h *StepHandler) navigate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.NavigateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	decision, err := h.service.Navigate(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	message := "navigation allowed"
	if !decision.Allowed {
		message = "navigation blocked"
	}
	return utils.SendSuccess(c, message, decision)
}

package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/service"
	"github.com/noah-isme/portfolio-go-api/internal/utils"
)

// PortfolioHandler serves the public portfolio page of a student.
type PortfolioHandler struct {
	service service.PortfolioService
	logger  zerolog.Logger
}

// NewPortfolioHandler creates a new handler instance.
func NewPortfolioHandler(service service.PortfolioService, logger zerolog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		service: service,
		logger:  logger.With().Str("component", "portfolio_handler").Logger(),
	}
}

// Register attaches the public portfolio endpoint. The owner is addressed
// by numeric id or by slug.
func (h *PortfolioHandler) Register(router fiber.Router) {
	router.Get("/portfolios/:student", h.get)
}

func (h *PortfolioHandler) get(c *fiber.Ctx) error {
	owner := strings.TrimSpace(c.Params("student"))
	if owner == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "student is required")
	}

	var (
		portfolio dto.PortfolioResponse
		err       error
	)
	if studentID, parseErr := strconv.ParseUint(owner, 10, 64); parseErr == nil {
		if studentID == 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
		}
		portfolio, err = h.service.Get(requestContext(c), uint(studentID))
	} else {
		portfolio, err = h.service.GetBySlug(requestContext(c), owner)
	}
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderCacheControl, "public, max-age=60")
	return utils.SendSuccess(c, "portfolio retrieved", portfolio)
}

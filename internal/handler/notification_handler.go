package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/middleware"
	"github.com/noah-isme/portfolio-go-api/internal/service"
	"github.com/noah-isme/portfolio-go-api/internal/utils"
)

// NotificationHandler lists a user's notifications and marks them read.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	signedIn := middleware.AuthOptions{RequireUser: true}
	router.Get("", middleware.WithAuth(h.list, signedIn))
	router.Patch("/read-all", middleware.WithAuth(h.markAllRead, signedIn))
	router.Patch("/:id/read", middleware.WithAuth(h.markRead, signedIn))
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	userID := userIDStringFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var query dto.NotificationListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	if query.Limit < 0 || query.Offset < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "limit and offset must not be negative")
	}

	notifications, meta, err := h.service.List(requestContext(c), userID, query)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, notifications, "notifications", meta)
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	userID := userIDStringFromContext(c)

	updated, err := h.service.MarkAllRead(requestContext(c), userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "notifications updated", fiber.Map{"updated": updated})
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	userID := userIDStringFromContext(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	notification, err := h.service.MarkRead(requestContext(c), id, userID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "notification updated", notification)
}

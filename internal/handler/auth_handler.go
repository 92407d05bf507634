package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portfolio-go-api/internal/middleware"
	"github.com/noah-isme/portfolio-go-api/internal/session"
	"github.com/noah-isme/portfolio-go-api/internal/utils"
)

// AuthHandler ends sessions resolved by the session store.
type AuthHandler struct {
	store  *session.Store
	logger zerolog.Logger
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(store *session.Store, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		store:  store,
		logger: logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires auth routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/sign-out", middleware.WithAuth(h.signOut, middleware.AuthOptions{RequireUser: true}))
}

func (h *AuthHandler) signOut(c *fiber.Ctx) error {
	token, _ := c.Locals(middleware.LocalToken).(string)
	if token == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
	}

	if err := h.store.SignOut(requestContext(c), token); err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}
		return internalError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "signed out", fiber.Map{"user_id": userIDFromContext(c)})
}

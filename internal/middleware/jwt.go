package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/portfolio-go-api/internal/session"
	"github.com/noah-isme/portfolio-go-api/internal/utils"
)

// Locals keys populated by Authenticate.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
	LocalUserName = "user_name"
	LocalToken    = "session_token"
)

// Authenticate resolves the bearer token through the session store.
func Authenticate(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		identity, err := store.Authenticate(c.UserContext(), token)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrRevoked):
				return utils.SendError(c, fiber.StatusUnauthorized, "session has been signed out")
			case errors.Is(err, session.ErrInvalidToken):
				return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
			default:
				return utils.SendError(c, fiber.StatusServiceUnavailable, "authentication unavailable")
			}
		}

		c.Locals(LocalUserID, identity.UserID)
		c.Locals(LocalToken, token)
		if identity.Role != "" {
			c.Locals(LocalUserRole, identity.Role)
		}
		if identity.Name != "" {
			c.Locals(LocalUserName, identity.Name)
		}

		return c.Next()
	}
}

// BearerToken extracts the token of an Authorization: Bearer header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authorization := c.Get("Authorization")
	const bearer = "bearer "
	if len(authorization) <= len(bearer) || !strings.HasPrefix(strings.ToLower(authorization), bearer) {
		return "", false
	}
	token := strings.TrimSpace(authorization[len(bearer):])
	return token, token != ""
}

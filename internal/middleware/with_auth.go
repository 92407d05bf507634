package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/portfolio-go-api/internal/session"
	"github.com/noah-isme/portfolio-go-api/internal/utils"
)

// Audiences accepted by WithAuth.
const (
	AuthRoleAny      = "any"
	AuthRoleStudent  = session.RoleStudent
	AuthRoleReviewer = "reviewer"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth guards a single route. Any role other than AuthRoleAny implies an
// authenticated user; reviewers are teachers and admins.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}
	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		if requireUser && !hasUser(c) {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		current := normalizeRoleValue(c.Locals(LocalUserRole))
		switch role {
		case AuthRoleAny:
		case AuthRoleReviewer:
			if current != session.RoleTeacher && current != session.RoleAdmin {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		default:
			if current != role {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		}

		return handler(c)
	}
}

func hasUser(c *fiber.Ctx) bool {
	switch v := c.Locals(LocalUserID).(type) {
	case uint:
		return v != 0
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return false
	}
}

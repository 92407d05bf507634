package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portfolio-go-api/internal/session"
)

func reviewQueueStatus(t *testing.T, role string) int {
	t.Helper()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != "" {
			c.Locals(LocalUserRole, role)
		}
		return c.Next()
	})
	app.Use(RequireRole(session.RoleTeacher, session.RoleAdmin))
	app.Get("/review/queue", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/review/queue", nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireRoleAdmitsReviewers(t *testing.T) {
	require.Equal(t, fiber.StatusOK, reviewQueueStatus(t, "teacher"))
	require.Equal(t, fiber.StatusOK, reviewQueueStatus(t, " Admin "))
}

func TestRequireRoleRejectsStudentsAndAnonymous(t *testing.T) {
	require.Equal(t, fiber.StatusForbidden, reviewQueueStatus(t, session.RoleStudent))
	require.Equal(t, fiber.StatusUnauthorized, reviewQueueStatus(t, ""))
}

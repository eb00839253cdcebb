package middleware

// roles.go: role-based access control. The site has three roles (admin,
// moderator, user) and the back office is admin only.

import (
	"github.com/gofiber/fiber/v2"

	"github.com/muhammadsaim216/prime-esports/internal/models"
)

// RequireRole returns a middleware that lets through only callers whose
// resolved role is one of roles, and answers 403 otherwise:
//
//	admin := api.Group("/admin", middleware.Auth(v, r), middleware.RequireRole(models.RoleAdmin))
//
// It must run after Auth, which is what stores "userRole" in c.Locals. A
// missing role means Auth did not run, so the request is denied rather than
// defaulted.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals(LocalUserRole).(string)
		if !ok || userRole == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}

		for _, role := range roles {
			if models.Role(userRole) == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient permissions",
		})
	}
}

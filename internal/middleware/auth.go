package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/inkshelf/inkshelf/internal/auth"
)

// JWTAuth validates bearer access tokens and exposes the user id and staff
// flag to downstream handlers via locals.
func JWTAuth(tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		claims, err := tokens.ParseAccess(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals("user_id", claims.Subject)
		c.Locals("is_staff", claims.Staff)
		return c.Next()
	}
}

// StaffOnly rejects requests from non-staff users. Must run after JWTAuth.
func StaffOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		staff, _ := c.Locals("is_staff").(bool)
		if !staff {
			return fiber.NewError(http.StatusForbidden, "staff access required")
		}
		return c.Next()
	}
}

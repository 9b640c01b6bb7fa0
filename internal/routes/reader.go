package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/inkshelf/inkshelf/internal/catalog"
	"github.com/inkshelf/inkshelf/internal/coins"
	"github.com/inkshelf/inkshelf/internal/identity"
)

// RegisterReaderRoutes wires endpoints available to any authenticated user.
func RegisterReaderRoutes(r fiber.Router, books *catalog.Handler, coinHandler *coins.Handler, users identity.Repository) {
	r.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := users.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user_id":    user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"is_staff":   user.IsStaff,
			"is_active":  user.IsActive,
			"created_at": user.CreatedAt,
		})
	})

	r.Get("/me/coins", coinHandler.Me)
	r.Post("/books/:bookId/purchase", coinHandler.Purchase)
	r.Get("/books/:bookId/chapters/:number", books.Chapter)
}

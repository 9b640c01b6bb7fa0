package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inkshelf/inkshelf/internal/catalog"
)

// RegisterCatalogRoutes wires the public storefront endpoints. Only published
// books are visible here; chapter bodies stay behind the reader routes.
func RegisterCatalogRoutes(r fiber.Router, h *catalog.Handler) {
	r.Get("/categories", h.Categories)
	r.Get("/books", h.Search)
	r.Get("/books/:bookId", h.Get)
}

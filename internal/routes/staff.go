package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inkshelf/inkshelf/internal/catalog"
	"github.com/inkshelf/inkshelf/internal/coins"
	"github.com/inkshelf/inkshelf/internal/identity"
)

// RegisterStaffRoutes wires administration endpoints: member management,
// catalog authoring, and coin ledger maintenance.
func RegisterStaffRoutes(r fiber.Router, users *identity.Handler, books *catalog.Handler, coinHandler *coins.Handler) {
	r.Get("/members", users.Members)
	r.Post("/members/import", users.ImportCSV)

	r.Post("/categories", books.CreateCategory)
	r.Post("/books", books.CreateBook)
	r.Put("/books/:bookId", books.UpdateBook)
	r.Post("/books/:bookId/chapters", books.CreateChapter)

	r.Post("/accounts/:accountId/charges", coinHandler.Charge)
	r.Post("/accounts/:accountId/adjustments", coinHandler.Adjust)
	r.Put("/records/:recordId", coinHandler.Edit)
	r.Delete("/records/:recordId", coinHandler.Delete)
}

package coins

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/inkshelf/inkshelf/internal/catalog"
	"github.com/inkshelf/inkshelf/internal/identity"
	"github.com/inkshelf/inkshelf/internal/ledger"
)

// Handler exposes coin ledger HTTP endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a coins HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

type chargeRequest struct {
	Amount int64 `json:"amount" validate:"gte=0"`
}

type adjustRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=ADJUST_PLUS ADJUST_MINUS"`
	Amount int64  `json:"amount" validate:"gte=0"`
}

type editRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=CHARGE USE ADJUST_PLUS ADJUST_MINUS"`
	Amount int64  `json:"amount" validate:"gte=0"`
}

type recordResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	BookID    string    `json:"book_id,omitempty"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func toRecordResponse(r ledger.Record) recordResponse {
	return recordResponse{
		ID:        r.ID,
		AccountID: r.AccountID,
		BookID:    r.BookID,
		Kind:      string(r.Kind),
		Amount:    r.Amount,
		CreatedAt: r.CreatedAt,
	}
}

// Charge credits coins onto a member account. Staff only.
func (h *Handler) Charge(c *fiber.Ctx) error {
	var req chargeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	record, err := h.service.Charge(c.UserContext(), c.Params("accountId"), req.Amount)
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toRecordResponse(record))
}

// Adjust appends a manual correction record. Staff only.
func (h *Handler) Adjust(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	record, err := h.service.Adjust(c.UserContext(), c.Params("accountId"), ledger.Kind(req.Kind), req.Amount)
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toRecordResponse(record))
}

// Purchase redeems coins for access to a book on behalf of the
// authenticated reader.
func (h *Handler) Purchase(c *fiber.Ctx) error {
	accountID, _ := c.Locals("user_id").(string)
	if accountID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	res, err := h.service.Purchase(c.UserContext(), accountID, c.Params("bookId"))
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			// A declined precondition, not a failure: the caller is told to
			// top up and nothing was mutated.
			return c.Status(http.StatusPaymentRequired).JSON(fiber.Map{
				"warning": "not enough coins",
			})
		}
		return h.mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"record":  toRecordResponse(res.Record),
		"book_id": res.Book.ID,
		"title":   res.Book.Title,
		"balance": res.Balance,
	})
}

// Edit rewrites a transaction record. Staff only.
func (h *Handler) Edit(c *fiber.Ctx) error {
	var req editRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	record, err := h.service.Edit(c.UserContext(), c.Params("recordId"), ledger.Kind(req.Kind), req.Amount)
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toRecordResponse(record))
}

// Delete is always rejected; the ledger is append-only.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("recordId")); err != nil {
		return h.mapError(err)
	}
	return c.SendStatus(http.StatusNoContent) // unreachable: Delete always errors
}

// Me returns the authenticated user's balance and transaction history.
func (h *Handler) Me(c *fiber.Ctx) error {
	accountID, _ := c.Locals("user_id").(string)
	if accountID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	balance, err := h.service.Balance(c.UserContext(), accountID)
	if err != nil {
		return h.mapError(err)
	}
	history, err := h.service.History(c.UserContext(), accountID)
	if err != nil {
		return h.mapError(err)
	}

	records := make([]recordResponse, 0, len(history))
	for _, r := range history {
		records = append(records, toRecordResponse(r))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance": balance,
		"records": records,
	})
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return fiber.NewError(http.StatusPaymentRequired, "not enough coins")
	case errors.Is(err, ledger.ErrDeletionNotAllowed):
		return fiber.NewError(http.StatusForbidden, "transaction records cannot be deleted")
	case errors.Is(err, ledger.ErrRecordNotFound),
		errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, catalog.ErrBookNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidKind):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

package identity

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProvisionFunc creates the coin balance for a freshly registered account.
type ProvisionFunc func(ctx context.Context, accountID string) error

// Handler exposes identity HTTP endpoints.
type Handler struct {
	service   *Service
	provision ProvisionFunc
	validate  *validator.Validate
}

// NewHandler builds an identity HTTP handler. provision is called with the
// new user id after registration so the ledger account exists before the
// first charge.
func NewHandler(service *Service, provision ProvisionFunc) *Handler {
	return &Handler{service: service, provision: provision, validate: validator.New()}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a reader account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.Register(c.UserContext(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return fiber.NewError(http.StatusConflict, "username already taken")
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if h.provision != nil {
		if err := h.provision(c.UserContext(), user.ID); err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// Members lists non-staff users. Staff only.
func (h *Handler) Members(c *fiber.Ctx) error {
	users, err := h.service.Members(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		out = append(out, fiber.Map{
			"user_id":   u.ID,
			"username":  u.Username,
			"email":     u.Email,
			"is_active": u.IsActive,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"users": out})
}

// ImportCSV bulk-creates users from an uploaded CSV body. Staff only. The
// import is all-or-nothing: a duplicate username or malformed row creates no
// user at all.
func (h *Handler) ImportCSV(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return fiber.NewError(http.StatusBadRequest, "empty request body")
	}

	users, err := h.service.ImportCSV(c.UserContext(), bytes.NewReader(body))
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return fiber.NewError(http.StatusConflict, "import aborted: username already taken")
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if h.provision != nil {
		for _, u := range users {
			if err := h.provision(c.UserContext(), u.ID); err != nil {
				return fiber.NewError(http.StatusInternalServerError, err.Error())
			}
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"imported": len(users)})
}

package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/inkshelf/inkshelf/internal/access"
	"github.com/inkshelf/inkshelf/internal/identity"
)

// Handler exposes catalog HTTP endpoints. Chapter bodies are served only to
// accounts the access policy clears.
type Handler struct {
	service  *Service
	policy   *access.Policy
	users    identity.Repository
	validate *validator.Validate
}

// NewHandler builds a catalog HTTP handler.
func NewHandler(service *Service, policy *access.Policy, users identity.Repository) *Handler {
	return &Handler{service: service, policy: policy, users: users, validate: validator.New()}
}

type bookResponse struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Title      string `json:"title"`
	Abstract   string `json:"abstract"`
	ImagePath  string `json:"image_path,omitempty"`
	Price      int64  `json:"price"`
	Published  bool   `json:"published"`
}

func toBookResponse(b Book) bookResponse {
	return bookResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Title:      b.Title,
		Abstract:   b.Abstract,
		ImagePath:  b.ImagePath,
		Price:      b.Price,
		Published:  b.Published,
	}
}

// Search lists published books filtered by category and search word.
func (h *Handler) Search(c *fiber.Ctx) error {
	books, err := h.service.Search(c.UserContext(), SearchQuery{
		CategoryID: c.Query("category"),
		Word:       c.Query("word"),
	})
	if err != nil {
		return h.mapError(err)
	}
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"books": out})
}

// Get returns one published book.
func (h *Handler) Get(c *fiber.Ctx) error {
	book, err := h.service.Get(c.UserContext(), c.Params("bookId"))
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toBookResponse(book))
}

// Categories lists categories in display order.
func (h *Handler) Categories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.UserContext())
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"categories": categories})
}

// Chapter serves one chapter body to an account that purchased the book or
// is staff; everyone else gets 403.
func (h *Handler) Chapter(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := h.users.FindByID(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "user not found")
	}

	bookID := c.Params("bookId")
	ok, err := h.policy.CanView(c.UserContext(), user, bookID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return fiber.NewError(http.StatusForbidden, "book not purchased")
	}

	number, err := strconv.Atoi(c.Params("number"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid chapter number")
	}
	page, err := h.service.GetChapter(c.UserContext(), bookID, number)
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"book_id": page.Chapter.BookID,
		"number":  page.Chapter.Number,
		"title":   page.Chapter.Title,
		"body":    page.Chapter.Body,
		"prev":    page.Prev,
		"next":    page.Next,
	})
}

type createCategoryRequest struct {
	DisplayOrder int    `json:"display_order"`
	Name         string `json:"name" validate:"required"`
}

// CreateCategory adds a category. Staff only.
func (h *Handler) CreateCategory(c *fiber.Ctx) error {
	var req createCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	category, err := h.service.CreateCategory(c.UserContext(), CategoryInput{
		DisplayOrder: req.DisplayOrder,
		Name:         req.Name,
	})
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(category)
}

type bookRequest struct {
	CategoryID string `json:"category_id"`
	Title      string `json:"title" validate:"required"`
	Abstract   string `json:"abstract"`
	ImagePath  string `json:"image_path"`
	Price      int64  `json:"price" validate:"gte=0"`
	Published  bool   `json:"published"`
}

// CreateBook adds a book. Staff only.
func (h *Handler) CreateBook(c *fiber.Ctx) error {
	var req bookRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	book, err := h.service.CreateBook(c.UserContext(), BookInput{
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Abstract:   req.Abstract,
		ImagePath:  req.ImagePath,
		Price:      req.Price,
		Published:  req.Published,
	})
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toBookResponse(book))
}

// UpdateBook overwrites a book. Staff only.
func (h *Handler) UpdateBook(c *fiber.Ctx) error {
	var req bookRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	book, err := h.service.UpdateBook(c.UserContext(), c.Params("bookId"), BookInput{
		Title:     req.Title,
		Abstract:  req.Abstract,
		ImagePath: req.ImagePath,
		Price:     req.Price,
		Published: req.Published,
	})
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toBookResponse(book))
}

type chapterRequest struct {
	Number int    `json:"number" validate:"gte=1"`
	Title  string `json:"title" validate:"required"`
	Body   string `json:"body" validate:"required"`
}

// CreateChapter adds a chapter to a book. Staff only.
func (h *Handler) CreateChapter(c *fiber.Ctx) error {
	var req chapterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	chapter, err := h.service.CreateChapter(c.UserContext(), ChapterInput{
		BookID: c.Params("bookId"),
		Number: req.Number,
		Title:  req.Title,
		Body:   req.Body,
	})
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(chapter)
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrChapterNotFound), errors.Is(err, ErrCategoryNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Service exposes catalog reads for the shop and writes for staff.
type Service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search lists published books matching the query.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]Book, error) {
	return s.repo.Search(ctx, q)
}

// Get returns a published book. Unpublished books are invisible to readers.
func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if !book.Published {
		return Book{}, ErrBookNotFound
	}
	return book, nil
}

// Categories lists categories in display order.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// ChapterPage is a chapter plus its navigation neighbours.
type ChapterPage struct {
	Chapter Chapter
	Prev    *int
	Next    *int
}

// GetChapter returns one chapter of a published book together with the
// numbers of the previous and next chapters, when they exist.
func (s *Service) GetChapter(ctx context.Context, bookID string, number int) (ChapterPage, error) {
	if _, err := s.Get(ctx, bookID); err != nil {
		return ChapterPage{}, err
	}
	chapter, err := s.repo.GetChapter(ctx, bookID, number)
	if err != nil {
		return ChapterPage{}, err
	}

	page := ChapterPage{Chapter: chapter}
	if prev, err := s.repo.GetChapter(ctx, bookID, number-1); err == nil {
		page.Prev = &prev.Number
	} else if !errors.Is(err, ErrChapterNotFound) {
		return ChapterPage{}, err
	}
	if next, err := s.repo.GetChapter(ctx, bookID, number+1); err == nil {
		page.Next = &next.Number
	} else if !errors.Is(err, ErrChapterNotFound) {
		return ChapterPage{}, err
	}
	return page, nil
}

// Chapters lists a published book's chapters in order.
func (s *Service) Chapters(ctx context.Context, bookID string) ([]Chapter, error) {
	if _, err := s.Get(ctx, bookID); err != nil {
		return nil, err
	}
	return s.repo.ListChapters(ctx, bookID)
}

// CategoryInput captures data to create a category.
type CategoryInput struct {
	DisplayOrder int
	Name         string
}

// CreateCategory adds a category (staff only, route-guarded).
func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (Category, error) {
	c := Category{ID: uuid.NewString(), DisplayOrder: input.DisplayOrder, Name: input.Name}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

// BookInput captures data to create or update a book.
type BookInput struct {
	CategoryID string
	Title      string
	Abstract   string
	ImagePath  string
	Price      int64
	Published  bool
}

// CreateBook adds a book (staff only, route-guarded).
func (s *Service) CreateBook(ctx context.Context, input BookInput) (Book, error) {
	if input.Price < 0 {
		return Book{}, fmt.Errorf("price must be non-negative")
	}
	b := Book{
		ID:         uuid.NewString(),
		CategoryID: input.CategoryID,
		Title:      input.Title,
		Abstract:   input.Abstract,
		ImagePath:  input.ImagePath,
		Price:      input.Price,
		Published:  input.Published,
	}
	if err := s.repo.CreateBook(ctx, b); err != nil {
		return Book{}, err
	}
	return b, nil
}

// UpdateBook overwrites a book's fields (staff only, route-guarded).
func (s *Service) UpdateBook(ctx context.Context, id string, input BookInput) (Book, error) {
	if input.Price < 0 {
		return Book{}, fmt.Errorf("price must be non-negative")
	}
	b := Book{
		ID:        id,
		Title:     input.Title,
		Abstract:  input.Abstract,
		ImagePath: input.ImagePath,
		Price:     input.Price,
		Published: input.Published,
	}
	if err := s.repo.UpdateBook(ctx, b); err != nil {
		return Book{}, err
	}
	return s.repo.GetBook(ctx, id)
}

// ChapterInput captures data to create a chapter.
type ChapterInput struct {
	BookID string
	Number int
	Title  string
	Body   string
}

// CreateChapter adds a chapter to a book (staff only, route-guarded).
func (s *Service) CreateChapter(ctx context.Context, input ChapterInput) (Chapter, error) {
	if input.Number < 1 {
		return Chapter{}, fmt.Errorf("chapter number must be positive")
	}
	ch := Chapter{
		ID:     uuid.NewString(),
		BookID: input.BookID,
		Number: input.Number,
		Title:  input.Title,
		Body:   input.Body,
	}
	if err := s.repo.CreateChapter(ctx, ch); err != nil {
		return Chapter{}, err
	}
	return ch, nil
}

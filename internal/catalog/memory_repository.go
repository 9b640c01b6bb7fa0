package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryRepository struct {
	mu         sync.RWMutex
	categories map[string]Category
	books      map[string]Book
	chapters   map[string][]Chapter // keyed by book id, kept sorted by number
}

// NewMemoryRepository constructs an in-memory catalog for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		categories: make(map[string]Category),
		books:      make(map[string]Book),
		chapters:   make(map[string][]Chapter),
	}
}

func (r *memoryRepository) CreateCategory(_ context.Context, c Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = c
	return nil
}

func (r *memoryRepository) ListCategories(_ context.Context) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var categories []Category
	for _, c := range r.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].DisplayOrder < categories[j].DisplayOrder })
	return categories, nil
}

func (r *memoryRepository) CreateBook(_ context.Context, b Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[b.CategoryID]; !ok {
		return ErrCategoryNotFound
	}
	r.books[b.ID] = b
	return nil
}

func (r *memoryRepository) UpdateBook(_ context.Context, b Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.books[b.ID]
	if !ok {
		return ErrBookNotFound
	}
	b.CategoryID = old.CategoryID
	r.books[b.ID] = b
	return nil
}

func (r *memoryRepository) GetBook(_ context.Context, id string) (Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[id]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	return b, nil
}

func (r *memoryRepository) Search(_ context.Context, q SearchQuery) ([]Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var books []Book
	for _, b := range r.books {
		if !b.Published {
			continue
		}
		if q.CategoryID != "" && b.CategoryID != q.CategoryID {
			continue
		}
		if q.Word != "" && !strings.Contains(b.Title, q.Word) && !strings.Contains(b.Abstract, q.Word) {
			continue
		}
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

func (r *memoryRepository) CreateChapter(_ context.Context, ch Chapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[ch.BookID]; !ok {
		return ErrBookNotFound
	}
	chapters := append(r.chapters[ch.BookID], ch)
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Number < chapters[j].Number })
	r.chapters[ch.BookID] = chapters
	return nil
}

func (r *memoryRepository) GetChapter(_ context.Context, bookID string, number int) (Chapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.chapters[bookID] {
		if ch.Number == number {
			return ch, nil
		}
	}
	return Chapter{}, ErrChapterNotFound
}

func (r *memoryRepository) ListChapters(_ context.Context, bookID string) ([]Chapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chapters := make([]Chapter, len(r.chapters[bookID]))
	copy(chapters, r.chapters[bookID])
	return chapters, nil
}

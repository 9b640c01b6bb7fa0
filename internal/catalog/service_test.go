package catalog

import (
	"context"
	"errors"
	"testing"
)

func seedCatalog(t *testing.T) (*Service, Book) {
	t.Helper()
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CategoryInput{DisplayOrder: 1, Name: "novels"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	book, err := svc.CreateBook(ctx, BookInput{
		CategoryID: cat.ID,
		Title:      "The Coin Garden",
		Abstract:   "a story about thrift",
		Price:      300,
		Published:  true,
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	return svc, book
}

func TestSearchFiltersPublished(t *testing.T) {
	svc, book := seedCatalog(t)
	ctx := context.Background()

	if _, err := svc.CreateBook(ctx, BookInput{
		CategoryID: book.CategoryID,
		Title:      "Unreleased Draft",
		Abstract:   "hidden",
		Price:      100,
		Published:  false,
	}); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	books, err := svc.Search(ctx, SearchQuery{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(books) != 1 || books[0].ID != book.ID {
		t.Fatalf("expected only the published book, got %+v", books)
	}
}

func TestSearchByWord(t *testing.T) {
	svc, book := seedCatalog(t)
	ctx := context.Background()

	books, err := svc.Search(ctx, SearchQuery{Word: "thrift"})
	if err != nil {
		t.Fatalf("search by abstract word: %v", err)
	}
	if len(books) != 1 || books[0].ID != book.ID {
		t.Fatalf("expected abstract match, got %+v", books)
	}

	books, err = svc.Search(ctx, SearchQuery{Word: "Garden"})
	if err != nil {
		t.Fatalf("search by title word: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected title match, got %+v", books)
	}

	books, err = svc.Search(ctx, SearchQuery{Word: "submarine"})
	if err != nil {
		t.Fatalf("search no match: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("expected no match, got %+v", books)
	}
}

func TestGetHidesUnpublished(t *testing.T) {
	svc, book := seedCatalog(t)
	ctx := context.Background()

	if _, err := svc.UpdateBook(ctx, book.ID, BookInput{
		Title:     book.Title,
		Abstract:  book.Abstract,
		Price:     book.Price,
		Published: false,
	}); err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if _, err := svc.Get(ctx, book.ID); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound for unpublished book, got %v", err)
	}
}

func TestChapterNavigation(t *testing.T) {
	svc, book := seedCatalog(t)
	ctx := context.Background()

	for n := 1; n <= 3; n++ {
		if _, err := svc.CreateChapter(ctx, ChapterInput{BookID: book.ID, Number: n, Title: "ch", Body: "text"}); err != nil {
			t.Fatalf("create chapter %d: %v", n, err)
		}
	}

	page, err := svc.GetChapter(ctx, book.ID, 2)
	if err != nil {
		t.Fatalf("get chapter: %v", err)
	}
	if page.Prev == nil || *page.Prev != 1 {
		t.Fatalf("expected prev chapter 1, got %v", page.Prev)
	}
	if page.Next == nil || *page.Next != 3 {
		t.Fatalf("expected next chapter 3, got %v", page.Next)
	}

	first, err := svc.GetChapter(ctx, book.ID, 1)
	if err != nil {
		t.Fatalf("get first chapter: %v", err)
	}
	if first.Prev != nil {
		t.Fatalf("expected no prev for first chapter")
	}

	if _, err := svc.GetChapter(ctx, book.ID, 9); !errors.Is(err, ErrChapterNotFound) {
		t.Fatalf("expected ErrChapterNotFound, got %v", err)
	}
}

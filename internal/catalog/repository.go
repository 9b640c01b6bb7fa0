package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrBookNotFound indicates the book does not exist or is not published.
	ErrBookNotFound = errors.New("book not found")
	// ErrChapterNotFound indicates the requested chapter does not exist.
	ErrChapterNotFound = errors.New("chapter not found")
	// ErrCategoryNotFound indicates the category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
)

// SearchQuery filters published books. Category narrows to one category;
// Word matches a substring of title or abstract. Both are optional.
type SearchQuery struct {
	CategoryID string
	Word       string
}

// Repository persists the catalog.
type Repository interface {
	CreateCategory(ctx context.Context, c Category) error
	ListCategories(ctx context.Context) ([]Category, error)

	CreateBook(ctx context.Context, b Book) error
	UpdateBook(ctx context.Context, b Book) error
	// GetBook returns the book regardless of publication state.
	GetBook(ctx context.Context, id string) (Book, error)
	// Search returns published books matching the query.
	Search(ctx context.Context, q SearchQuery) ([]Book, error)

	CreateChapter(ctx context.Context, ch Chapter) error
	GetChapter(ctx context.Context, bookID string, number int) (Chapter, error)
	ListChapters(ctx context.Context, bookID string) ([]Chapter, error)
}

// PostgresRepository stores the catalog in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed catalog repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateCategory inserts a category.
func (r *PostgresRepository) CreateCategory(ctx context.Context, c Category) error {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO categories (id, display_order, name) VALUES ($1, $2, $3)`,
		id, c.DisplayOrder, c.Name)
	return err
}

// ListCategories returns categories in display order.
func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, display_order, name FROM categories ORDER BY display_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var (
			c  Category
			id uuid.UUID
		)
		if err := rows.Scan(&id, &c.DisplayOrder, &c.Name); err != nil {
			return nil, err
		}
		c.ID = id.String()
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateBook inserts a book.
func (r *PostgresRepository) CreateBook(ctx context.Context, b Book) error {
	id, err := uuid.Parse(b.ID)
	if err != nil {
		return err
	}
	categoryID, err := uuid.Parse(b.CategoryID)
	if err != nil {
		return ErrCategoryNotFound
	}
	_, err = r.db.Exec(ctx, `INSERT INTO books (id, category_id, title, abstract, image_path, price, published)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`, id, categoryID, b.Title, b.Abstract, b.ImagePath, b.Price, b.Published)
	return err
}

// UpdateBook overwrites a book's mutable fields.
func (r *PostgresRepository) UpdateBook(ctx context.Context, b Book) error {
	id, err := uuid.Parse(b.ID)
	if err != nil {
		return ErrBookNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE books SET title = $1, abstract = $2, image_path = $3, price = $4, published = $5
        WHERE id = $6`, b.Title, b.Abstract, b.ImagePath, b.Price, b.Published, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

// GetBook fetches a book by id, published or not.
func (r *PostgresRepository) GetBook(ctx context.Context, id string) (Book, error) {
	bookID, err := uuid.Parse(id)
	if err != nil {
		return Book{}, ErrBookNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, category_id, title, abstract, image_path, price, published
        FROM books WHERE id = $1`, bookID)
	return scanBook(row)
}

// Search lists published books matching the query.
func (r *PostgresRepository) Search(ctx context.Context, q SearchQuery) ([]Book, error) {
	query := `SELECT id, category_id, title, abstract, image_path, price, published
        FROM books WHERE published = TRUE`
	args := []any{}
	if q.CategoryID != "" {
		categoryID, err := uuid.Parse(q.CategoryID)
		if err != nil {
			return nil, ErrCategoryNotFound
		}
		args = append(args, categoryID)
		query += ` AND category_id = $1`
	}
	if q.Word != "" {
		args = append(args, "%"+q.Word+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		query += ` AND (title LIKE ` + placeholder + ` OR abstract LIKE ` + placeholder + `)`
	}
	query += ` ORDER BY title`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// CreateChapter inserts a chapter.
func (r *PostgresRepository) CreateChapter(ctx context.Context, ch Chapter) error {
	id, err := uuid.Parse(ch.ID)
	if err != nil {
		return err
	}
	bookID, err := uuid.Parse(ch.BookID)
	if err != nil {
		return ErrBookNotFound
	}
	_, err = r.db.Exec(ctx, `INSERT INTO chapters (id, book_id, number, title, body)
        VALUES ($1, $2, $3, $4, $5)`, id, bookID, ch.Number, ch.Title, ch.Body)
	return err
}

// GetChapter fetches one chapter of a book by number.
func (r *PostgresRepository) GetChapter(ctx context.Context, bookID string, number int) (Chapter, error) {
	bookUUID, err := uuid.Parse(bookID)
	if err != nil {
		return Chapter{}, ErrChapterNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, book_id, number, title, body
        FROM chapters WHERE book_id = $1 AND number = $2`, bookUUID, number)
	var (
		ch      Chapter
		id      uuid.UUID
		ownerID uuid.UUID
	)
	if err := row.Scan(&id, &ownerID, &ch.Number, &ch.Title, &ch.Body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Chapter{}, ErrChapterNotFound
		}
		return Chapter{}, err
	}
	ch.ID = id.String()
	ch.BookID = ownerID.String()
	return ch, nil
}

// ListChapters returns a book's chapters ordered by number.
func (r *PostgresRepository) ListChapters(ctx context.Context, bookID string) ([]Chapter, error) {
	bookUUID, err := uuid.Parse(bookID)
	if err != nil {
		return nil, ErrBookNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT id, book_id, number, title, body
        FROM chapters WHERE book_id = $1 ORDER BY number`, bookUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []Chapter
	for rows.Next() {
		var (
			ch     Chapter
			id     uuid.UUID
			bookID uuid.UUID
		)
		if err := rows.Scan(&id, &bookID, &ch.Number, &ch.Title, &ch.Body); err != nil {
			return nil, err
		}
		ch.ID = id.String()
		ch.BookID = bookID.String()
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}

func scanBook(row pgx.Row) (Book, error) {
	var (
		b          Book
		id         uuid.UUID
		categoryID uuid.UUID
	)
	if err := row.Scan(&id, &categoryID, &b.Title, &b.Abstract, &b.ImagePath, &b.Price, &b.Published); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrBookNotFound
		}
		return Book{}, err
	}
	b.ID = id.String()
	b.CategoryID = categoryID.String()
	return b, nil
}

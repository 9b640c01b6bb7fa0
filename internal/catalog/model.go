package catalog

// Category groups books and controls display ordering.
type Category struct {
	ID           string
	DisplayOrder int
	Name         string
}

// Book is a sellable content item. Price is in coins; only published books
// are visible to readers.
type Book struct {
	ID         string
	CategoryID string
	Title      string
	Abstract   string
	ImagePath  string
	Price      int64
	Published  bool
}

// Chapter is a unit of book content, ordered by number.
type Chapter struct {
	ID     string
	BookID string
	Number int
	Title  string
	Body   string
}

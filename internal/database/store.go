// file: internal/database/store.go
// version: 2.3.0
// guid: 8a9b0c1d-2e3f-4a5b-6c7d-8e9f0a1b2c3d

package database

import (
	"fmt"

	"github.com/jdfalk/quote-keeper/internal/models"
)

// Store defines the persistence contract for quotes and their related
// authors, books and tags. Two implementations exist: PebbleDB (default)
// and SQLite3 (opt-in).
//
// Lookup methods (Get*) return (nil, nil) when the record is absent;
// mutating methods return ErrNotFound. List and QuotesBy* methods yield a
// fresh slice in insertion order on every call. Every mutating operation
// commits the entity write and all index updates atomically.
type Store interface {
	// Lifecycle
	Close() error

	// Quotes
	PutQuote(draft *models.QuoteDraft) (int, error)
	GetQuote(id int) (*models.Quote, error)
	UpdateQuote(id int, upd *models.QuoteUpdate) (*models.Quote, error)
	DeleteQuote(id int) error

	// Books (cascade=false fails with ErrHasDependents when quotes exist;
	// cascade=true removes dependent quotes first, then the book, then the
	// author if it has no remaining books)
	DeleteBook(id int, cascade bool) error

	// Direct lookups
	GetBook(id int) (*models.Book, error)
	GetAuthor(id int) (*models.Author, error)
	GetTag(id int) (*models.Tag, error)

	// Natural-key lookups (inputs are normalized before comparison)
	GetAuthorByName(name string) (*models.Author, error)
	GetBookByKey(title string, authorID int) (*models.Book, error)
	GetBooksByTitle(title string) ([]models.Book, error)
	GetTagByName(name string) (*models.Tag, error)

	// Listings, insertion order
	ListQuotes() ([]models.Quote, error)
	ListBooks() ([]models.Book, error)
	ListAuthors() ([]models.Author, error)
	ListTags() ([]models.Tag, error)

	// Secondary-index reads, insertion order
	QuotesByBook(bookID int) ([]models.Quote, error)
	QuotesByAuthor(authorID int) ([]models.Quote, error)
	QuotesByTag(tagID int) ([]models.Quote, error)

	// RandomQuote picks uniformly over the current candidate set; each call
	// re-samples fresh. Returns (nil, nil) when no candidate matches.
	RandomQuote(filter Filter) (*models.Quote, error)

	// Counts returns aggregate totals for stats and diagnostics.
	Counts() (*Counts, error)
}

// Filter restricts RandomQuote to one secondary index. At most one field is
// consulted, in BookID, AuthorID, TagID order.
type Filter struct {
	BookID   *int
	AuthorID *int
	TagID    *int
}

// Counts holds aggregate totals across the store.
type Counts struct {
	Quotes    int `json:"quotes"`
	Books     int `json:"books"`
	Authors   int `json:"authors"`
	Tags      int `json:"tags"`
	Favorites int `json:"favorites"`
}

// Open creates a store of the given type at path. The store is held
// exclusively by this process until Close; opening a store another process
// holds fails with ErrLocked. The caller owns the returned value and passes
// it explicitly to collaborators; there is no package-level store.
func Open(storeType, path string) (Store, error) {
	switch storeType {
	case "pebble", "":
		return NewPebbleStore(path)
	case "sqlite", "sqlite3":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store type: %s (supported: pebble, sqlite)", storeType)
	}
}

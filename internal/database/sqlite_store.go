// file: internal/database/sqlite_store.go
// version: 2.2.0
// guid: 1d2e3f4a-5b6c-7d8e-9f0a-1b2c3d4e5f6a

package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jdfalk/quote-keeper/internal/models"
)

// SQLiteStore implements the Store interface using SQLite3. It is the
// opt-in alternative to PebbleDB; semantics are identical. AUTOINCREMENT
// keeps ids monotone and never reused after deletion.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS authors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	author_id INTEGER NOT NULL REFERENCES authors(id),
	UNIQUE(title, author_id)
);
CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS quotes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	book_id INTEGER NOT NULL REFERENCES books(id),
	text TEXT NOT NULL,
	page INTEGER,
	chapter TEXT,
	favorite INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS quote_tags (
	quote_id INTEGER NOT NULL REFERENCES quotes(id),
	tag_id INTEGER NOT NULL REFERENCES tags(id),
	PRIMARY KEY (quote_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_quotes_book ON quotes(book_id);
CREATE INDEX IF NOT EXISTS idx_books_author ON books(author_id);
CREATE INDEX IF NOT EXISTS idx_quote_tags_tag ON quote_tags(tag_id);
`

// NewSQLiteStore opens (or creates) a SQLite store at path with exclusive
// locking; a store held by another process fails with ErrLocked.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=0")
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrIO, err)
	}
	// database/sql pooling would defeat the exclusive lock
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.acquire(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// acquire takes the exclusive file lock, verifies integrity and creates the
// schema.
func (s *SQLiteStore) acquire() error {
	if _, err := s.db.Exec("PRAGMA locking_mode=EXCLUSIVE"); err != nil {
		return fmt.Errorf("%w: set locking mode: %v", ErrIO, err)
	}

	var result string
	if err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return s.classify(err, "integrity check")
	}
	if result != "ok" {
		return fmt.Errorf("%w: integrity check: %s", ErrCorrupt, result)
	}

	// The schema write also promotes the connection to the exclusive lock.
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return s.classify(err, "create schema")
	}
	return nil
}

// classify maps driver errors onto the store taxonomy.
func (s *SQLiteStore) classify(err error, op string) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"):
		return fmt.Errorf("%w: %s", ErrLocked, op)
	case strings.Contains(msg, "not a database") || strings.Contains(msg, "malformed"):
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, op, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrIO, op, err)
	}
}

// Close closes the database, releasing the exclusive lock.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutQuote resolves or creates author, book and tags by natural key and
// inserts the quote, all inside one transaction.
func (s *SQLiteStore) PutQuote(draft *models.QuoteDraft) (int, error) {
	if err := draft.Validate(); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, s.classify(err, "begin")
	}
	defer tx.Rollback()

	authorID, err := upsertByName(tx, "authors", "name", draft.Author)
	if err != nil {
		return 0, s.classify(err, "upsert author")
	}

	var bookID int64
	err = tx.QueryRow("SELECT id FROM books WHERE title = ? AND author_id = ?", draft.Book, authorID).Scan(&bookID)
	if err == sql.ErrNoRows {
		res, err := tx.Exec("INSERT INTO books (title, author_id) VALUES (?, ?)", draft.Book, authorID)
		if err != nil {
			return 0, s.classify(err, "insert book")
		}
		bookID, err = res.LastInsertId()
		if err != nil {
			return 0, s.classify(err, "insert book")
		}
	} else if err != nil {
		return 0, s.classify(err, "lookup book")
	}

	createdAt := draft.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var page *int
	var chapter *string
	if draft.Location != nil {
		page = draft.Location.Page
		chapter = draft.Location.Chapter
	}
	res, err := tx.Exec(
		"INSERT INTO quotes (book_id, text, page, chapter, favorite, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		bookID, draft.Text, page, chapter, draft.Favorite, createdAt,
	)
	if err != nil {
		return 0, s.classify(err, "insert quote")
	}
	quoteID, err := res.LastInsertId()
	if err != nil {
		return 0, s.classify(err, "insert quote")
	}

	for _, name := range draft.Tags {
		tagID, err := upsertByName(tx, "tags", "name", name)
		if err != nil {
			return 0, s.classify(err, "upsert tag")
		}
		if _, err := tx.Exec("INSERT INTO quote_tags (quote_id, tag_id) VALUES (?, ?)", quoteID, tagID); err != nil {
			return 0, s.classify(err, "link tag")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, s.classify(err, "commit")
	}
	return int(quoteID), nil
}

func upsertByName(tx *sql.Tx, table, column, value string) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM "+table+" WHERE "+column+" = ?", value).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.Exec("INSERT INTO "+table+" ("+column+") VALUES (?)", value)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) scanQuote(row interface{ Scan(...interface{}) error }) (*models.Quote, error) {
	var q models.Quote
	var page sql.NullInt64
	var chapter sql.NullString
	if err := row.Scan(&q.ID, &q.BookID, &q.Text, &page, &chapter, &q.Favorite, &q.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, s.classify(err, "scan quote")
	}
	if page.Valid || chapter.Valid {
		q.Location = &models.Location{}
		if page.Valid {
			v := int(page.Int64)
			q.Location.Page = &v
		}
		if chapter.Valid {
			v := chapter.String
			q.Location.Chapter = &v
		}
	}
	return &q, nil
}

func (s *SQLiteStore) attachTags(q *models.Quote) error {
	rows, err := s.db.Query("SELECT tag_id FROM quote_tags WHERE quote_id = ? ORDER BY tag_id", q.ID)
	if err != nil {
		return s.classify(err, "load quote tags")
	}
	defer rows.Close()
	for rows.Next() {
		var tagID int
		if err := rows.Scan(&tagID); err != nil {
			return s.classify(err, "load quote tags")
		}
		q.TagIDs = append(q.TagIDs, tagID)
	}
	return rows.Err()
}

const quoteColumns = "id, book_id, text, page, chapter, favorite, created_at"

func (s *SQLiteStore) GetQuote(id int) (*models.Quote, error) {
	q, err := s.scanQuote(s.db.QueryRow("SELECT "+quoteColumns+" FROM quotes WHERE id = ?", id))
	if err != nil || q == nil {
		return nil, err
	}
	if err := s.attachTags(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *SQLiteStore) UpdateQuote(id int, upd *models.QuoteUpdate) (*models.Quote, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	quote, err := s.GetQuote(id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, fmt.Errorf("%w: quote %d", ErrNotFound, id)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, s.classify(err, "begin")
	}
	defer tx.Rollback()

	if upd.Text != nil {
		quote.Text = *upd.Text
	}
	if upd.Location != nil {
		quote.Location = upd.Location
	}
	if upd.ClearLocation {
		quote.Location = nil
	}
	if upd.Favorite != nil {
		quote.Favorite = *upd.Favorite
	}
	var page *int
	var chapter *string
	if quote.Location != nil {
		page = quote.Location.Page
		chapter = quote.Location.Chapter
	}
	if _, err := tx.Exec(
		"UPDATE quotes SET text = ?, page = ?, chapter = ?, favorite = ? WHERE id = ?",
		quote.Text, page, chapter, quote.Favorite, id,
	); err != nil {
		return nil, s.classify(err, "update quote")
	}

	if upd.Tags != nil {
		if _, err := tx.Exec("DELETE FROM quote_tags WHERE quote_id = ?", id); err != nil {
			return nil, s.classify(err, "clear quote tags")
		}
		quote.TagIDs = nil
		for _, name := range *upd.Tags {
			tagID, err := upsertByName(tx, "tags", "name", name)
			if err != nil {
				return nil, s.classify(err, "upsert tag")
			}
			if _, err := tx.Exec("INSERT INTO quote_tags (quote_id, tag_id) VALUES (?, ?)", id, tagID); err != nil {
				return nil, s.classify(err, "link tag")
			}
			quote.TagIDs = append(quote.TagIDs, int(tagID))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, s.classify(err, "commit")
	}
	return quote, nil
}

func (s *SQLiteStore) DeleteQuote(id int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return s.classify(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM quote_tags WHERE quote_id = ?", id); err != nil {
		return s.classify(err, "delete quote tags")
	}
	res, err := tx.Exec("DELETE FROM quotes WHERE id = ?", id)
	if err != nil {
		return s.classify(err, "delete quote")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.classify(err, "delete quote")
	}
	if n == 0 {
		return fmt.Errorf("%w: quote %d", ErrNotFound, id)
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteBook(id int, cascade bool) error {
	book, err := s.GetBook(id)
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("%w: book %d", ErrNotFound, id)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return s.classify(err, "begin")
	}
	defer tx.Rollback()

	var quoteCount int
	if err := tx.QueryRow("SELECT COUNT(*) FROM quotes WHERE book_id = ?", id).Scan(&quoteCount); err != nil {
		return s.classify(err, "count quotes")
	}
	if quoteCount > 0 && !cascade {
		return fmt.Errorf("%w: book %d has %d quotes", ErrHasDependents, id, quoteCount)
	}

	if _, err := tx.Exec("DELETE FROM quote_tags WHERE quote_id IN (SELECT id FROM quotes WHERE book_id = ?)", id); err != nil {
		return s.classify(err, "delete quote tags")
	}
	if _, err := tx.Exec("DELETE FROM quotes WHERE book_id = ?", id); err != nil {
		return s.classify(err, "delete quotes")
	}
	if _, err := tx.Exec("DELETE FROM books WHERE id = ?", id); err != nil {
		return s.classify(err, "delete book")
	}

	var remaining int
	if err := tx.QueryRow("SELECT COUNT(*) FROM books WHERE author_id = ?", book.AuthorID).Scan(&remaining); err != nil {
		return s.classify(err, "count author books")
	}
	if remaining == 0 {
		if _, err := tx.Exec("DELETE FROM authors WHERE id = ?", book.AuthorID); err != nil {
			return s.classify(err, "delete author")
		}
	}

	return tx.Commit()
}

// Direct lookups

func (s *SQLiteStore) GetBook(id int) (*models.Book, error) {
	var b models.Book
	err := s.db.QueryRow("SELECT id, title, author_id FROM books WHERE id = ?", id).
		Scan(&b.ID, &b.Title, &b.AuthorID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, s.classify(err, "get book")
	}
	return &b, nil
}

func (s *SQLiteStore) GetAuthor(id int) (*models.Author, error) {
	var a models.Author
	err := s.db.QueryRow("SELECT id, name FROM authors WHERE id = ?", id).Scan(&a.ID, &a.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, s.classify(err, "get author")
	}
	return &a, nil
}

func (s *SQLiteStore) GetTag(id int) (*models.Tag, error) {
	var t models.Tag
	err := s.db.QueryRow("SELECT id, name FROM tags WHERE id = ?", id).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, s.classify(err, "get tag")
	}
	return &t, nil
}

// Natural-key lookups

func (s *SQLiteStore) GetAuthorByName(name string) (*models.Author, error) {
	var a models.Author
	err := s.db.QueryRow("SELECT id, name FROM authors WHERE name = ?", models.NormalizeName(name)).
		Scan(&a.ID, &a.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, s.classify(err, "get author by name")
	}
	return &a, nil
}

func (s *SQLiteStore) GetBookByKey(title string, authorID int) (*models.Book, error) {
	var b models.Book
	err := s.db.QueryRow("SELECT id, title, author_id FROM books WHERE title = ? AND author_id = ?",
		models.NormalizeName(title), authorID).Scan(&b.ID, &b.Title, &b.AuthorID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, s.classify(err, "get book by key")
	}
	return &b, nil
}

func (s *SQLiteStore) GetBooksByTitle(title string) ([]models.Book, error) {
	rows, err := s.db.Query("SELECT id, title, author_id FROM books WHERE title = ? ORDER BY id",
		models.NormalizeName(title))
	if err != nil {
		return nil, s.classify(err, "get books by title")
	}
	defer rows.Close()
	var books []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.AuthorID); err != nil {
			return nil, s.classify(err, "get books by title")
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (s *SQLiteStore) GetTagByName(name string) (*models.Tag, error) {
	var t models.Tag
	err := s.db.QueryRow("SELECT id, name FROM tags WHERE name = ?", models.NormalizeTag(name)).
		Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, s.classify(err, "get tag by name")
	}
	return &t, nil
}

// Listings

func (s *SQLiteStore) listQuotes(query string, args ...interface{}) ([]models.Quote, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, s.classify(err, "list quotes")
	}
	defer rows.Close()
	var quotes []models.Quote
	for rows.Next() {
		q, err := s.scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify(err, "list quotes")
	}
	for i := range quotes {
		if err := s.attachTags(&quotes[i]); err != nil {
			return nil, err
		}
	}
	return quotes, nil
}

func (s *SQLiteStore) ListQuotes() ([]models.Quote, error) {
	return s.listQuotes("SELECT " + quoteColumns + " FROM quotes ORDER BY id")
}

func (s *SQLiteStore) ListBooks() ([]models.Book, error) {
	rows, err := s.db.Query("SELECT id, title, author_id FROM books ORDER BY id")
	if err != nil {
		return nil, s.classify(err, "list books")
	}
	defer rows.Close()
	var books []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.AuthorID); err != nil {
			return nil, s.classify(err, "list books")
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (s *SQLiteStore) ListAuthors() ([]models.Author, error) {
	rows, err := s.db.Query("SELECT id, name FROM authors ORDER BY id")
	if err != nil {
		return nil, s.classify(err, "list authors")
	}
	defer rows.Close()
	var authors []models.Author
	for rows.Next() {
		var a models.Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, s.classify(err, "list authors")
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

func (s *SQLiteStore) ListTags() ([]models.Tag, error) {
	rows, err := s.db.Query("SELECT id, name FROM tags ORDER BY id")
	if err != nil {
		return nil, s.classify(err, "list tags")
	}
	defer rows.Close()
	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, s.classify(err, "list tags")
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Secondary-index reads

func (s *SQLiteStore) QuotesByBook(bookID int) ([]models.Quote, error) {
	return s.listQuotes("SELECT "+quoteColumns+" FROM quotes WHERE book_id = ? ORDER BY id", bookID)
}

func (s *SQLiteStore) QuotesByAuthor(authorID int) ([]models.Quote, error) {
	return s.listQuotes("SELECT "+quoteColumns+
		" FROM quotes WHERE book_id IN (SELECT id FROM books WHERE author_id = ?) ORDER BY id", authorID)
}

func (s *SQLiteStore) QuotesByTag(tagID int) ([]models.Quote, error) {
	return s.listQuotes("SELECT "+quoteColumns+
		" FROM quotes WHERE id IN (SELECT quote_id FROM quote_tags WHERE tag_id = ?) ORDER BY id", tagID)
}

// RandomQuote picks uniformly using SQLite's RANDOM() ordering.
func (s *SQLiteStore) RandomQuote(filter Filter) (*models.Quote, error) {
	query := "SELECT " + quoteColumns + " FROM quotes"
	var args []interface{}
	switch {
	case filter.BookID != nil:
		query += " WHERE book_id = ?"
		args = append(args, *filter.BookID)
	case filter.AuthorID != nil:
		query += " WHERE book_id IN (SELECT id FROM books WHERE author_id = ?)"
		args = append(args, *filter.AuthorID)
	case filter.TagID != nil:
		query += " WHERE id IN (SELECT quote_id FROM quote_tags WHERE tag_id = ?)"
		args = append(args, *filter.TagID)
	}
	query += " ORDER BY RANDOM() LIMIT 1"
	q, err := s.scanQuote(s.db.QueryRow(query, args...))
	if err != nil || q == nil {
		return nil, err
	}
	if err := s.attachTags(q); err != nil {
		return nil, err
	}
	return q, nil
}

// Counts returns aggregate totals.
func (s *SQLiteStore) Counts() (*Counts, error) {
	counts := &Counts{}
	queries := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM quotes", &counts.Quotes},
		{"SELECT COUNT(*) FROM books", &counts.Books},
		{"SELECT COUNT(*) FROM authors", &counts.Authors},
		{"SELECT COUNT(*) FROM tags", &counts.Tags},
		{"SELECT COUNT(*) FROM quotes WHERE favorite", &counts.Favorites},
	}
	for _, c := range queries {
		if err := s.db.QueryRow(c.query).Scan(c.dst); err != nil {
			return nil, s.classify(err, "count")
		}
	}
	return counts, nil
}

// file: internal/database/pebble_store.go
// version: 2.6.0
// guid: 0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f

package database

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble/v2"

	"github.com/jdfalk/quote-keeper/internal/models"
)

// PebbleStore implements the Store interface using PebbleDB (LSM key-value store)
//
// Key Schema:
// - quote:<id>                  -> Quote JSON
// - book:<id>                   -> Book JSON
// - author:<id>                 -> Author JSON
// - tag:<id>                    -> Tag JSON
// - author:name:<name>          -> author_id (natural-key lookups)
// - book:key:<title>:<author_id> -> book_id (natural-key lookups)
// - tag:name:<name>             -> tag_id (natural-key lookups)
// - idx:book:<book_id>:<quote_id>     -> quote_id (quotes per book)
// - idx:author:<author_id>:<quote_id> -> quote_id (quotes per author)
// - idx:tag:<tag_id>:<quote_id>       -> quote_id (quotes per tag)
// - counter:quote               -> next quote ID
// - counter:book                -> next book ID
// - counter:author              -> next author ID
// - counter:tag                 -> next tag ID
// - meta:schema                 -> schema version
//
// Numeric ids in keys are zero-padded to 12 digits so prefix iteration
// yields insertion order. Counters only ever move forward, so ids are never
// reused after a delete. Every mutation goes through a single batch
// committed with pebble.Sync, counters included: a crash mid-operation
// leaves the prior committed state.
type PebbleStore struct {
	db    *pebble.DB
	rng   *rand.Rand
	rngMu sync.Mutex
}

const schemaVersion = "1"

func quoteKey(id int) []byte  { return []byte(fmt.Sprintf("quote:%012d", id)) }
func bookKey(id int) []byte   { return []byte(fmt.Sprintf("book:%012d", id)) }
func authorKey(id int) []byte { return []byte(fmt.Sprintf("author:%012d", id)) }
func tagKey(id int) []byte    { return []byte(fmt.Sprintf("tag:%012d", id)) }

func authorNameKey(name string) []byte { return []byte("author:name:" + name) }
func tagNameKey(name string) []byte    { return []byte("tag:name:" + name) }
func bookNatKey(title string, authorID int) []byte {
	return []byte(fmt.Sprintf("book:key:%s:%012d", title, authorID))
}

func indexKey(kind string, ownerID, quoteID int) []byte {
	return []byte(fmt.Sprintf("idx:%s:%012d:%012d", kind, ownerID, quoteID))
}

func counterKey(counter string) []byte { return []byte("counter:" + counter) }

// NewPebbleStore opens (or creates) a PebbleDB store at path. The directory
// is locked for exclusive use by this process.
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "lock"):
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		case strings.Contains(msg, "corrupt") || strings.Contains(msg, "invalid"):
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		default:
			return nil, fmt.Errorf("%w: open pebble: %v", ErrIO, err)
		}
	}

	store := &PebbleStore{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := store.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize counters if they don't exist
	for _, counter := range []string{"quote", "book", "author", "tag"} {
		key := counterKey(counter)
		if _, closer, err := db.Get(key); err == pebble.ErrNotFound {
			if err := db.Set(key, []byte("1"), pebble.Sync); err != nil {
				db.Close()
				return nil, fmt.Errorf("%w: initialize counter %s: %v", ErrIO, counter, err)
			}
		} else if err == nil {
			closer.Close()
		} else {
			db.Close()
			return nil, fmt.Errorf("%w: check counter %s: %v", ErrIO, counter, err)
		}
	}

	return store, nil
}

// checkSchema verifies the schema marker, writing it on first open.
func (p *PebbleStore) checkSchema() error {
	value, closer, err := p.db.Get([]byte("meta:schema"))
	if err == pebble.ErrNotFound {
		return p.db.Set([]byte("meta:schema"), []byte(schemaVersion), pebble.Sync)
	}
	if err != nil {
		return fmt.Errorf("%w: read schema marker: %v", ErrIO, err)
	}
	defer closer.Close()
	if string(value) != schemaVersion {
		return fmt.Errorf("%w: unknown schema version %q", ErrCorrupt, string(value))
	}
	return nil
}

// Close closes the database.
func (p *PebbleStore) Close() error {
	return p.db.Close()
}

// getJSON reads key into v. Returns false without error when the key is
// absent.
func (p *PebbleStore) getJSON(key []byte, v interface{}) (bool, error) {
	value, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", ErrIO, key, err)
	}
	defer closer.Close()
	if err := json.Unmarshal(value, v); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// getID reads a natural-key index entry. Returns 0 when absent.
func (p *PebbleStore) getID(key []byte) (int, error) {
	value, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %v", ErrIO, key, err)
	}
	defer closer.Close()
	id, err := strconv.Atoi(string(value))
	if err != nil {
		return 0, fmt.Errorf("%w: decode %s: %v", ErrCorrupt, key, err)
	}
	return id, nil
}

// idAlloc hands out ids within one mutation. Allocations are tracked in
// memory so multiple takes from the same counter stay distinct, and the
// advanced counter values are written into the same batch as the entities.
type idAlloc struct {
	p    *PebbleStore
	next map[string]int
}

func newIDAlloc(p *PebbleStore) *idAlloc {
	return &idAlloc{p: p, next: make(map[string]int)}
}

func (a *idAlloc) take(counter string) (int, error) {
	n, ok := a.next[counter]
	if !ok {
		value, closer, err := a.p.db.Get(counterKey(counter))
		if err != nil {
			return 0, fmt.Errorf("%w: read counter %s: %v", ErrIO, counter, err)
		}
		n, err = strconv.Atoi(string(value))
		closer.Close()
		if err != nil {
			return 0, fmt.Errorf("%w: counter %s: %v", ErrCorrupt, counter, err)
		}
	}
	a.next[counter] = n + 1
	return n, nil
}

func (a *idAlloc) flush(batch *pebble.Batch) error {
	for counter, n := range a.next {
		if err := batch.Set(counterKey(counter), []byte(strconv.Itoa(n)), nil); err != nil {
			return fmt.Errorf("%w: advance counter %s: %v", ErrIO, counter, err)
		}
	}
	return nil
}

func setJSON(batch *pebble.Batch, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := batch.Set(key, data, nil); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, key, err)
	}
	return nil
}

func commit(batch *pebble.Batch) error {
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrIO, err)
	}
	return nil
}

// PutQuote resolves or creates the author, book and tags by natural key,
// inserts the quote and writes all secondary index entries in one batch.
func (p *PebbleStore) PutQuote(draft *models.QuoteDraft) (int, error) {
	if err := draft.Validate(); err != nil {
		return 0, err
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	alloc := newIDAlloc(p)

	author, err := p.GetAuthorByName(draft.Author)
	if err != nil {
		return 0, err
	}
	if author == nil {
		id, err := alloc.take("author")
		if err != nil {
			return 0, err
		}
		author = &models.Author{ID: id, Name: draft.Author}
		if err := setJSON(batch, authorKey(id), author); err != nil {
			return 0, err
		}
		if err := batch.Set(authorNameKey(author.Name), []byte(strconv.Itoa(id)), nil); err != nil {
			return 0, fmt.Errorf("%w: write author name index: %v", ErrIO, err)
		}
	}

	book, err := p.GetBookByKey(draft.Book, author.ID)
	if err != nil {
		return 0, err
	}
	if book == nil {
		id, err := alloc.take("book")
		if err != nil {
			return 0, err
		}
		book = &models.Book{ID: id, Title: draft.Book, AuthorID: author.ID}
		if err := setJSON(batch, bookKey(id), book); err != nil {
			return 0, err
		}
		if err := batch.Set(bookNatKey(book.Title, author.ID), []byte(strconv.Itoa(id)), nil); err != nil {
			return 0, fmt.Errorf("%w: write book natural-key index: %v", ErrIO, err)
		}
	}

	tagIDs := make([]int, 0, len(draft.Tags))
	for _, name := range draft.Tags {
		tag, err := p.GetTagByName(name)
		if err != nil {
			return 0, err
		}
		if tag == nil {
			id, err := alloc.take("tag")
			if err != nil {
				return 0, err
			}
			tag = &models.Tag{ID: id, Name: name}
			if err := setJSON(batch, tagKey(id), tag); err != nil {
				return 0, err
			}
			if err := batch.Set(tagNameKey(name), []byte(strconv.Itoa(id)), nil); err != nil {
				return 0, fmt.Errorf("%w: write tag name index: %v", ErrIO, err)
			}
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	quoteID, err := alloc.take("quote")
	if err != nil {
		return 0, err
	}
	createdAt := draft.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	quote := &models.Quote{
		ID:        quoteID,
		BookID:    book.ID,
		Text:      draft.Text,
		Location:  draft.Location,
		TagIDs:    tagIDs,
		Favorite:  draft.Favorite,
		CreatedAt: createdAt,
	}
	if err := setJSON(batch, quoteKey(quoteID), quote); err != nil {
		return 0, err
	}

	idValue := []byte(strconv.Itoa(quoteID))
	if err := batch.Set(indexKey("book", book.ID, quoteID), idValue, nil); err != nil {
		return 0, fmt.Errorf("%w: write book index: %v", ErrIO, err)
	}
	if err := batch.Set(indexKey("author", author.ID, quoteID), idValue, nil); err != nil {
		return 0, fmt.Errorf("%w: write author index: %v", ErrIO, err)
	}
	for _, tagID := range tagIDs {
		if err := batch.Set(indexKey("tag", tagID, quoteID), idValue, nil); err != nil {
			return 0, fmt.Errorf("%w: write tag index: %v", ErrIO, err)
		}
	}

	if err := alloc.flush(batch); err != nil {
		return 0, err
	}
	if err := commit(batch); err != nil {
		return 0, err
	}
	return quoteID, nil
}

// GetQuote returns the quote with the given id, or (nil, nil).
func (p *PebbleStore) GetQuote(id int) (*models.Quote, error) {
	var quote models.Quote
	found, err := p.getJSON(quoteKey(id), &quote)
	if err != nil || !found {
		return nil, err
	}
	return &quote, nil
}

// UpdateQuote applies an edit to text, location, tags or the favorite flag.
// Tag index entries are rewritten in the same batch as the quote, so no
// stale entry survives a tag removal.
func (p *PebbleStore) UpdateQuote(id int, upd *models.QuoteUpdate) (*models.Quote, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	quote, err := p.GetQuote(id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, fmt.Errorf("%w: quote %d", ErrNotFound, id)
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	alloc := newIDAlloc(p)

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

	if upd.Tags != nil {
		oldTags := make(map[int]bool, len(quote.TagIDs))
		for _, tagID := range quote.TagIDs {
			oldTags[tagID] = true
		}

		newIDs := make([]int, 0, len(*upd.Tags))
		newSet := make(map[int]bool, len(*upd.Tags))
		for _, name := range *upd.Tags {
			tag, err := p.GetTagByName(name)
			if err != nil {
				return nil, err
			}
			if tag == nil {
				tagID, err := alloc.take("tag")
				if err != nil {
					return nil, err
				}
				tag = &models.Tag{ID: tagID, Name: name}
				if err := setJSON(batch, tagKey(tagID), tag); err != nil {
					return nil, err
				}
				if err := batch.Set(tagNameKey(name), []byte(strconv.Itoa(tagID)), nil); err != nil {
					return nil, fmt.Errorf("%w: write tag name index: %v", ErrIO, err)
				}
			}
			newIDs = append(newIDs, tag.ID)
			newSet[tag.ID] = true
		}

		for tagID := range oldTags {
			if !newSet[tagID] {
				if err := batch.Delete(indexKey("tag", tagID, id), nil); err != nil {
					return nil, fmt.Errorf("%w: drop tag index: %v", ErrIO, err)
				}
			}
		}
		for _, tagID := range newIDs {
			if !oldTags[tagID] {
				if err := batch.Set(indexKey("tag", tagID, id), []byte(strconv.Itoa(id)), nil); err != nil {
					return nil, fmt.Errorf("%w: write tag index: %v", ErrIO, err)
				}
			}
		}
		quote.TagIDs = newIDs
	}

	if err := setJSON(batch, quoteKey(id), quote); err != nil {
		return nil, err
	}
	if err := alloc.flush(batch); err != nil {
		return nil, err
	}
	if err := commit(batch); err != nil {
		return nil, err
	}
	return quote, nil
}

// DeleteQuote removes the quote and every secondary index entry that
// references it in one batch.
func (p *PebbleStore) DeleteQuote(id int) error {
	quote, err := p.GetQuote(id)
	if err != nil {
		return err
	}
	if quote == nil {
		return fmt.Errorf("%w: quote %d", ErrNotFound, id)
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	if err := p.deleteQuoteInBatch(batch, quote); err != nil {
		return err
	}
	return commit(batch)
}

func (p *PebbleStore) deleteQuoteInBatch(batch *pebble.Batch, quote *models.Quote) error {
	book, err := p.GetBook(quote.BookID)
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("%w: book %d for quote %d", ErrCorrupt, quote.BookID, quote.ID)
	}
	keys := [][]byte{
		quoteKey(quote.ID),
		indexKey("book", quote.BookID, quote.ID),
		indexKey("author", book.AuthorID, quote.ID),
	}
	for _, tagID := range quote.TagIDs {
		keys = append(keys, indexKey("tag", tagID, quote.ID))
	}
	for _, key := range keys {
		if err := batch.Delete(key, nil); err != nil {
			return fmt.Errorf("%w: delete %s: %v", ErrIO, key, err)
		}
	}
	return nil
}

// DeleteBook removes a book. Without cascade it fails with ErrHasDependents
// when the book still has quotes. With cascade it removes the quotes, the
// book, and finally the author when no other book references it, all in one
// batch.
func (p *PebbleStore) DeleteBook(id int, cascade bool) error {
	book, err := p.GetBook(id)
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("%w: book %d", ErrNotFound, id)
	}

	quotes, err := p.QuotesByBook(id)
	if err != nil {
		return err
	}
	if len(quotes) > 0 && !cascade {
		return fmt.Errorf("%w: book %d has %d quotes", ErrHasDependents, id, len(quotes))
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	for i := range quotes {
		if err := p.deleteQuoteInBatch(batch, &quotes[i]); err != nil {
			return err
		}
	}
	if err := batch.Delete(bookKey(id), nil); err != nil {
		return fmt.Errorf("%w: delete book %d: %v", ErrIO, id, err)
	}
	if err := batch.Delete(bookNatKey(book.Title, book.AuthorID), nil); err != nil {
		return fmt.Errorf("%w: delete book natural-key index: %v", ErrIO, err)
	}

	// Drop the author when this was its last book.
	books, err := p.ListBooks()
	if err != nil {
		return err
	}
	remaining := 0
	for _, b := range books {
		if b.AuthorID == book.AuthorID && b.ID != id {
			remaining++
		}
	}
	if remaining == 0 {
		author, err := p.GetAuthor(book.AuthorID)
		if err != nil {
			return err
		}
		if author != nil {
			if err := batch.Delete(authorKey(author.ID), nil); err != nil {
				return fmt.Errorf("%w: delete author %d: %v", ErrIO, author.ID, err)
			}
			if err := batch.Delete(authorNameKey(author.Name), nil); err != nil {
				return fmt.Errorf("%w: delete author name index: %v", ErrIO, err)
			}
		}
	}

	return commit(batch)
}

// Direct lookups

func (p *PebbleStore) GetBook(id int) (*models.Book, error) {
	var book models.Book
	found, err := p.getJSON(bookKey(id), &book)
	if err != nil || !found {
		return nil, err
	}
	return &book, nil
}

func (p *PebbleStore) GetAuthor(id int) (*models.Author, error) {
	var author models.Author
	found, err := p.getJSON(authorKey(id), &author)
	if err != nil || !found {
		return nil, err
	}
	return &author, nil
}

func (p *PebbleStore) GetTag(id int) (*models.Tag, error) {
	var tag models.Tag
	found, err := p.getJSON(tagKey(id), &tag)
	if err != nil || !found {
		return nil, err
	}
	return &tag, nil
}

// Natural-key lookups

func (p *PebbleStore) GetAuthorByName(name string) (*models.Author, error) {
	id, err := p.getID(authorNameKey(models.NormalizeName(name)))
	if err != nil || id == 0 {
		return nil, err
	}
	return p.GetAuthor(id)
}

func (p *PebbleStore) GetBookByKey(title string, authorID int) (*models.Book, error) {
	id, err := p.getID(bookNatKey(models.NormalizeName(title), authorID))
	if err != nil || id == 0 {
		return nil, err
	}
	return p.GetBook(id)
}

// GetBooksByTitle scans the book table rather than the natural-key index:
// titles may contain the key separator, and the table stays small enough
// that a scan is cheap.
func (p *PebbleStore) GetBooksByTitle(title string) ([]models.Book, error) {
	norm := models.NormalizeName(title)
	books, err := p.ListBooks()
	if err != nil {
		return nil, err
	}
	var out []models.Book
	for _, b := range books {
		if b.Title == norm {
			out = append(out, b)
		}
	}
	return out, nil
}

func (p *PebbleStore) GetTagByName(name string) (*models.Tag, error) {
	id, err := p.getID(tagNameKey(models.NormalizeTag(name)))
	if err != nil || id == 0 {
		return nil, err
	}
	return p.GetTag(id)
}

// Listings

// iterRows walks primary rows under prefix in key order. The zero-padded
// ids make key order equal insertion order; name/key index entries sort
// after the digit range and stay outside the bounds.
func (p *PebbleStore) iterRows(prefix string, fn func(value []byte) error) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix + "0"),
		UpperBound: []byte(prefix + ";"),
	})
	if err != nil {
		return fmt.Errorf("%w: iterate %s: %v", ErrIO, prefix, err)
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("%w: iterate %s: %v", ErrIO, prefix, err)
	}
	return nil
}

func (p *PebbleStore) ListQuotes() ([]models.Quote, error) {
	var quotes []models.Quote
	err := p.iterRows("quote:", func(value []byte) error {
		var q models.Quote
		if err := json.Unmarshal(value, &q); err != nil {
			return fmt.Errorf("%w: decode quote: %v", ErrCorrupt, err)
		}
		quotes = append(quotes, q)
		return nil
	})
	return quotes, err
}

func (p *PebbleStore) ListBooks() ([]models.Book, error) {
	var books []models.Book
	err := p.iterRows("book:", func(value []byte) error {
		var b models.Book
		if err := json.Unmarshal(value, &b); err != nil {
			return fmt.Errorf("%w: decode book: %v", ErrCorrupt, err)
		}
		books = append(books, b)
		return nil
	})
	return books, err
}

func (p *PebbleStore) ListAuthors() ([]models.Author, error) {
	var authors []models.Author
	err := p.iterRows("author:", func(value []byte) error {
		var a models.Author
		if err := json.Unmarshal(value, &a); err != nil {
			return fmt.Errorf("%w: decode author: %v", ErrCorrupt, err)
		}
		authors = append(authors, a)
		return nil
	})
	return authors, err
}

func (p *PebbleStore) ListTags() ([]models.Tag, error) {
	var tags []models.Tag
	err := p.iterRows("tag:", func(value []byte) error {
		var t models.Tag
		if err := json.Unmarshal(value, &t); err != nil {
			return fmt.Errorf("%w: decode tag: %v", ErrCorrupt, err)
		}
		tags = append(tags, t)
		return nil
	})
	return tags, err
}

// Secondary-index reads

func (p *PebbleStore) quotesByIndex(kind string, ownerID int) ([]models.Quote, error) {
	prefix := fmt.Sprintf("idx:%s:%012d:", kind, ownerID)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: []byte(prefix + ";"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %v", ErrIO, prefix, err)
	}
	defer iter.Close()

	var quotes []models.Quote
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := strconv.Atoi(string(iter.Value()))
		if err != nil {
			return nil, fmt.Errorf("%w: decode index entry %s: %v", ErrCorrupt, iter.Key(), err)
		}
		quote, err := p.GetQuote(id)
		if err != nil {
			return nil, err
		}
		if quote == nil {
			return nil, fmt.Errorf("%w: index entry %s references missing quote", ErrCorrupt, iter.Key())
		}
		quotes = append(quotes, *quote)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %v", ErrIO, prefix, err)
	}
	return quotes, nil
}

func (p *PebbleStore) QuotesByBook(bookID int) ([]models.Quote, error) {
	return p.quotesByIndex("book", bookID)
}

func (p *PebbleStore) QuotesByAuthor(authorID int) ([]models.Quote, error) {
	return p.quotesByIndex("author", authorID)
}

func (p *PebbleStore) QuotesByTag(tagID int) ([]models.Quote, error) {
	return p.quotesByIndex("tag", tagID)
}

// RandomQuote picks uniformly over the candidates matching filter.
func (p *PebbleStore) RandomQuote(filter Filter) (*models.Quote, error) {
	var (
		quotes []models.Quote
		err    error
	)
	switch {
	case filter.BookID != nil:
		quotes, err = p.QuotesByBook(*filter.BookID)
	case filter.AuthorID != nil:
		quotes, err = p.QuotesByAuthor(*filter.AuthorID)
	case filter.TagID != nil:
		quotes, err = p.QuotesByTag(*filter.TagID)
	default:
		quotes, err = p.ListQuotes()
	}
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, nil
	}
	p.rngMu.Lock()
	pick := p.rng.Intn(len(quotes))
	p.rngMu.Unlock()
	return &quotes[pick], nil
}

// Counts returns aggregate totals.
func (p *PebbleStore) Counts() (*Counts, error) {
	quotes, err := p.ListQuotes()
	if err != nil {
		return nil, err
	}
	books, err := p.ListBooks()
	if err != nil {
		return nil, err
	}
	authors, err := p.ListAuthors()
	if err != nil {
		return nil, err
	}
	tags, err := p.ListTags()
	if err != nil {
		return nil, err
	}
	counts := &Counts{
		Quotes:  len(quotes),
		Books:   len(books),
		Authors: len(authors),
		Tags:    len(tags),
	}
	for i := range quotes {
		if quotes[i].Favorite {
			counts.Favorites++
		}
	}
	return counts, nil
}

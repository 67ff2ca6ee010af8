// file: internal/query/engine.go
// version: 1.4.0
// guid: 1f2a3b4c-5d6e-7f8a-9b0c-1d2e3f4a5b6c

package query

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/jdfalk/quote-keeper/internal/database"
	"github.com/jdfalk/quote-keeper/internal/models"
)

// Field selects which value fuzzy scoring runs against.
type Field string

const (
	FieldText   Field = "text"
	FieldBook   Field = "book"
	FieldAuthor Field = "author"
	FieldTag    Field = "tag"
)

// Request describes a search. All fields are optional; absent fields impose
// no constraint. A name that matches no record yields an empty result, not
// an error.
type Request struct {
	Book         string
	Author       string
	Tag          string
	FavoriteOnly bool
	TextQuery    string
	TargetField  Field // defaults to FieldText
	From, To     *time.Time
}

// Engine answers search requests over a Store. It performs no persistence
// of its own.
type Engine struct {
	store  database.Store
	scorer Scorer
	rng    *rand.Rand
	rngMu  sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer swaps the fuzzy scoring function.
func WithScorer(s Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithRandSource seeds the engine's sampler, for reproducible tests.
func WithRandSource(src rand.Source) Option {
	return func(e *Engine) { e.rng = rand.New(src) }
}

// NewEngine creates an engine over store with the default subsequence
// scorer.
func NewEngine(store database.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		scorer: SubsequenceScorer{},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search resolves the request's exact filters against the store indices,
// then applies fuzzy scoring to the pre-filtered candidate set when a text
// query is present. Results are ordered by score descending, then
// CreatedAt ascending, then id; without a text query the order is
// CreatedAt ascending, then id. The ordering is deterministic for an
// unchanged store.
func (e *Engine) Search(req Request) ([]models.Quote, error) {
	candidates, err := e.exactCandidates(req)
	if err != nil {
		return nil, err
	}
	candidates = applyConstraints(candidates, req)

	if req.TextQuery == "" {
		sortByCreated(candidates)
		return candidates, nil
	}

	field := req.TargetField
	if field == "" {
		field = FieldText
	}
	values, err := e.fieldValues(candidates, field)
	if err != nil {
		return nil, err
	}

	type scored struct {
		quote models.Quote
		score int
	}
	var matched []scored
	for i, quote := range candidates {
		best, ok := 0, false
		for _, value := range values[i] {
			if s, m := e.scorer.Score(req.TextQuery, value); m && (!ok || s > best) {
				best, ok = s, true
			}
		}
		if ok {
			matched = append(matched, scored{quote: quote, score: best})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		if !matched[i].quote.CreatedAt.Equal(matched[j].quote.CreatedAt) {
			return matched[i].quote.CreatedAt.Before(matched[j].quote.CreatedAt)
		}
		return matched[i].quote.ID < matched[j].quote.ID
	})
	out := make([]models.Quote, len(matched))
	for i, m := range matched {
		out[i] = m.quote
	}
	return out, nil
}

// Random returns one quote picked uniformly from the candidates matching
// the request's exact filters, or (nil, nil) when nothing matches. With a
// single index filter and no favorite/date constraint it delegates to the
// store's sampler; otherwise the engine samples its filtered candidate set
// itself.
func (e *Engine) Random(req Request) (*models.Quote, error) {
	plain := !req.FavoriteOnly && req.From == nil && req.To == nil
	if plain {
		switch {
		case req.Book == "" && req.Author == "" && req.Tag == "":
			return e.store.RandomQuote(database.Filter{})
		case req.Author != "" && req.Book == "" && req.Tag == "":
			author, err := e.store.GetAuthorByName(req.Author)
			if err != nil || author == nil {
				return nil, err
			}
			return e.store.RandomQuote(database.Filter{AuthorID: &author.ID})
		case req.Tag != "" && req.Book == "" && req.Author == "":
			tag, err := e.store.GetTagByName(req.Tag)
			if err != nil || tag == nil {
				return nil, err
			}
			return e.store.RandomQuote(database.Filter{TagID: &tag.ID})
		}
	}

	candidates, err := e.exactCandidates(req)
	if err != nil {
		return nil, err
	}
	candidates = applyConstraints(candidates, req)
	if len(candidates) == 0 {
		return nil, nil
	}
	e.rngMu.Lock()
	pick := e.rng.Intn(len(candidates))
	e.rngMu.Unlock()
	return &candidates[pick], nil
}

// exactCandidates resolves book/author/tag filters through the store
// indices and intersects them. A filter naming an unknown record resolves
// to the empty set.
func (e *Engine) exactCandidates(req Request) ([]models.Quote, error) {
	var sets [][]models.Quote

	if req.Author != "" {
		author, err := e.store.GetAuthorByName(req.Author)
		if err != nil {
			return nil, err
		}
		if author == nil {
			return nil, nil
		}
		quotes, err := e.store.QuotesByAuthor(author.ID)
		if err != nil {
			return nil, err
		}
		sets = append(sets, quotes)
	}

	if req.Book != "" {
		books, err := e.store.GetBooksByTitle(req.Book)
		if err != nil {
			return nil, err
		}
		if len(books) == 0 {
			return nil, nil
		}
		var quotes []models.Quote
		for _, b := range books {
			bq, err := e.store.QuotesByBook(b.ID)
			if err != nil {
				return nil, err
			}
			quotes = append(quotes, bq...)
		}
		sets = append(sets, quotes)
	}

	if req.Tag != "" {
		tag, err := e.store.GetTagByName(req.Tag)
		if err != nil {
			return nil, err
		}
		if tag == nil {
			return nil, nil
		}
		quotes, err := e.store.QuotesByTag(tag.ID)
		if err != nil {
			return nil, err
		}
		sets = append(sets, quotes)
	}

	if len(sets) == 0 {
		return e.store.ListQuotes()
	}
	return intersect(sets), nil
}

// intersect keeps quotes present in every set, preserving the first set's
// order.
func intersect(sets [][]models.Quote) []models.Quote {
	out := sets[0]
	for _, set := range sets[1:] {
		ids := make(map[int]bool, len(set))
		for _, q := range set {
			ids[q.ID] = true
		}
		var kept []models.Quote
		for _, q := range out {
			if ids[q.ID] {
				kept = append(kept, q)
			}
		}
		out = kept
	}
	return out
}

func applyConstraints(quotes []models.Quote, req Request) []models.Quote {
	if !req.FavoriteOnly && req.From == nil && req.To == nil {
		return quotes
	}
	var out []models.Quote
	for _, q := range quotes {
		if req.FavoriteOnly && !q.Favorite {
			continue
		}
		if !q.InDateRange(req.From, req.To) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func sortByCreated(quotes []models.Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		if !quotes[i].CreatedAt.Equal(quotes[j].CreatedAt) {
			return quotes[i].CreatedAt.Before(quotes[j].CreatedAt)
		}
		return quotes[i].ID < quotes[j].ID
	})
}

// fieldValues resolves, per candidate, the strings the scorer runs
// against. Book titles, author names and tag names are looked up once and
// cached across the candidate set.
func (e *Engine) fieldValues(quotes []models.Quote, field Field) ([][]string, error) {
	out := make([][]string, len(quotes))
	books := make(map[int]*models.Book)
	authorNames := make(map[int]string)
	tagNames := make(map[int]string)

	lookupBook := func(bookID int) (*models.Book, error) {
		if book, ok := books[bookID]; ok {
			return book, nil
		}
		book, err := e.store.GetBook(bookID)
		if err != nil {
			return nil, err
		}
		if book == nil {
			return nil, fmt.Errorf("quote references missing book %d", bookID)
		}
		books[bookID] = book
		if _, ok := authorNames[book.AuthorID]; !ok {
			author, err := e.store.GetAuthor(book.AuthorID)
			if err != nil {
				return nil, err
			}
			if author == nil {
				return nil, fmt.Errorf("book references missing author %d", book.AuthorID)
			}
			authorNames[book.AuthorID] = author.Name
		}
		return book, nil
	}

	for i, q := range quotes {
		switch field {
		case FieldText:
			out[i] = []string{q.Text}
		case FieldBook:
			book, err := lookupBook(q.BookID)
			if err != nil {
				return nil, err
			}
			out[i] = []string{book.Title}
		case FieldAuthor:
			book, err := lookupBook(q.BookID)
			if err != nil {
				return nil, err
			}
			out[i] = []string{authorNames[book.AuthorID]}
		case FieldTag:
			values := make([]string, 0, len(q.TagIDs))
			for _, tagID := range q.TagIDs {
				name, ok := tagNames[tagID]
				if !ok {
					tag, err := e.store.GetTag(tagID)
					if err != nil {
						return nil, err
					}
					if tag == nil {
						return nil, fmt.Errorf("quote references missing tag %d", tagID)
					}
					name = tag.Name
					tagNames[tagID] = name
				}
				values = append(values, name)
			}
			out[i] = values
		default:
			return nil, fmt.Errorf("unknown target field %q", field)
		}
	}
	return out, nil
}

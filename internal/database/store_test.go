// file: internal/database/store_test.go
// version: 1.0.0
// guid: 9c0d1e2f-3a4b-5c6d-7e8f-9a0b1c2d3e4f

package database_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdfalk/quote-keeper/internal/database"
	"github.com/jdfalk/quote-keeper/internal/models"
	"github.com/jdfalk/quote-keeper/internal/testutil"
)

// Every behavioral test runs against both backends.
var storeTypes = []string{"pebble", "sqlite"}

func forEachStore(t *testing.T, fn func(t *testing.T, store database.Store)) {
	for _, storeType := range storeTypes {
		t.Run(storeType, func(t *testing.T) {
			fn(t, testutil.OpenStore(t, storeType))
		})
	}
}

func draft(book, author, text string, tags ...string) *models.QuoteDraft {
	return &models.QuoteDraft{Book: book, Author: author, Text: text, Tags: tags}
}

func TestPutQuoteMergesByNaturalKey(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		id1, err := store.PutQuote(draft("Hamlet", "William Shakespeare", "To be, or not to be."))
		require.NoError(t, err)
		id2, err := store.PutQuote(draft("  hamlet ", "WILLIAM SHAKESPEARE", "Brevity is the soul of wit."))
		require.NoError(t, err)
		require.Less(t, id1, id2)

		q1, err := store.GetQuote(id1)
		require.NoError(t, err)
		q2, err := store.GetQuote(id2)
		require.NoError(t, err)
		require.Equal(t, q1.BookID, q2.BookID, "same book despite casing and spacing")

		counts, err := store.Counts()
		require.NoError(t, err)
		require.Equal(t, 2, counts.Quotes)
		require.Equal(t, 1, counts.Books)
		require.Equal(t, 1, counts.Authors)
	})
}

func TestPutQuoteRejectsInvalidDraft(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		_, err := store.PutQuote(draft("", "A", "text"))
		require.ErrorIs(t, err, models.ErrInvalidDraft)

		counts, err := store.Counts()
		require.NoError(t, err)
		require.Zero(t, counts.Quotes, "failed put must leave nothing behind")
		require.Zero(t, counts.Authors)
	})
}

func TestGetAbsentReturnsNil(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		q, err := store.GetQuote(12345)
		require.NoError(t, err)
		require.Nil(t, q)

		a, err := store.GetAuthorByName("Nobody")
		require.NoError(t, err)
		require.Nil(t, a)

		tag, err := store.GetTagByName("nothing")
		require.NoError(t, err)
		require.Nil(t, tag)
	})
}

func TestListInsertionOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		texts := []string{"first", "second", "third", "fourth"}
		for _, text := range texts {
			_, err := store.PutQuote(draft("Walden", "Henry David Thoreau", text))
			require.NoError(t, err)
		}

		quotes, err := store.ListQuotes()
		require.NoError(t, err)
		require.Len(t, quotes, len(texts))
		for i, q := range quotes {
			require.Equal(t, texts[i], q.Text)
			if i > 0 {
				require.Greater(t, q.ID, quotes[i-1].ID)
			}
		}
	})
}

func TestUpdateQuote(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		id, err := store.PutQuote(draft("Hamlet", "William Shakespeare", "old text", "wisdom", "death"))
		require.NoError(t, err)

		newText := "new text"
		fav := true
		newTags := []string{"wisdom", "fate"}
		updated, err := store.UpdateQuote(id, &models.QuoteUpdate{
			Text:     &newText,
			Favorite: &fav,
			Tags:     &newTags,
		})
		require.NoError(t, err)
		require.Equal(t, "new text", updated.Text)
		require.True(t, updated.Favorite)
		require.Len(t, updated.TagIDs, 2)

		// The dropped tag index must not serve the quote anymore.
		death, err := store.GetTagByName("death")
		require.NoError(t, err)
		require.NotNil(t, death)
		byDeath, err := store.QuotesByTag(death.ID)
		require.NoError(t, err)
		require.Empty(t, byDeath)

		fate, err := store.GetTagByName("fate")
		require.NoError(t, err)
		require.NotNil(t, fate)
		byFate, err := store.QuotesByTag(fate.ID)
		require.NoError(t, err)
		require.Len(t, byFate, 1)
		require.Equal(t, id, byFate[0].ID)
	})
}

func TestUpdateAbsentQuote(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		text := "x"
		_, err := store.UpdateQuote(404, &models.QuoteUpdate{Text: &text})
		require.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestDeleteQuoteCleansIndexes(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		ids := testutil.SeedQuotes(t, store, []testutil.Seed{
			{Book: "Hamlet", Author: "William Shakespeare", Text: "one", Tags: []string{"wisdom"}},
			{Book: "Hamlet", Author: "William Shakespeare", Text: "two", Tags: []string{"wisdom"}},
		})

		require.NoError(t, store.DeleteQuote(ids[0]))

		gone, err := store.GetQuote(ids[0])
		require.NoError(t, err)
		require.Nil(t, gone)

		book, err := store.GetBooksByTitle("Hamlet")
		require.NoError(t, err)
		require.Len(t, book, 1)
		byBook, err := store.QuotesByBook(book[0].ID)
		require.NoError(t, err)
		require.Len(t, byBook, 1)
		require.Equal(t, ids[1], byBook[0].ID)

		wisdom, err := store.GetTagByName("wisdom")
		require.NoError(t, err)
		byTag, err := store.QuotesByTag(wisdom.ID)
		require.NoError(t, err)
		require.Len(t, byTag, 1)

		require.ErrorIs(t, store.DeleteQuote(ids[0]), database.ErrNotFound)
	})
}

func TestIDsNeverReused(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		first, err := store.PutQuote(draft("Hamlet", "William Shakespeare", "one"))
		require.NoError(t, err)
		second, err := store.PutQuote(draft("Hamlet", "William Shakespeare", "two"))
		require.NoError(t, err)
		require.NoError(t, store.DeleteQuote(second))

		third, err := store.PutQuote(draft("Hamlet", "William Shakespeare", "three"))
		require.NoError(t, err)
		require.Greater(t, third, second)
		require.Greater(t, second, first)
	})
}

func TestDeleteBook(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		testutil.SeedQuotes(t, store, []testutil.Seed{
			{Book: "Hamlet", Author: "William Shakespeare", Text: "one"},
			{Book: "Macbeth", Author: "William Shakespeare", Text: "two"},
		})
		hamlet, err := store.GetBooksByTitle("Hamlet")
		require.NoError(t, err)
		require.Len(t, hamlet, 1)

		err = store.DeleteBook(hamlet[0].ID, false)
		require.ErrorIs(t, err, database.ErrHasDependents)

		require.NoError(t, store.DeleteBook(hamlet[0].ID, true))

		// The other book keeps the author alive.
		author, err := store.GetAuthorByName("William Shakespeare")
		require.NoError(t, err)
		require.NotNil(t, author)

		counts, err := store.Counts()
		require.NoError(t, err)
		require.Equal(t, 1, counts.Quotes)
		require.Equal(t, 1, counts.Books)

		macbeth, err := store.GetBooksByTitle("Macbeth")
		require.NoError(t, err)
		require.NoError(t, store.DeleteBook(macbeth[0].ID, true))

		author, err = store.GetAuthorByName("William Shakespeare")
		require.NoError(t, err)
		require.Nil(t, author, "author with no books left is removed")

		require.ErrorIs(t, store.DeleteBook(hamlet[0].ID, true), database.ErrNotFound)
	})
}

func TestRandomQuote(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		empty, err := store.RandomQuote(database.Filter{})
		require.NoError(t, err)
		require.Nil(t, empty)

		testutil.SeedQuotes(t, store, []testutil.Seed{
			{Book: "Hamlet", Author: "William Shakespeare", Text: "one", Tags: []string{"wisdom"}},
			{Book: "A Tale Of Two Cities", Author: "Charles Dickens", Text: "two"},
		})

		q, err := store.RandomQuote(database.Filter{})
		require.NoError(t, err)
		require.NotNil(t, q)

		wisdom, err := store.GetTagByName("wisdom")
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			q, err = store.RandomQuote(database.Filter{TagID: &wisdom.ID})
			require.NoError(t, err)
			require.NotNil(t, q)
			require.Equal(t, "one", q.Text)
		}

		dickens, err := store.GetAuthorByName("Charles Dickens")
		require.NoError(t, err)
		q, err = store.RandomQuote(database.Filter{AuthorID: &dickens.ID})
		require.NoError(t, err)
		require.Equal(t, "two", q.Text)
	})
}

func TestRandomQuoteUniformity(t *testing.T) {
	forEachStore(t, func(t *testing.T, store database.Store) {
		testutil.SeedQuotes(t, store, []testutil.Seed{
			{Book: "Hamlet", Author: "William Shakespeare", Text: "one"},
			{Book: "Hamlet", Author: "William Shakespeare", Text: "two"},
			{Book: "Walden", Author: "Henry David Thoreau", Text: "three"},
			{Book: "Walden", Author: "Henry David Thoreau", Text: "four"},
		})

		const draws = 8000
		freq := make(map[int]int)
		for i := 0; i < draws; i++ {
			q, err := store.RandomQuote(database.Filter{})
			require.NoError(t, err)
			require.NotNil(t, q)
			freq[q.ID]++
		}

		require.Len(t, freq, 4, "every candidate must be drawable")
		for id, n := range freq {
			observed := float64(n) / draws
			require.InDelta(t, 0.25, observed, 0.03,
				"quote %d drawn with frequency %.4f", id, observed)
		}
	})
}

func TestOpenRejectsUnknownType(t *testing.T) {
	_, err := database.Open("bolt", t.TempDir()+"/store")
	require.Error(t, err)
}

func TestPebbleSecondOpenIsLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")
	store, err := database.Open("pebble", path)
	require.NoError(t, err)
	defer store.Close()

	_, err = database.Open("pebble", path)
	require.Error(t, err)
	require.True(t, errors.Is(err, database.ErrLocked))
}

func TestPebbleReopenKeepsCounters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")
	store, err := database.Open("pebble", path)
	require.NoError(t, err)

	id1, err := store.PutQuote(draft("Hamlet", "William Shakespeare", "one"))
	require.NoError(t, err)
	require.NoError(t, store.DeleteQuote(id1))
	require.NoError(t, store.Close())

	store, err = database.Open("pebble", path)
	require.NoError(t, err)
	defer store.Close()

	id2, err := store.PutQuote(draft("Hamlet", "William Shakespeare", "two"))
	require.NoError(t, err)
	require.Greater(t, id2, id1, "ids stay monotone across sessions")
}

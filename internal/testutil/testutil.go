// file: internal/testutil/testutil.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7890-abcd-ef1234567890

package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jdfalk/quote-keeper/internal/database"
	"github.com/jdfalk/quote-keeper/internal/models"
)

// OpenStore opens a fresh store of the given type under a temp directory
// and closes it when the test finishes.
func OpenStore(t *testing.T, storeType string) database.Store {
	t.Helper()
	path := t.TempDir() + "/store"
	store, err := database.Open(storeType, path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// Seed is one quote to insert via SeedQuotes.
type Seed struct {
	Book     string
	Author   string
	Text     string
	Tags     []string
	Favorite bool
	Date     string // YYYY-MM-DD, optional
}

// SeedQuotes inserts the seeds in order and returns the issued ids.
func SeedQuotes(t *testing.T, store database.Store, seeds []Seed) []int {
	t.Helper()
	ids := make([]int, len(seeds))
	for i, seed := range seeds {
		draft := &models.QuoteDraft{
			Book:     seed.Book,
			Author:   seed.Author,
			Text:     seed.Text,
			Tags:     seed.Tags,
			Favorite: seed.Favorite,
		}
		if seed.Date != "" {
			created, err := time.Parse("2006-01-02", seed.Date)
			require.NoError(t, err)
			draft.CreatedAt = created
		} else {
			draft.CreatedAt = time.Now().UTC()
		}
		id, err := store.PutQuote(draft)
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

// file: internal/transfer/transfer_test.go
// version: 1.0.0
// guid: 8d9e0f1a-2b3c-4d5e-6f7a-8b9c0d1e2f3a

package transfer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jdfalk/quote-keeper/internal/testutil"
	"github.com/jdfalk/quote-keeper/internal/transfer"
)

func TestFormatForPath(t *testing.T) {
	f, err := transfer.FormatForPath("quotes.json")
	require.NoError(t, err)
	require.Equal(t, transfer.FormatJSON, f)

	f, err = transfer.FormatForPath("quotes.tsv")
	require.NoError(t, err)
	require.Equal(t, transfer.FormatTSV, f)

	_, err = transfer.FormatForPath("quotes.csv")
	require.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	page := 12
	records := []transfer.Record{
		{Book: "Hamlet", Author: "William Shakespeare", Quote: "Brevity is the soul of wit.",
			Tags: []string{"wisdom"}, Favorite: true, Page: &page,
			Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)},
		{Book: "Walden", Author: "Henry David Thoreau", Quote: "Simplify, simplify.",
			Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, transfer.WriteRecords(&buf, transfer.FormatJSON, records))

	got, err := transfer.ReadRecords(&buf, transfer.FormatJSON)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Hamlet", got[0].Book)
	require.Equal(t, []string{"wisdom"}, got[0].Tags)
	require.NotNil(t, got[0].Page)
	require.Equal(t, 12, *got[0].Page)
	require.True(t, got[0].Favorite)
	require.Equal(t, "Simplify, simplify.", got[1].Quote)
}

func TestTSVRoundTrip(t *testing.T) {
	chapter := "III"
	records := []transfer.Record{
		{ID: 1, Book: "Hamlet", Author: "William Shakespeare", Quote: "To be, or not to be.",
			Tags: []string{"existence", "wisdom"}, Chapter: &chapter,
			Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, transfer.WriteRecords(&buf, transfer.FormatTSV, records))

	got, err := transfer.ReadRecords(&buf, transfer.FormatTSV)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "To be, or not to be.", got[0].Quote)
	require.Equal(t, []string{"existence", "wisdom"}, got[0].Tags)
	require.NotNil(t, got[0].Chapter)
	require.Equal(t, "III", *got[0].Chapter)
	require.Equal(t, 2026, got[0].Date.Year())
}

func TestTSVHeaderMapping(t *testing.T) {
	// Columns in arbitrary order and casing; extra columns ignored.
	in := "Quote\tAUTHOR\tnotes\tBook\n" +
		"Simplify, simplify.\tHenry David Thoreau\tignored\tWalden\n"
	got, err := transfer.ReadRecords(strings.NewReader(in), transfer.FormatTSV)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Walden", got[0].Book)
	require.Equal(t, "Henry David Thoreau", got[0].Author)
	require.Equal(t, "Simplify, simplify.", got[0].Quote)
}

func TestTSVMissingRequiredColumn(t *testing.T) {
	in := "book\tquote\nWalden\tSimplify.\n"
	_, err := transfer.ReadRecords(strings.NewReader(in), transfer.FormatTSV)
	require.Error(t, err)
	require.Contains(t, err.Error(), "author")
}

func TestImportAndSnapshot(t *testing.T) {
	store := testutil.OpenStore(t, "pebble")

	records := []transfer.Record{
		{Book: "hamlet", Author: "william shakespeare", Quote: "one", Tags: []string{"Wisdom"}},
		{Book: "Hamlet", Author: "William Shakespeare", Quote: "two"},
		{Book: "Walden", Author: "Henry David Thoreau", Quote: "three", Favorite: true},
	}
	n, err := transfer.Import(store, records, false)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	counts, err := store.Counts()
	require.NoError(t, err)
	require.Equal(t, 3, counts.Quotes)
	require.Equal(t, 2, counts.Books, "books merge by natural key despite casing")
	require.Equal(t, 2, counts.Authors)

	quotes, err := store.ListQuotes()
	require.NoError(t, err)
	snapshot, err := transfer.Snapshot(store, quotes)
	require.NoError(t, err)
	require.Len(t, snapshot, 3)
	require.Equal(t, "Hamlet", snapshot[0].Book)
	require.Equal(t, "William Shakespeare", snapshot[0].Author)
	require.Equal(t, []string{"wisdom"}, snapshot[0].Tags)
	require.True(t, snapshot[2].Favorite)
}

func TestImportStopsOnBadRecord(t *testing.T) {
	store := testutil.OpenStore(t, "pebble")

	records := []transfer.Record{
		{Book: "Walden", Author: "Henry David Thoreau", Quote: "good"},
		{Book: "", Author: "Nobody", Quote: "bad"},
		{Book: "Walden", Author: "Henry David Thoreau", Quote: "never reached"},
	}
	n, err := transfer.Import(store, records, false)
	require.Error(t, err)
	require.Equal(t, 1, n, "records before the bad one stay committed")

	counts, err := store.Counts()
	require.NoError(t, err)
	require.Equal(t, 1, counts.Quotes)
}

// file: internal/stats/stats_test.go
// version: 1.0.0
// guid: 4f5a6b7c-8d9e-0f1a-2b3c-4d5e6f7a8b9c

package stats_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jdfalk/quote-keeper/internal/stats"
	"github.com/jdfalk/quote-keeper/internal/testutil"
)

func TestCollectEmptyStore(t *testing.T) {
	store := testutil.OpenStore(t, "pebble")
	report, err := stats.Collect(store)
	require.NoError(t, err)
	require.Zero(t, report.Counts.Quotes)
	require.Empty(t, report.Months)
}

func TestCollectMonthlyBreakdown(t *testing.T) {
	store := testutil.OpenStore(t, "pebble")
	testutil.SeedQuotes(t, store, []testutil.Seed{
		{Book: "Hamlet", Author: "William Shakespeare", Text: "one", Date: "2026-01-05"},
		{Book: "Hamlet", Author: "William Shakespeare", Text: "two", Date: "2026-01-20"},
		// February has no activity.
		{Book: "Walden", Author: "Henry David Thoreau", Text: "three", Date: "2026-03-02", Favorite: true},
	})

	report, err := stats.Collect(store)
	require.NoError(t, err)
	require.Equal(t, 3, report.Counts.Quotes)
	require.Equal(t, 2, report.Counts.Books)
	require.Equal(t, 1, report.Counts.Favorites)

	require.Len(t, report.Months, 3, "gap months appear with zero counts")
	jan := report.Months[0]
	require.Equal(t, time.January, jan.Month.Month())
	require.Equal(t, 2, jan.Quotes)
	require.Equal(t, 1, jan.Books)

	feb := report.Months[1]
	require.Zero(t, feb.Quotes)
	require.Zero(t, feb.Books)

	mar := report.Months[2]
	require.Equal(t, 1, mar.Quotes)
	require.Equal(t, 1, mar.Books)
}

func TestBookCountsTowardEarliestQuoteMonth(t *testing.T) {
	store := testutil.OpenStore(t, "pebble")
	testutil.SeedQuotes(t, store, []testutil.Seed{
		{Book: "Hamlet", Author: "William Shakespeare", Text: "late", Date: "2026-04-01"},
		{Book: "Hamlet", Author: "William Shakespeare", Text: "early", Date: "2026-02-10"},
	})

	report, err := stats.Collect(store)
	require.NoError(t, err)
	require.Equal(t, time.February, report.Months[0].Month.Month())
	require.Equal(t, 1, report.Months[0].Books)
	last := report.Months[len(report.Months)-1]
	require.Equal(t, time.April, last.Month.Month())
	require.Zero(t, last.Books, "book already counted in February")
}

func TestRender(t *testing.T) {
	store := testutil.OpenStore(t, "pebble")
	testutil.SeedQuotes(t, store, []testutil.Seed{
		{Book: "Hamlet", Author: "William Shakespeare", Text: "one", Date: "2026-01-05"},
	})
	report, err := stats.Collect(store)
	require.NoError(t, err)

	out := stats.Render(report)
	require.Contains(t, out, "Quotes:  1")
	require.Contains(t, out, "2026-01")
	require.True(t, strings.Contains(out, "#"), "bar chart uses # marks")
}

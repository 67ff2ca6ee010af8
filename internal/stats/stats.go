// file: internal/stats/stats.go
// version: 1.0.0
// guid: 3e4f5a6b-7c8d-9e0f-1a2b-3c4d5e6f7a8b

package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jdfalk/quote-keeper/internal/database"
)

// MonthCount is quote and book activity for one calendar month.
type MonthCount struct {
	Month  time.Time // first of the month, UTC
	Quotes int
	Books  int
}

// Report aggregates store totals with a per-month activity breakdown.
type Report struct {
	Counts database.Counts
	Months []MonthCount
}

// Collect builds a report from the store. A book counts toward the month
// of its earliest quote. Months with no activity inside the covered range
// appear with zero counts so the breakdown has no gaps.
func Collect(store database.Store) (*Report, error) {
	counts, err := store.Counts()
	if err != nil {
		return nil, err
	}
	report := &Report{Counts: *counts}

	quotes, err := store.ListQuotes()
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return report, nil
	}

	quotesPerMonth := make(map[time.Time]int)
	booksPerMonth := make(map[time.Time]int)
	bookFirst := make(map[int]time.Time)
	first, last := monthOf(quotes[0].CreatedAt), monthOf(quotes[0].CreatedAt)
	for _, q := range quotes {
		m := monthOf(q.CreatedAt)
		quotesPerMonth[m]++
		if m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
		if seen, ok := bookFirst[q.BookID]; !ok || m.Before(seen) {
			bookFirst[q.BookID] = m
		}
	}
	for _, m := range bookFirst {
		booksPerMonth[m]++
	}

	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		report.Months = append(report.Months, MonthCount{
			Month:  m,
			Quotes: quotesPerMonth[m],
			Books:  booksPerMonth[m],
		})
	}
	sort.Slice(report.Months, func(i, j int) bool {
		return report.Months[i].Month.Before(report.Months[j].Month)
	})
	return report, nil
}

// Render formats the report as plain text with a bar chart per month.
func Render(report *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quotes:  %d\n", report.Counts.Quotes)
	fmt.Fprintf(&b, "Books:   %d\n", report.Counts.Books)
	fmt.Fprintf(&b, "Authors: %d\n", report.Counts.Authors)
	fmt.Fprintf(&b, "Tags:    %d\n", report.Counts.Tags)
	if len(report.Months) == 0 {
		return b.String()
	}

	max := 0
	for _, m := range report.Months {
		if m.Quotes > max {
			max = m.Quotes
		}
	}
	b.WriteString("\n")
	for _, m := range report.Months {
		fmt.Fprintf(&b, "%s  %s %d quotes, %d books\n",
			m.Month.Format("2006-01"), bar(m.Quotes, max, 40), m.Quotes, m.Books)
	}
	return b.String()
}

func monthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func bar(n, max, width int) string {
	if max == 0 {
		return ""
	}
	w := n * width / max
	if n > 0 && w == 0 {
		w = 1
	}
	return strings.Repeat("#", w)
}

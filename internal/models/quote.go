// file: internal/models/quote.go
// version: 1.1.0
// guid: 3c1f9a42-7d5e-4b8a-9c2f-6e0d1a3b5c7d

package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidDraft is returned when a draft or update record fails validation
// before it reaches the store.
var ErrInvalidDraft = errors.New("invalid record")

// Author represents a quoted author. Name is the natural key.
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Book represents a book a quote was taken from. A book belongs to exactly
// one author; (Title, AuthorID) is the natural key.
type Book struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	AuthorID int    `json:"author_id"`
}

// Tag is a free-form label attached to quotes. Names are lower-cased and
// unique.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Location marks where in a book a quote was found.
type Location struct {
	Page    *int    `json:"page,omitempty"`
	Chapter *string `json:"chapter,omitempty"`
}

func (l *Location) String() string {
	if l == nil {
		return ""
	}
	var parts []string
	if l.Chapter != nil && *l.Chapter != "" {
		parts = append(parts, *l.Chapter)
	}
	if l.Page != nil {
		parts = append(parts, fmt.Sprintf("p. %d", *l.Page))
	}
	return strings.Join(parts, ", ")
}

// Quote is a stored excerpt. IDs are issued monotonically and never reused,
// so exported references stay valid across sessions.
type Quote struct {
	ID        int       `json:"id"`
	BookID    int       `json:"book_id"`
	Text      string    `json:"text"`
	Location  *Location `json:"location,omitempty"`
	TagIDs    []int     `json:"tag_ids,omitempty"`
	Favorite  bool      `json:"favorite,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasTag reports whether the quote carries the given tag id.
func (q *Quote) HasTag(tagID int) bool {
	for _, id := range q.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// InDateRange reports whether the quote was recorded inside [from, to].
// A nil bound imposes no constraint.
func (q *Quote) InDateRange(from, to *time.Time) bool {
	if from != nil && q.CreatedAt.Before(*from) {
		return false
	}
	if to != nil && q.CreatedAt.After(*to) {
		return false
	}
	return true
}

// QuoteDraft is the validated input record for creating a quote. Author,
// book and tags are referenced by natural key and upserted by the store.
type QuoteDraft struct {
	Book      string    `json:"book"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags,omitempty"`
	Location  *Location `json:"location,omitempty"`
	Favorite  bool      `json:"favorite,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"` // zero value means "now"
}

// Validate checks the draft and normalizes its natural-key fields in place.
// It must pass before the draft is handed to a store.
func (d *QuoteDraft) Validate() error {
	d.Book = NormalizeName(d.Book)
	d.Author = NormalizeName(d.Author)
	d.Text = strings.TrimSpace(d.Text)
	if d.Book == "" {
		return fmt.Errorf("%w: book title is required", ErrInvalidDraft)
	}
	if d.Author == "" {
		return fmt.Errorf("%w: author name is required", ErrInvalidDraft)
	}
	if d.Text == "" {
		return fmt.Errorf("%w: quote text is required", ErrInvalidDraft)
	}
	if err := validateLocation(d.Location); err != nil {
		return err
	}
	d.Tags = NormalizeTags(d.Tags)
	return nil
}

// QuoteUpdate describes an edit to an existing quote. Nil fields leave the
// current value untouched. Book and author are immutable after creation.
type QuoteUpdate struct {
	Text          *string
	Location      *Location
	ClearLocation bool
	Tags          *[]string
	Favorite      *bool
}

// Validate checks and normalizes the update in place.
func (u *QuoteUpdate) Validate() error {
	if u.Text != nil {
		t := strings.TrimSpace(*u.Text)
		if t == "" {
			return fmt.Errorf("%w: quote text cannot be emptied", ErrInvalidDraft)
		}
		u.Text = &t
	}
	if u.Location != nil && u.ClearLocation {
		return fmt.Errorf("%w: cannot both set and clear location", ErrInvalidDraft)
	}
	if err := validateLocation(u.Location); err != nil {
		return err
	}
	if u.Tags != nil {
		tags := NormalizeTags(*u.Tags)
		u.Tags = &tags
	}
	return nil
}

func validateLocation(l *Location) error {
	if l == nil {
		return nil
	}
	if l.Page != nil && *l.Page < 1 {
		return fmt.Errorf("%w: page must be positive", ErrInvalidDraft)
	}
	return nil
}

// NormalizeName collapses whitespace and title-cases a book title or author
// name so natural-key lookups are insensitive to casing and spacing.
func NormalizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(s)
}

// NormalizeTag lower-cases and trims a tag name.
func NormalizeTag(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeTags normalizes each tag, drops empties and duplicates, and
// returns the result sorted for stable comparisons.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// SplitTags splits a comma-separated tag list as entered on the command line.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

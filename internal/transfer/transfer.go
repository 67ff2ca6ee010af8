// file: internal/transfer/transfer.go
// version: 1.3.0
// guid: 7c8d9e0f-1a2b-3c4d-5e6f-7a8b9c0d1e2f

package transfer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/jdfalk/quote-keeper/internal/database"
	"github.com/jdfalk/quote-keeper/internal/models"
)

// Format selects the interchange encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
)

// FormatForPath guesses the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch {
	case strings.HasSuffix(path, ".json"):
		return FormatJSON, nil
	case strings.HasSuffix(path, ".tsv"):
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("cannot infer format from %q (expected .json or .tsv)", path)
	}
}

// Record is the interchange row for one quote. The id is informational on
// export and ignored on import; the store issues fresh ids.
type Record struct {
	ID       int       `json:"id,omitempty"`
	Book     string    `json:"book"`
	Author   string    `json:"author"`
	Tags     []string  `json:"tags,omitempty"`
	Date     time.Time `json:"date"`
	Quote    string    `json:"quote"`
	Favorite bool      `json:"favorite,omitempty"`
	Page     *int      `json:"page,omitempty"`
	Chapter  *string   `json:"chapter,omitempty"`
}

const dateLayout = "2006-01-02"

var tsvHeader = []string{"id", "book", "author", "tags", "date", "quote", "favorite", "page", "chapter"}

// Snapshot dumps the given quotes as records, resolving names through the
// store API.
func Snapshot(store database.Store, quotes []models.Quote) ([]Record, error) {
	records := make([]Record, 0, len(quotes))
	for _, q := range quotes {
		book, err := store.GetBook(q.BookID)
		if err != nil {
			return nil, err
		}
		if book == nil {
			return nil, fmt.Errorf("quote %d references missing book %d", q.ID, q.BookID)
		}
		author, err := store.GetAuthor(book.AuthorID)
		if err != nil {
			return nil, err
		}
		if author == nil {
			return nil, fmt.Errorf("book %d references missing author %d", book.ID, book.AuthorID)
		}
		rec := Record{
			ID:       q.ID,
			Book:     book.Title,
			Author:   author.Name,
			Date:     q.CreatedAt,
			Quote:    q.Text,
			Favorite: q.Favorite,
		}
		if q.Location != nil {
			rec.Page = q.Location.Page
			rec.Chapter = q.Location.Chapter
		}
		for _, tagID := range q.TagIDs {
			tag, err := store.GetTag(tagID)
			if err != nil {
				return nil, err
			}
			if tag == nil {
				return nil, fmt.Errorf("quote %d references missing tag %d", q.ID, tagID)
			}
			rec.Tags = append(rec.Tags, tag.Name)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteRecords serializes records to w in the given format. JSON is a
// stream of objects, one per quote; TSV carries a header row.
func WriteRecords(w io.Writer, format Format, records []Record) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		for i := range records {
			if err := enc.Encode(&records[i]); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
		}
		return nil
	case FormatTSV:
		cw := csv.NewWriter(w)
		cw.Comma = '\t'
		if err := cw.Write(tsvHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for _, rec := range records {
			page := ""
			if rec.Page != nil {
				page = strconv.Itoa(*rec.Page)
			}
			chapter := ""
			if rec.Chapter != nil {
				chapter = *rec.Chapter
			}
			row := []string{
				strconv.Itoa(rec.ID),
				rec.Book,
				rec.Author,
				strings.Join(rec.Tags, ","),
				rec.Date.Format(dateLayout),
				rec.Quote,
				strconv.FormatBool(rec.Favorite),
				page,
				chapter,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// ReadRecords parses records from r. JSON input is a stream of objects;
// TSV input needs at least book, author and quote columns, matched by
// header name case-insensitively in any order.
func ReadRecords(r io.Reader, format Format) ([]Record, error) {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		var records []Record
		for {
			var rec Record
			if err := dec.Decode(&rec); err == io.EOF {
				return records, nil
			} else if err != nil {
				return nil, fmt.Errorf("decode record: %w", err)
			}
			records = append(records, rec)
		}
	case FormatTSV:
		return readTSV(r)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func readTSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"book", "author", "quote"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		rec := Record{
			Book:   cell(row, "book"),
			Author: cell(row, "author"),
			Quote:  cell(row, "quote"),
		}
		if tags := cell(row, "tags"); tags != "" {
			rec.Tags = models.SplitTags(tags)
		}
		if date := cell(row, "date"); date != "" {
			d, err := time.Parse(dateLayout, date)
			if err != nil {
				return nil, fmt.Errorf("parse date %q: %w", date, err)
			}
			rec.Date = d
		}
		if fav := cell(row, "favorite"); fav != "" {
			b, err := strconv.ParseBool(fav)
			if err != nil {
				return nil, fmt.Errorf("parse favorite %q: %w", fav, err)
			}
			rec.Favorite = b
		}
		if page := cell(row, "page"); page != "" {
			p, err := strconv.Atoi(page)
			if err != nil {
				return nil, fmt.Errorf("parse page %q: %w", page, err)
			}
			rec.Page = &p
		}
		if chapter := cell(row, "chapter"); chapter != "" {
			rec.Chapter = &chapter
		}
		records = append(records, rec)
	}
}

// Import inserts records through the store API. Duplicate books and
// authors merge by natural key inside PutQuote. Returns the number of
// quotes added; on a bad record the import stops with the prior records
// committed.
func Import(store database.Store, records []Record, showProgress bool) (int, error) {
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(records)), "importing")
	}
	for i, rec := range records {
		draft := &models.QuoteDraft{
			Book:      rec.Book,
			Author:    rec.Author,
			Text:      rec.Quote,
			Tags:      rec.Tags,
			Favorite:  rec.Favorite,
			CreatedAt: rec.Date,
		}
		if rec.Page != nil || rec.Chapter != nil {
			draft.Location = &models.Location{Page: rec.Page, Chapter: rec.Chapter}
		}
		if _, err := store.PutQuote(draft); err != nil {
			return i, fmt.Errorf("record %d: %w", i+1, err)
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return len(records), nil
}

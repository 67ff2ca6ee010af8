// file: cmd/diagnostics.go
// version: 2.0.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble/v2"
	"github.com/spf13/cobra"

	"github.com/jdfalk/quote-keeper/internal/config"
	"github.com/jdfalk/quote-keeper/internal/metrics"
)

var (
	diagnosticsCmd = &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging and inspection helpers",
		Long:  "Diagnostic utilities for inspecting the quote store.",
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Verify referential integrity",
		Long:  "Verify that every quote's book, author and tag references resolve and report any that do not.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntegrityCheck()
		},
	}

	metricsCmd = &cobra.Command{
		Use:   "metrics",
		Short: "Dump process metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetricsDump()
		},
	}

	rawQueryCmd = &cobra.Command{
		Use:   "query",
		Short: "Inspect raw store keys (Pebble only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			prefix, _ := cmd.Flags().GetString("prefix")
			return runRawPebbleQuery(limit, prefix)
		},
	}
)

func init() {
	rawQueryCmd.Flags().Int("limit", 5, "Number of keys to display")
	rawQueryCmd.Flags().String("prefix", "quote:", "Key prefix to inspect")

	diagnosticsCmd.AddCommand(checkCmd)
	diagnosticsCmd.AddCommand(metricsCmd)
	diagnosticsCmd.AddCommand(rawQueryCmd)
	rootCmd.AddCommand(diagnosticsCmd)
}

func runIntegrityCheck() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	quotes, err := store.ListQuotes()
	if err != nil {
		return fmt.Errorf("failed to list quotes: %w", err)
	}

	broken := 0
	for _, q := range quotes {
		book, err := store.GetBook(q.BookID)
		if err != nil {
			return err
		}
		if book == nil {
			fmt.Printf("quote #%d references missing book %d\n", q.ID, q.BookID)
			broken++
			continue
		}
		author, err := store.GetAuthor(book.AuthorID)
		if err != nil {
			return err
		}
		if author == nil {
			fmt.Printf("book #%d references missing author %d\n", book.ID, book.AuthorID)
			broken++
		}
		for _, tagID := range q.TagIDs {
			tag, err := store.GetTag(tagID)
			if err != nil {
				return err
			}
			if tag == nil {
				fmt.Printf("quote #%d references missing tag %d\n", q.ID, tagID)
				broken++
			}
		}
	}

	if broken == 0 {
		fmt.Printf("Checked %d quote(s); all references resolve.\n", len(quotes))
		return nil
	}
	return fmt.Errorf("%d broken reference(s) found", broken)
}

func runMetricsDump() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := store.Counts()
	if err != nil {
		return err
	}
	metrics.SetQuotes(counts.Quotes)
	metrics.UpdateProcessGauges()

	families, err := metrics.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fmt.Printf("%s %v\n", family.GetName(), m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Printf("%s %v\n", family.GetName(), m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Printf("%s count=%d sum=%v\n", family.GetName(), h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}

func runRawPebbleQuery(limit int, prefix string) error {
	if limit <= 0 {
		return errors.New("limit must be positive")
	}
	if config.AppConfig.StoreType != "pebble" {
		return fmt.Errorf("raw inspection is only available for Pebble stores")
	}

	db, err := pebble.Open(config.AppConfig.StorePath, &pebble.Options{
		FormatMajorVersion: pebble.FormatNewest,
	})
	if err != nil {
		return fmt.Errorf("failed to open Pebble store: %w", err)
	}
	defer db.Close()

	iterOpts := &pebble.IterOptions{}
	if prefix != "" {
		iterOpts.LowerBound = []byte(prefix)
		iterOpts.UpperBound = append([]byte(prefix), 0xFF)
	}

	iter, err := db.NewIter(iterOpts)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	for ok := iter.First(); ok && iter.Valid(); ok = iter.Next() {
		fmt.Printf("Key: %s\n", string(iter.Key()))
		fmt.Printf("Value: %s\n", truncateString(string(iter.Value()), 500))
		fmt.Println("---")
		count++
		if count >= limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}
	if count == 0 {
		fmt.Println("No keys matched the requested prefix.")
	}
	return nil
}

func truncateString(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}

// file: cmd/search.go
// version: 1.0.0
// guid: 5e6f7a8b-9c0d-1e2f-3a4b-5c6d7e8f9a0b

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdfalk/quote-keeper/internal/metrics"
	"github.com/jdfalk/quote-keeper/internal/query"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search quotes",
	Long: `Search quotes. Filter flags match exactly; the free-text query matches
fuzzily against the target field, so partial and out-of-order-case input
still finds results. Without a query the filters alone select the output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(cmd)
		if err != nil {
			return err
		}
		req.TextQuery = strings.Join(args, " ")
		if field, _ := cmd.Flags().GetString("field"); field != "" {
			switch query.Field(field) {
			case query.FieldText, query.FieldBook, query.FieldAuthor, query.FieldTag:
				req.TargetField = query.Field(field)
			default:
				return fmt.Errorf("unknown field %q (expected text, book, author or tag)", field)
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		engine := query.NewEngine(store)
		start := time.Now()
		quotes, err := engine.Search(req)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		metrics.IncSearch()
		metrics.ObserveSearchDuration(time.Since(start))
		return printQuotes(store, quotes)
	},
}

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Show a random quote",
	Long:  `Show one quote picked uniformly from the quotes matching the filter flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(cmd)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		engine := query.NewEngine(store)
		quote, err := engine.Random(req)
		if err != nil {
			return fmt.Errorf("random pick failed: %w", err)
		}
		if quote == nil {
			fmt.Println("No quotes match.")
			return nil
		}
		return printQuote(store, quote)
	},
}

func init() {
	filterFlags(searchCmd)
	searchCmd.Flags().String("field", "", "field the query matches against: text (default), book, author or tag")
	filterFlags(randomCmd)

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(randomCmd)
}

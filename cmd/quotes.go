// file: cmd/quotes.go
// version: 1.1.0
// guid: 4d5e6f7a-8b9c-0d1e-2f3a-4b5c6d7e8f9a

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdfalk/quote-keeper/internal/database"
	"github.com/jdfalk/quote-keeper/internal/metrics"
	"github.com/jdfalk/quote-keeper/internal/models"
)

var addCmd = &cobra.Command{
	Use:   "add [quote text]",
	Short: "Add a quote",
	Long:  `Add a quote with its book, author, tags and location. Books and authors are created on first use and merged by name afterwards.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		draft := &models.QuoteDraft{Text: strings.Join(args, " ")}
		draft.Book, _ = cmd.Flags().GetString("book")
		draft.Author, _ = cmd.Flags().GetString("author")
		draft.Favorite, _ = cmd.Flags().GetBool("favorite")
		if tags, _ := cmd.Flags().GetString("tags"); tags != "" {
			draft.Tags = models.SplitTags(tags)
		}
		if date, _ := cmd.Flags().GetString("date"); date != "" {
			t, err := parseDate(date)
			if err != nil {
				return err
			}
			draft.CreatedAt = t
		} else {
			draft.CreatedAt = time.Now().UTC()
		}
		if err := applyLocationFlags(cmd, &draft.Location); err != nil {
			return err
		}

		id, err := store.PutQuote(draft)
		if err != nil {
			return fmt.Errorf("failed to add quote: %w", err)
		}
		metrics.IncQuoteAdded()
		fmt.Printf("Added quote #%d\n", id)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		quote, err := store.GetQuote(id)
		if err != nil {
			return err
		}
		if quote == nil {
			return fmt.Errorf("no quote with id %d", id)
		}
		return printQuote(store, quote)
	},
}

var listCmd = &cobra.Command{
	Use:   "list [quotes|books|authors|tags]",
	Short: "List stored records",
	Long:  `List quotes (default), books, authors or tags in insertion order.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := "quotes"
		if len(args) == 1 {
			kind = args[0]
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		switch kind {
		case "quotes":
			quotes, err := store.ListQuotes()
			if err != nil {
				return err
			}
			return printQuotes(store, quotes)
		case "books":
			books, err := store.ListBooks()
			if err != nil {
				return err
			}
			for _, b := range books {
				author, err := store.GetAuthor(b.AuthorID)
				if err != nil {
					return err
				}
				name := ""
				if author != nil {
					name = author.Name
				}
				fmt.Printf("#%d  %s by %s\n", b.ID, b.Title, name)
			}
			fmt.Printf("%d book(s)\n", len(books))
			return nil
		case "authors":
			authors, err := store.ListAuthors()
			if err != nil {
				return err
			}
			for _, a := range authors {
				fmt.Printf("#%d  %s\n", a.ID, a.Name)
			}
			fmt.Printf("%d author(s)\n", len(authors))
			return nil
		case "tags":
			tags, err := store.ListTags()
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Printf("#%d  %s\n", t.ID, t.Name)
			}
			fmt.Printf("%d tag(s)\n", len(tags))
			return nil
		default:
			return fmt.Errorf("unknown kind %q (expected quotes, books, authors or tags)", kind)
		}
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a quote",
	Long:  `Edit a quote's text, tags, location or favorite flag. The book and author cannot change; delete and re-add the quote instead.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		update := &models.QuoteUpdate{}
		if cmd.Flags().Changed("text") {
			text, _ := cmd.Flags().GetString("text")
			update.Text = &text
		}
		if cmd.Flags().Changed("tags") {
			raw, _ := cmd.Flags().GetString("tags")
			tags := models.SplitTags(raw)
			update.Tags = &tags
		}
		if cmd.Flags().Changed("favorite") {
			fav, _ := cmd.Flags().GetBool("favorite")
			update.Favorite = &fav
		}
		if clear, _ := cmd.Flags().GetBool("clear-location"); clear {
			update.ClearLocation = true
		} else if err := applyLocationFlags(cmd, &update.Location); err != nil {
			return err
		}

		quote, err := store.UpdateQuote(id, update)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("no quote with id %d", id)
			}
			return fmt.Errorf("failed to edit quote: %w", err)
		}
		metrics.IncQuoteEdited()
		fmt.Printf("Updated quote #%d\n", id)
		return printQuote(store, quote)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a quote",
	Long:  `Delete a quote. The book, author and tags stay; use delete-book to remove a book and its author.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if force, _ := cmd.Flags().GetBool("yes"); !force {
			confirmed, err := promptYesNo(fmt.Sprintf("Delete quote #%d", id))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted. Nothing deleted.")
				return nil
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteQuote(id); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("no quote with id %d", id)
			}
			return fmt.Errorf("failed to delete quote: %w", err)
		}
		metrics.IncQuoteDeleted()
		fmt.Printf("Deleted quote #%d\n", id)
		return nil
	},
}

var deleteBookCmd = &cobra.Command{
	Use:   "delete-book <id>",
	Short: "Delete a book",
	Long:  `Delete a book. Refuses when the book still has quotes unless --cascade removes them too.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		cascade, _ := cmd.Flags().GetBool("cascade")
		if force, _ := cmd.Flags().GetBool("yes"); !force {
			action := fmt.Sprintf("Delete book #%d", id)
			if cascade {
				action += " and all its quotes"
			}
			confirmed, err := promptYesNo(action)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted. Nothing deleted.")
				return nil
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteBook(id, cascade); err != nil {
			switch {
			case errors.Is(err, database.ErrNotFound):
				return fmt.Errorf("no book with id %d", id)
			case errors.Is(err, database.ErrHasDependents):
				return fmt.Errorf("book #%d still has quotes; pass --cascade to delete them too", id)
			}
			return fmt.Errorf("failed to delete book: %w", err)
		}
		fmt.Printf("Deleted book #%d\n", id)
		return nil
	},
}

func init() {
	addCmd.Flags().String("book", "", "book title (required)")
	addCmd.Flags().StringP("author", "a", "", "author name (required)")
	addCmd.Flags().StringP("tags", "t", "", "comma-separated tags")
	addCmd.Flags().String("date", "", "date recorded (YYYY-MM-DD, default today)")
	addCmd.Flags().Bool("favorite", false, "mark as favorite")
	addCmd.Flags().Int("page", 0, "page number")
	addCmd.Flags().String("chapter", "", "chapter name or number")
	addCmd.MarkFlagRequired("book")
	addCmd.MarkFlagRequired("author")

	editCmd.Flags().String("text", "", "replace the quote text")
	editCmd.Flags().StringP("tags", "t", "", "replace the tag set (comma-separated)")
	editCmd.Flags().Bool("favorite", false, "set or clear the favorite flag")
	editCmd.Flags().Int("page", 0, "set the page number")
	editCmd.Flags().String("chapter", "", "set the chapter")
	editCmd.Flags().Bool("clear-location", false, "remove the location")

	deleteCmd.Flags().Bool("yes", false, "skip confirmation prompt")
	deleteBookCmd.Flags().Bool("yes", false, "skip confirmation prompt")
	deleteBookCmd.Flags().Bool("cascade", false, "also delete the book's quotes")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(deleteBookCmd)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// applyLocationFlags fills *loc from --page/--chapter when either was set.
func applyLocationFlags(cmd *cobra.Command, loc **models.Location) error {
	if !cmd.Flags().Changed("page") && !cmd.Flags().Changed("chapter") {
		return nil
	}
	l := &models.Location{}
	if cmd.Flags().Changed("page") {
		page, _ := cmd.Flags().GetInt("page")
		if page <= 0 {
			return fmt.Errorf("page must be positive")
		}
		l.Page = &page
	}
	if cmd.Flags().Changed("chapter") {
		chapter, _ := cmd.Flags().GetString("chapter")
		l.Chapter = &chapter
	}
	*loc = l
	return nil
}

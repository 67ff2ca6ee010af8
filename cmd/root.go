// file: cmd/root.go
// version: 2.0.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdfalk/quote-keeper/internal/config"
	"github.com/jdfalk/quote-keeper/internal/database"
	"github.com/jdfalk/quote-keeper/internal/metrics"
	"github.com/jdfalk/quote-keeper/internal/models"
	"github.com/jdfalk/quote-keeper/internal/query"
)

var cfgFile string
var storePath string
var storeType string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quote-keeper",
	Short: "Store and search quotes from the books you read",
	Long: `Quote Keeper records quotes from books along with their author, tags
and location, and answers exact, fuzzy and random queries over them.

All data lives in a local store; no network access is required.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.quote-keeper.yaml)")
	rootCmd.PersistentFlags().StringVar(&storePath, "db", "", "path to the store (default: $HOME/.quote-keeper/store)")
	rootCmd.PersistentFlags().StringVar(&storeType, "db-type", "pebble", "store type: pebble (default) or sqlite")

	viper.BindPFlag("store_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("store_type", rootCmd.PersistentFlags().Lookup("db-type"))

	metrics.Register()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".quote-keeper")
	}

	viper.SetEnvPrefix("QUOTE_KEEPER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	config.InitConfig()

	// Ensure store directory exists
	if dir := filepath.Dir(config.AppConfig.StorePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("Error creating store directory: %v\n", err)
		}
	}
}

// openStore opens the configured store. Every command opens its own
// handle and closes it when done.
func openStore() (database.Store, error) {
	store, err := database.Open(config.AppConfig.StoreType, config.AppConfig.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

// filterFlags registers the shared search filter flags on cmd.
func filterFlags(cmd *cobra.Command) {
	cmd.Flags().String("book", "", "only quotes from this book")
	cmd.Flags().StringP("author", "a", "", "only quotes by this author")
	cmd.Flags().StringP("tag", "t", "", "only quotes with this tag")
	cmd.Flags().Bool("favorites", false, "only favorite quotes")
	cmd.Flags().String("from", "", "only quotes on or after this date (YYYY-MM-DD or 'today')")
	cmd.Flags().String("to", "", "only quotes on or before this date (YYYY-MM-DD or 'today')")
}

// buildRequest collects the shared filter flags into a query request.
func buildRequest(cmd *cobra.Command) (query.Request, error) {
	var req query.Request
	req.Book, _ = cmd.Flags().GetString("book")
	req.Author, _ = cmd.Flags().GetString("author")
	req.Tag, _ = cmd.Flags().GetString("tag")
	req.FavoriteOnly, _ = cmd.Flags().GetBool("favorites")

	if from, _ := cmd.Flags().GetString("from"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			return req, err
		}
		req.From = &t
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			return req, err
		}
		// The flag covers the whole named day.
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		req.To = &t
	}
	return req, nil
}

func parseDate(s string) (time.Time, error) {
	if strings.EqualFold(s, "today") {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD or 'today')", s)
	}
	return t, nil
}

// printQuote renders one quote with its book, author and tags resolved.
func printQuote(store database.Store, q *models.Quote) error {
	book, err := store.GetBook(q.BookID)
	if err != nil {
		return err
	}
	author := (*models.Author)(nil)
	if book != nil {
		author, err = store.GetAuthor(book.AuthorID)
		if err != nil {
			return err
		}
	}

	fmt.Printf("#%d  %s\n", q.ID, q.CreatedAt.Format("2006-01-02"))
	fmt.Printf("  %q\n", q.Text)
	line := "  "
	if book != nil {
		line += book.Title
	}
	if author != nil {
		line += " by " + author.Name
	}
	fmt.Println(line)
	if q.Location != nil {
		loc := "  at"
		if q.Location.Chapter != nil {
			loc += " chapter " + *q.Location.Chapter
		}
		if q.Location.Page != nil {
			loc += fmt.Sprintf(" page %d", *q.Location.Page)
		}
		fmt.Println(loc)
	}
	if len(q.TagIDs) > 0 {
		var names []string
		for _, tagID := range q.TagIDs {
			tag, err := store.GetTag(tagID)
			if err != nil {
				return err
			}
			if tag != nil {
				names = append(names, tag.Name)
			}
		}
		fmt.Printf("  tags: %s\n", strings.Join(names, ", "))
	}
	if q.Favorite {
		fmt.Println("  * favorite")
	}
	return nil
}

func printQuotes(store database.Store, quotes []models.Quote) error {
	for i := range quotes {
		if err := printQuote(store, &quotes[i]); err != nil {
			return err
		}
		fmt.Println("---")
	}
	fmt.Printf("%d quote(s)\n", len(quotes))
	return nil
}

func promptYesNo(action string) (bool, error) {
	fmt.Printf("%s? Type 'yes' to confirm: ", action)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes", nil
}

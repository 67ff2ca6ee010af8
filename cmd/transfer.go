// file: cmd/transfer.go
// version: 1.0.0
// guid: 6f7a8b9c-0d1e-2f3a-4b5c-6d7e8f9a0b1c

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdfalk/quote-keeper/internal/config"
	"github.com/jdfalk/quote-keeper/internal/database"
	"github.com/jdfalk/quote-keeper/internal/metrics"
	"github.com/jdfalk/quote-keeper/internal/transfer"
	"github.com/jdfalk/quote-keeper/internal/watcher"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import quotes from a JSON or TSV file",
	Long:  `Import quotes from a JSON or TSV file. Books, authors and tags merge by name with existing records.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := importFile(store, args[0], true)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d quote(s) from %s\n", n, args[0])
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export all quotes to a JSON or TSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := transfer.FormatForPath(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		quotes, err := store.ListQuotes()
		if err != nil {
			return err
		}
		records, err := transfer.Snapshot(store, quotes)
		if err != nil {
			return err
		}

		out, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer out.Close()
		if err := transfer.WriteRecords(out, format, records); err != nil {
			return err
		}
		fmt.Printf("Exported %d quote(s) to %s\n", len(records), args[0])
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and import dropped files",
	Long:  `Watch a directory and import any .json or .tsv file dropped into it. Imported files are renamed with a .done suffix. Runs until interrupted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := config.AppConfig.ImportDir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return fmt.Errorf("no import directory given (set import_dir or pass one)")
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create import directory: %w", err)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		debounce, _ := cmd.Flags().GetDuration("debounce")
		w := watcher.New(func(paths []string) {
			for _, path := range paths {
				n, err := importFile(store, path, false)
				if err != nil {
					log.Printf("[ERROR] import %s: %v", path, err)
					continue
				}
				log.Printf("[INFO] imported %d quote(s) from %s", n, path)
				if err := os.Rename(path, path+".done"); err != nil {
					log.Printf("[WARN] cannot rename %s: %v", path, err)
				}
			}
		}, debounce)
		if err := w.Start(dir); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer w.Stop()

		fmt.Printf("Watching %s (Ctrl-C to stop)\n", dir)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		fmt.Println("Stopping.")
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", 2*time.Second, "settle time before importing changed files")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
}

func importFile(store database.Store, path string, showProgress bool) (int, error) {
	format, err := transfer.FormatForPath(path)
	if err != nil {
		return 0, err
	}
	in, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open import file: %w", err)
	}
	defer in.Close()

	records, err := transfer.ReadRecords(in, format)
	if err != nil {
		return 0, err
	}
	n, err := transfer.Import(store, records, showProgress)
	metrics.AddRecordsImported(n)
	return n, err
}

// file: cmd/backup.go
// version: 1.0.0
// guid: 7a8b9c0d-1e2f-3a4b-5c6d-7e8f9a0b1c2d

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdfalk/quote-keeper/internal/backup"
	"github.com/jdfalk/quote-keeper/internal/config"
	"github.com/jdfalk/quote-keeper/internal/stats"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create and manage backups",
	Long:  `Backups are compressed logical exports, so a backup taken with one store backend restores into the other.`,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		cfg := backup.DefaultConfig()
		cfg.BackupDir = config.AppConfig.BackupDir
		if max, _ := cmd.Flags().GetInt("max"); max > 0 {
			cfg.MaxBackups = max
		}
		manifest, err := backup.Create(store, config.AppConfig.StoreType, cfg)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Backup %s: %d quote(s), %s\n", manifest.ID, manifest.Quotes, manifest.Archive)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		manifests, err := backup.List(config.AppConfig.BackupDir)
		if err != nil {
			return err
		}
		if len(manifests) == 0 {
			fmt.Println("No backups found.")
			return nil
		}
		for _, m := range manifests {
			fmt.Printf("%s  %s  %d quote(s)  %s\n", m.ID, m.CreatedAt.Format("2006-01-02 15:04"), m.Quotes, m.StoreType)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a backup into the store",
	Long:  `Restore a backup into the store. Restored quotes merge with existing records by book and author name; the store is not wiped first.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if force, _ := cmd.Flags().GetBool("yes"); !force {
			confirmed, err := promptYesNo(fmt.Sprintf("Restore backup %s into %s", args[0], config.AppConfig.StorePath))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := backup.Restore(store, config.AppConfig.BackupDir, args[0])
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored %d quote(s) from backup %s\n", n, args[0])
		return nil
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := backup.Delete(config.AppConfig.BackupDir, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted backup %s\n", args[0])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	Long:  `Show record totals and a per-month breakdown of quote and book activity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := stats.Collect(store)
		if err != nil {
			return fmt.Errorf("failed to collect stats: %w", err)
		}
		fmt.Print(stats.Render(report))
		return nil
	},
}

func init() {
	backupCreateCmd.Flags().Int("max", 0, "keep at most this many backups (0 uses the default)")
	backupRestoreCmd.Flags().Bool("yes", false, "skip confirmation prompt")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupDeleteCmd)

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(statsCmd)
}

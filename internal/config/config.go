// file: internal/config/config.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	StorePath string
	StoreType string // "pebble" (default) or "sqlite"
	ImportDir string
	BackupDir string
}

var AppConfig Config

// InitConfig initializes the application configuration
func InitConfig() {
	viper.SetDefault("store_type", "pebble")
	viper.SetDefault("store_path", defaultStorePath())
	viper.SetDefault("backup_dir", "backups")

	AppConfig = Config{
		StorePath: viper.GetString("store_path"),
		StoreType: viper.GetString("store_type"),
		ImportDir: viper.GetString("import_dir"),
		BackupDir: viper.GetString("backup_dir"),
	}

	// Normalize store type
	if AppConfig.StoreType == "sqlite3" {
		AppConfig.StoreType = "sqlite"
	}
	if AppConfig.StoreType == "" {
		AppConfig.StoreType = "pebble"
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quote-keeper"
	}
	return filepath.Join(home, ".quote-keeper", "store")
}

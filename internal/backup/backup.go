// file: internal/backup/backup.go
// version: 2.0.0
// guid: 8f9e0a1b-2c3d-4e5f-6a7b-8c9d0e1f2a3b

package backup

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/jdfalk/quote-keeper/internal/database"
	"github.com/jdfalk/quote-keeper/internal/transfer"
)

// Manifest describes one backup archive. It is written next to the
// archive as <id>.yaml and read back on restore to verify integrity.
type Manifest struct {
	ID        string    `yaml:"id"`
	Archive   string    `yaml:"archive"`
	Checksum  string    `yaml:"checksum"`
	Quotes    int       `yaml:"quotes"`
	StoreType string    `yaml:"store_type"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Config holds backup settings.
type Config struct {
	BackupDir        string
	MaxBackups       int
	CompressionLevel int
}

// DefaultConfig returns the default backup settings.
func DefaultConfig() Config {
	return Config{
		BackupDir:        "backups",
		MaxBackups:       10,
		CompressionLevel: gzip.BestCompression,
	}
}

// Create exports every quote from the store into a gzip-compressed JSON
// archive under cfg.BackupDir and writes a YAML manifest alongside it.
// The archive is a logical export, so it restores into either backend.
func Create(store database.Store, storeType string, cfg Config) (*Manifest, error) {
	if err := os.MkdirAll(cfg.BackupDir, 0755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	quotes, err := store.ListQuotes()
	if err != nil {
		return nil, err
	}
	records, err := transfer.Snapshot(store, quotes)
	if err != nil {
		return nil, err
	}

	id := newBackupID()
	archiveName := id + ".json.gz"
	archivePath := filepath.Join(cfg.BackupDir, archiveName)

	archive, err := os.Create(archivePath)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	gz, err := gzip.NewWriterLevel(archive, cfg.CompressionLevel)
	if err != nil {
		archive.Close()
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if err := transfer.WriteRecords(gz, transfer.FormatJSON, records); err != nil {
		gz.Close()
		archive.Close()
		os.Remove(archivePath)
		return nil, err
	}
	if err := gz.Close(); err != nil {
		archive.Close()
		os.Remove(archivePath)
		return nil, fmt.Errorf("flush gzip writer: %w", err)
	}
	if err := archive.Close(); err != nil {
		os.Remove(archivePath)
		return nil, fmt.Errorf("close archive: %w", err)
	}

	checksum, err := fileChecksum(archivePath)
	if err != nil {
		os.Remove(archivePath)
		return nil, err
	}

	manifest := &Manifest{
		ID:        id,
		Archive:   archiveName,
		Checksum:  checksum,
		Quotes:    len(records),
		StoreType: storeType,
		CreatedAt: time.Now().UTC(),
	}
	if err := writeManifest(filepath.Join(cfg.BackupDir, id+".yaml"), manifest); err != nil {
		os.Remove(archivePath)
		return nil, err
	}

	if err := cleanupOld(cfg.BackupDir, cfg.MaxBackups); err != nil {
		fmt.Printf("Warning: failed to clean up old backups: %v\n", err)
	}
	return manifest, nil
}

// Restore imports the archive named by the manifest into store. The
// archive checksum is verified against the manifest before anything is
// written.
func Restore(store database.Store, backupDir, id string) (int, error) {
	manifest, err := readManifest(filepath.Join(backupDir, id+".yaml"))
	if err != nil {
		return 0, err
	}
	archivePath := filepath.Join(backupDir, manifest.Archive)

	checksum, err := fileChecksum(archivePath)
	if err != nil {
		return 0, err
	}
	if checksum != manifest.Checksum {
		return 0, fmt.Errorf("archive %s checksum mismatch: manifest %s, file %s", manifest.Archive, manifest.Checksum, checksum)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return 0, fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	gz, err := gzip.NewReader(archive)
	if err != nil {
		return 0, fmt.Errorf("open gzip reader: %w", err)
	}
	defer gz.Close()

	records, err := transfer.ReadRecords(gz, transfer.FormatJSON)
	if err != nil {
		return 0, err
	}
	return transfer.Import(store, records, false)
}

// List returns the manifests in backupDir, oldest first.
func List(backupDir string) ([]Manifest, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var manifests []Manifest
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		manifest, err := readManifest(filepath.Join(backupDir, entry.Name()))
		if err != nil {
			fmt.Printf("Warning: skipping unreadable manifest %s: %v\n", entry.Name(), err)
			continue
		}
		manifests = append(manifests, *manifest)
	}
	// ULIDs sort by creation time, but the manifest timestamp is
	// authoritative.
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].CreatedAt.Before(manifests[j].CreatedAt)
	})
	return manifests, nil
}

// Delete removes one backup's archive and manifest.
func Delete(backupDir, id string) error {
	manifest, err := readManifest(filepath.Join(backupDir, id+".yaml"))
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(backupDir, manifest.Archive)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete archive: %w", err)
	}
	if err := os.Remove(filepath.Join(backupDir, id+".yaml")); err != nil {
		return fmt.Errorf("delete manifest: %w", err)
	}
	return nil
}

func newBackupID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func writeManifest(path string, manifest *Manifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}

func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for checksum: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func cleanupOld(backupDir string, maxBackups int) error {
	if maxBackups <= 0 {
		return nil
	}
	manifests, err := List(backupDir)
	if err != nil {
		return err
	}
	for len(manifests) > maxBackups {
		if err := Delete(backupDir, manifests[0].ID); err != nil {
			return err
		}
		manifests = manifests[1:]
	}
	return nil
}

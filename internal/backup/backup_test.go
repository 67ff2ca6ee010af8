// file: internal/backup/backup_test.go
// version: 2.0.0
// guid: 9e0f1a2b-3c4d-5e6f-7a8b-9c0d1e2f3a4b

package backup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdfalk/quote-keeper/internal/backup"
	"github.com/jdfalk/quote-keeper/internal/testutil"
)

func seeds() []testutil.Seed {
	return []testutil.Seed{
		{Book: "Hamlet", Author: "William Shakespeare", Text: "To be, or not to be.", Tags: []string{"existence"}},
		{Book: "Hamlet", Author: "William Shakespeare", Text: "Brevity is the soul of wit.", Favorite: true},
		{Book: "A Tale Of Two Cities", Author: "Charles Dickens", Text: "It was the best of times."},
	}
}

func TestCreateAndRestore(t *testing.T) {
	source := testutil.OpenStore(t, "pebble")
	testutil.SeedQuotes(t, source, seeds())

	cfg := backup.DefaultConfig()
	cfg.BackupDir = t.TempDir()
	manifest, err := backup.Create(source, "pebble", cfg)
	require.NoError(t, err)
	require.Equal(t, 3, manifest.Quotes)
	require.NotEmpty(t, manifest.Checksum)
	require.FileExists(t, filepath.Join(cfg.BackupDir, manifest.Archive))
	require.FileExists(t, filepath.Join(cfg.BackupDir, manifest.ID+".yaml"))

	// Restore into the other backend; the archive is a logical export.
	target := testutil.OpenStore(t, "sqlite")
	n, err := backup.Restore(target, cfg.BackupDir, manifest.ID)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	counts, err := target.Counts()
	require.NoError(t, err)
	require.Equal(t, 3, counts.Quotes)
	require.Equal(t, 2, counts.Books)
	require.Equal(t, 2, counts.Authors)
	require.Equal(t, 1, counts.Favorites)
}

func TestRestoreDetectsTampering(t *testing.T) {
	source := testutil.OpenStore(t, "pebble")
	testutil.SeedQuotes(t, source, seeds())

	cfg := backup.DefaultConfig()
	cfg.BackupDir = t.TempDir()
	manifest, err := backup.Create(source, "pebble", cfg)
	require.NoError(t, err)

	archivePath := filepath.Join(cfg.BackupDir, manifest.Archive)
	require.NoError(t, os.WriteFile(archivePath, []byte("garbage"), 0644))

	target := testutil.OpenStore(t, "pebble")
	_, err = backup.Restore(target, cfg.BackupDir, manifest.ID)
	require.Error(t, err)
	require.Contains(t, err.Error(), "checksum mismatch")

	counts, err := target.Counts()
	require.NoError(t, err)
	require.Zero(t, counts.Quotes, "nothing restored from a tampered archive")
}

func TestListAndDelete(t *testing.T) {
	source := testutil.OpenStore(t, "pebble")
	testutil.SeedQuotes(t, source, seeds())

	cfg := backup.DefaultConfig()
	cfg.BackupDir = t.TempDir()

	m1, err := backup.Create(source, "pebble", cfg)
	require.NoError(t, err)
	m2, err := backup.Create(source, "pebble", cfg)
	require.NoError(t, err)

	manifests, err := backup.List(cfg.BackupDir)
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	require.Equal(t, m1.ID, manifests[0].ID, "oldest first")

	require.NoError(t, backup.Delete(cfg.BackupDir, m1.ID))
	manifests, err = backup.List(cfg.BackupDir)
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	require.Equal(t, m2.ID, manifests[0].ID)
}

func TestMaxBackupsPrunesOldest(t *testing.T) {
	source := testutil.OpenStore(t, "pebble")
	testutil.SeedQuotes(t, source, seeds())

	cfg := backup.DefaultConfig()
	cfg.BackupDir = t.TempDir()
	cfg.MaxBackups = 2

	var last *backup.Manifest
	for i := 0; i < 4; i++ {
		m, err := backup.Create(source, "pebble", cfg)
		require.NoError(t, err)
		last = m
	}

	manifests, err := backup.List(cfg.BackupDir)
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	require.Equal(t, last.ID, manifests[len(manifests)-1].ID)
}

func TestListEmptyDir(t *testing.T) {
	manifests, err := backup.List(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Empty(t, manifests)
}

package fix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBackupFirstWins(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "a.js", "original")
	mgr := NewBackupManager(filepath.Join(dir, "backups"))

	first, err := mgr.CreateBackup(target)
	require.NoError(t, err)

	// Modify the file, then back it up again: the session keeps the
	// first artifact so rollback restores pre-session content.
	require.NoError(t, os.WriteFile(target, []byte("modified"), 0o644))
	second, err := mgr.CreateBackup(target)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	content, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
	assert.Len(t, mgr.Backups(), 1)
}

func TestCreateBackupMissingFile(t *testing.T) {
	dir := t.TempDir()
	mgr := NewBackupManager(filepath.Join(dir, "backups"))

	_, err := mgr.CreateBackup(filepath.Join(dir, "nope.js"))
	assert.Error(t, err)
	assert.Empty(t, mgr.Backups())
}

func TestBackupNamesDistinguishSameBaseName(t *testing.T) {
	dir := t.TempDir()
	sub1 := filepath.Join(dir, "one")
	sub2 := filepath.Join(dir, "two")
	require.NoError(t, os.MkdirAll(sub1, 0o755))
	require.NoError(t, os.MkdirAll(sub2, 0o755))
	a := writeTemp(t, sub1, "index.js", "one")
	b := writeTemp(t, sub2, "index.js", "two")

	mgr := NewBackupManager(filepath.Join(dir, "backups"))
	pathA, err := mgr.CreateBackup(a)
	require.NoError(t, err)
	pathB, err := mgr.CreateBackup(b)
	require.NoError(t, err)

	assert.NotEqual(t, pathA, pathB)

	contentA, err := os.ReadFile(pathA)
	require.NoError(t, err)
	assert.Equal(t, "one", string(contentA))
	contentB, err := os.ReadFile(pathB)
	require.NoError(t, err)
	assert.Equal(t, "two", string(contentB))
}

func TestRestoreFromBackupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(target, []byte("original content\n"), 0o600))

	mgr := NewBackupManager(filepath.Join(dir, "backups"))
	_, err := mgr.CreateBackup(target)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(target, []byte("clobbered"), 0o600))

	res := mgr.RestoreFromBackup(target)
	assert.Equal(t, 1, res.FilesRestored)
	assert.Empty(t, res.Errors)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original content\n", string(content))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRestoreFromBackupPartialFailure(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "a.js", "original")
	mgr := NewBackupManager(filepath.Join(dir, "backups"))
	_, err := mgr.CreateBackup(target)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(target, []byte("modified"), 0o644))

	// One path was never backed up in this session.
	res := mgr.RestoreFromBackup(target, filepath.Join(dir, "never-backed-up.js"))
	assert.Equal(t, 1, res.FilesRestored)
	require.Len(t, res.Errors, 1)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
}

func TestRollbackChangesRestoresAndClears(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.js", "aaa")
	b := writeTemp(t, dir, "b.js", "bbb")
	mgr := NewBackupManager(filepath.Join(dir, "backups"))

	for _, p := range []string{a, b} {
		_, err := mgr.CreateBackup(p)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(a, []byte("changed-a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("changed-b"), 0o644))

	res := mgr.RollbackChanges()
	assert.Equal(t, 2, res.FilesRestored)
	assert.Empty(t, res.Errors)

	contentA, _ := os.ReadFile(a)
	contentB, _ := os.ReadFile(b)
	assert.Equal(t, "aaa", string(contentA))
	assert.Equal(t, "bbb", string(contentB))

	// The session log is cleared; a second rollback is a no-op.
	assert.Empty(t, mgr.Backups())
	res = mgr.RollbackChanges()
	assert.Equal(t, 0, res.FilesRestored)
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	target := writeTemp(t, dir, "a.js", "original")

	mgr := NewBackupManager(backupDir)
	_, err := mgr.CreateBackup(target)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(target, []byte("modified"), 0o644))

	// A later process finds the manifest and restores from it.
	records, err := LoadManifests(backupDir)
	require.NoError(t, err)
	require.Len(t, records, 1)

	res := RestorePaths(records)
	assert.Equal(t, 1, res.FilesRestored)
	assert.Empty(t, res.Errors)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
}

func TestLoadManifestsEmptyDir(t *testing.T) {
	_, err := LoadManifests(t.TempDir())
	assert.Error(t, err)
}

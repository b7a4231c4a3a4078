// Package fix implements the fix engine: applying rule replacements to
// files with per-session backup and rollback support.
package fix

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
)

// BackupManager owns the backup artifacts of one fix session. The
// session keeps an ordered transaction log of (path, backup) pairs so
// rollback can replay it in reverse; per-path backups are created at
// most once per session (first backup wins), which prevents a later
// write from backing up already-modified content.
type BackupManager struct {
	dir       string
	sessionID string

	mu      sync.Mutex
	records map[string]string // absolute source path -> backup path
	order   []string          // source paths in backup order
}

// NewBackupManager creates a backup session rooted at dir. The session
// identifier namespaces artifact names so concurrent sessions over
// different files never collide.
func NewBackupManager(dir string) *BackupManager {
	return &BackupManager{
		dir:       dir,
		sessionID: uuid.NewString()[:8],
		records:   make(map[string]string),
	}
}

// Dir returns the backup directory.
func (b *BackupManager) Dir() string {
	return b.dir
}

// CreateBackup copies path into the backup directory and records the
// artifact location. Calling it again for the same path in the same
// session is a no-op returning the existing location. Failures are
// returned as classified filesystem errors.
func (b *BackupManager) CreateBackup(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errclass.Filesystem(path, err)
	}

	b.mu.Lock()
	if existing, ok := b.records[abs]; ok {
		b.mu.Unlock()
		return existing, nil
	}
	b.mu.Unlock()

	info, err := os.Stat(abs)
	if err != nil {
		return "", errclass.Filesystem(abs, err)
	}
	if !info.Mode().IsRegular() {
		return "", errclass.Filesystem(abs, fmt.Errorf("not a regular file"))
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", errclass.Filesystem(b.dir, err)
	}

	backupPath := filepath.Join(b.dir, b.artifactName(abs))
	if err := copyFile(abs, backupPath, info.Mode().Perm()); err != nil {
		return "", errclass.Filesystem(abs, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// A concurrent caller may have won the race; keep the first record
	// and discard ours.
	if existing, ok := b.records[abs]; ok {
		_ = os.Remove(backupPath)
		return existing, nil
	}
	b.records[abs] = backupPath
	b.order = append(b.order, abs)
	if err := b.writeManifestLocked(); err != nil {
		return "", errclass.Filesystem(b.dir, err)
	}
	return backupPath, nil
}

// writeManifestLocked persists the session's path-to-backup map next to
// the artifacts so a later process can restore them. Callers hold b.mu.
func (b *BackupManager) writeManifestLocked() error {
	data, err := json.MarshalIndent(b.records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.dir, "manifest-"+b.sessionID+".json"), data, 0o644)
}

// LoadManifests merges every session manifest found in dir into one
// path-to-backup map, later sessions overriding earlier ones by file
// modification time.
func LoadManifests(dir string) (map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "manifest-*.json"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no backup manifests found in %s", dir)
	}
	sort.Slice(matches, func(i, j int) bool {
		ii, ierr := os.Stat(matches[i])
		ji, jerr := os.Stat(matches[j])
		if ierr != nil || jerr != nil {
			return matches[i] < matches[j]
		}
		return ii.ModTime().Before(ji.ModTime())
	})

	merged := make(map[string]string)
	for _, m := range matches {
		raw, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		var records map[string]string
		if err := json.Unmarshal(raw, &records); err != nil {
			continue
		}
		for src, backup := range records {
			merged[src] = backup
		}
	}
	return merged, nil
}

// RestorePaths copies each backup in the map back over its original,
// tolerating individual failures.
func RestorePaths(records map[string]string) RestoreResult {
	var res RestoreResult
	paths := make([]string, 0, len(records))
	for src := range records {
		paths = append(paths, src)
	}
	sort.Strings(paths)
	for _, src := range paths {
		if err := restoreOne(records[src], src); err != nil {
			res.Errors = append(res.Errors, errclass.Filesystem(src, err))
			continue
		}
		res.FilesRestored++
	}
	return res
}

// artifactName derives a collision-free backup file name: the original
// base name, a short hash of the full source path (two files with the
// same base name must not collide), and the session identifier.
func (b *BackupManager) artifactName(abs string) string {
	sum := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("%s.%x.%s.bak", filepath.Base(abs), sum[:4], b.sessionID)
}

// RestoreResult reports the outcome of a restore operation.
type RestoreResult struct {
	FilesRestored int
	Errors        []errclass.Record
}

// RestoreFromBackup copies each path's backup back over its original.
// It is partial-failure tolerant: a missing backup for one path yields
// one error entry and the remaining paths are still restored.
func (b *BackupManager) RestoreFromBackup(paths ...string) RestoreResult {
	var res RestoreResult
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			res.Errors = append(res.Errors, errclass.Filesystem(path, err))
			continue
		}
		b.mu.Lock()
		backupPath, ok := b.records[abs]
		b.mu.Unlock()
		if !ok {
			res.Errors = append(res.Errors, errclass.Filesystem(abs, fmt.Errorf("no backup recorded for this path in the current session")))
			continue
		}
		if err := restoreOne(backupPath, abs); err != nil {
			res.Errors = append(res.Errors, errclass.Filesystem(abs, err))
			continue
		}
		res.FilesRestored++
	}
	return res
}

// RollbackChanges restores every path recorded in this session, most
// recent first, tolerating individual failures, then clears the session
// state. It is the mechanism the orchestrator invokes when a fix run
// fails critically partway through.
func (b *BackupManager) RollbackChanges() RestoreResult {
	b.mu.Lock()
	paths := make([]string, len(b.order))
	copy(paths, b.order)
	b.mu.Unlock()

	// Replay the transaction log in reverse.
	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}
	res := b.RestoreFromBackup(paths...)

	b.mu.Lock()
	b.records = make(map[string]string)
	b.order = nil
	b.mu.Unlock()
	return res
}

// Backups returns the backup artifact paths created so far, in creation
// order.
func (b *BackupManager) Backups() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.order))
	for _, src := range b.order {
		out = append(out, b.records[src])
	}
	return out
}

func restoreOne(backupPath, dst string) error {
	info, err := os.Stat(backupPath)
	if err != nil {
		return err
	}
	return copyFile(backupPath, dst, info.Mode().Perm())
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

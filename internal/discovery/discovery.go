// Package discovery walks a source tree and yields candidate files for
// scanning. It owns extension and ignore-glob filtering plus binary and
// encoding detection, so the rule engine only ever sees UTF-8 text.
package discovery

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
)

// File represents a discovered file with its metadata
type File struct {
	Path     string // absolute path
	RelPath  string // path relative to the walk root, forward slashes
	Ext      string // extension without leading dot, lower case
	Size     int64
	Contents string
}

// Walker manages file discovery operations
type Walker struct {
	root        string
	extensions  map[string]bool
	ignore      []string
	maxFileSize int64
}

// NewWalker creates a new Walker rooted at root. Extensions are matched
// case-insensitively without the leading dot; ignore patterns are
// doublestar globs evaluated against the relative path.
func NewWalker(root string, extensions, ignore []string, maxFileSize int64) *Walker {
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	return &Walker{
		root:        root,
		extensions:  extSet,
		ignore:      ignore,
		maxFileSize: maxFileSize,
	}
}

// Discover walks the tree and returns every candidate file plus one
// classification record per skipped file. A directory-level permission
// failure skips that subtree; a non-recoverable filesystem condition
// aborts the walk.
func (w *Walker) Discover() ([]File, []errclass.Record, error) {
	var files []File
	var records []errclass.Record

	report := func(rec errclass.Record) {
		records = append(records, rec)
	}

	root, err := filepath.Abs(w.root)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid root %q: %w", w.root, err)
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				report(errclass.Permission(path, err))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			rec := errclass.Filesystem(path, err)
			if !rec.Recoverable {
				return rec
			}
			report(rec)
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.ignored(relPath) {
				return fs.SkipDir
			}
			return nil
		}

		if w.ignored(relPath) || !d.Type().IsRegular() {
			return nil
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if !w.extensions[ext] {
			return nil
		}

		f, rec := w.readCandidate(path, relPath, ext)
		if rec != nil {
			if !rec.Recoverable {
				return *rec
			}
			report(*rec)
			return nil
		}
		files = append(files, f)
		return nil
	})
	if walkErr != nil {
		return files, records, walkErr
	}

	return files, records, nil
}

// ignored checks the relative path against the ignore globs. A pattern
// matches either the path itself or any of its parent directories.
func (w *Walker) ignored(relPath string) bool {
	for _, pattern := range w.ignore {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
		// Allow bare directory names ("node_modules") as shorthand for
		// "node_modules/**".
		if !strings.ContainsAny(pattern, "*?[{") {
			if relPath == pattern || strings.HasPrefix(relPath, pattern+"/") {
				return true
			}
		}
	}
	return false
}

// readCandidate loads one file and applies the size, binary, and
// encoding checks. It returns either the file or the classification
// record explaining why it was skipped.
func (w *Walker) readCandidate(path, relPath, ext string) (File, *errclass.Record) {
	info, err := os.Stat(path)
	if err != nil {
		rec := errclass.Filesystem(path, err)
		return File{}, &rec
	}

	if w.maxFileSize > 0 && info.Size() > w.maxFileSize {
		rec := errclass.FileTooLarge(path, info.Size(), w.maxFileSize)
		return File{}, &rec
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			rec := errclass.Permission(path, err)
			return File{}, &rec
		}
		rec := errclass.Filesystem(path, err)
		return File{}, &rec
	}

	// NUL bytes in the first 512 bytes mark the file as binary.
	probe := raw
	if len(probe) > 512 {
		probe = probe[:512]
	}
	if bytes.IndexByte(probe, 0) >= 0 || !utf8.Valid(raw) {
		rec := errclass.Encoding(path)
		return File{}, &rec
	}

	return File{
		Path:     path,
		RelPath:  relPath,
		Ext:      ext,
		Size:     info.Size(),
		Contents: string(raw),
	}, nil
}

// ValidateFilePath performs comprehensive validation of a single file
// path before scanning: the file must exist, be a regular file, be
// readable, and look like text.
func ValidateFilePath(path string) (absPath string, err error) {
	absPath, err = filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", absPath)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("permission denied: %s", absPath)
		}
		return "", fmt.Errorf("cannot access file: %s: %w", absPath, err)
	}

	// Handle symlinks
	if info.Mode()&os.ModeSymlink != 0 {
		realPath, evalErr := filepath.EvalSymlinks(absPath)
		if evalErr != nil {
			return "", fmt.Errorf("cannot resolve symlink %s: %w", absPath, evalErr)
		}
		absPath = realPath
		info, err = os.Stat(absPath)
		if err != nil {
			return "", fmt.Errorf("symlink target inaccessible: %s: %w", absPath, err)
		}
	}

	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", absPath)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}

	if bytes.Contains(buf[:n], []byte{0}) {
		return "", fmt.Errorf("file appears to be binary, not text: %s", absPath)
	}

	return absPath, nil
}

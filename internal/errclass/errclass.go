// Package errclass classifies failure conditions into a fixed taxonomy and
// owns the suppression and timeout policy shared by the rule and fix engines.
//
// Classification is stateless per call: each constructor returns a Record
// describing what failed, whether the condition is recoverable, and which
// containment action (skip file, skip rule, pause the batch) the caller
// should take. Counting for suppression thresholds lives in Tracker.
package errclass

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Category identifies one failure class. Categories are mutually
// exclusive: every failure maps to exactly one.
type Category string

const (
	CategoryPermission Category = "permission"
	CategoryFileSize   Category = "fileSize"
	CategoryEncoding   Category = "encoding"
	CategoryTimeout    Category = "timeout"
	CategoryMemory     Category = "memory"
	CategoryRegex      Category = "regex"
	CategoryFilesystem Category = "filesystem"
	CategoryUnknown    Category = "unknown"
)

// Categories lists every category in reporting order.
var Categories = []Category{
	CategoryPermission,
	CategoryFileSize,
	CategoryEncoding,
	CategoryTimeout,
	CategoryMemory,
	CategoryRegex,
	CategoryFilesystem,
	CategoryUnknown,
}

// Record describes one classified failure. It carries no reference to
// live resources and is safe to log or serialize.
type Record struct {
	Category        Category `json:"category"`
	Recoverable     bool     `json:"recoverable"`
	SkipFile        bool     `json:"skipFile"`
	SkipRule        bool     `json:"skipRule"`
	PauseProcessing bool     `json:"pauseProcessing"`
	Message         string   `json:"message"`
	Suggestion      string   `json:"suggestion,omitempty"`
	Path            string   `json:"path,omitempty"`
	RuleID          string   `json:"ruleId,omitempty"`
}

// Error implements the error interface so a Record can travel through
// standard error-returning call chains.
func (r Record) Error() string {
	return fmt.Sprintf("%s: %s", r.Category, r.Message)
}

// Permission classifies a permission-denied failure on path.
func Permission(path string, err error) Record {
	return Record{
		Category:    CategoryPermission,
		Recoverable: true,
		SkipFile:    true,
		Message:     fmt.Sprintf("permission denied: %s: %v", path, err),
		Suggestion:  "check file ownership and mode bits, or re-run with sufficient privileges",
		Path:        path,
	}
}

// FileTooLarge classifies a file that exceeds the configured size limit.
func FileTooLarge(path string, size, limit int64) Record {
	return Record{
		Category:    CategoryFileSize,
		Recoverable: true,
		SkipFile:    true,
		Message:     fmt.Sprintf("file too large: %s (%d bytes, limit %d)", path, size, limit),
		Suggestion:  "raise maxFileSize in configuration or exclude the file",
		Path:        path,
	}
}

// Encoding classifies content that is not valid UTF-8 text.
func Encoding(path string) Record {
	return Record{
		Category:    CategoryEncoding,
		Recoverable: true,
		SkipFile:    true,
		Message:     fmt.Sprintf("file is not valid UTF-8 text: %s", path),
		Suggestion:  "convert the file to UTF-8 or exclude binary files",
		Path:        path,
	}
}

// RegexTimeout classifies a rule scan that exceeded its time or
// match-count budget for one file. The rule is skipped for that file
// only; other rules and files continue.
func RegexTimeout(ruleID, path, detail string) Record {
	return Record{
		Category:    CategoryTimeout,
		Recoverable: true,
		SkipRule:    true,
		Message:     fmt.Sprintf("rule %s timed out on %s: %s", ruleID, path, detail),
		Suggestion:  "simplify the rule pattern; it may be a runaway expression",
		Path:        path,
		RuleID:      ruleID,
	}
}

// MemoryPressure classifies a critical memory condition. PauseProcessing
// tells the batch loop to stop dispatching new file work until usage is
// re-checked.
func MemoryPressure(usedBytes uint64) Record {
	return Record{
		Category:        CategoryMemory,
		Recoverable:     true,
		PauseProcessing: true,
		Message:         fmt.Sprintf("memory usage critical: %d MB in use", usedBytes/(1024*1024)),
		Suggestion:      "process fewer files at once or raise available memory",
	}
}

// InvalidRegex classifies a rule whose pattern failed to compile. This
// is the one non-recoverable rule-level condition: the rule is dropped
// from the active set and never retried.
func InvalidRegex(ruleID string, err error) Record {
	return Record{
		Category:    CategoryRegex,
		Recoverable: false,
		SkipRule:    true,
		Message:     fmt.Sprintf("rule %s has an invalid pattern: %v", ruleID, err),
		Suggestion:  "fix the regular expression in the rule definition",
		RuleID:      ruleID,
	}
}

// recoverableErrnos is the allow-list of filesystem error codes that are
// contained at the file level. Everything outside this list (no space,
// too many open files, busy, read-only filesystem, ...) indicates the
// whole run is unlikely to succeed and must stop the batch.
var recoverableErrnos = []syscall.Errno{
	syscall.ENOENT,
	syscall.EACCES,
	syscall.EPERM,
	syscall.ENOTDIR,
	syscall.EISDIR,
}

// Filesystem classifies a generic I/O failure on path. Recoverability
// follows the fixed errno allow-list: not-found, permission-denied,
// not-a-directory and is-a-directory skip the file; all other codes are
// non-recoverable and stop the encompassing batch operation.
func Filesystem(path string, err error) Record {
	rec := filesystemRecoverable(err)
	r := Record{
		Category:    CategoryFilesystem,
		Recoverable: rec,
		SkipFile:    rec,
		Message:     fmt.Sprintf("filesystem error: %s: %v", path, err),
		Path:        path,
	}
	if !rec {
		r.Suggestion = "resolve the underlying condition (disk space, open-file limit, mount state) before re-running"
	}
	return r
}

func filesystemRecoverable(err error) bool {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		for _, ok := range recoverableErrnos {
			if errno == ok {
				return true
			}
		}
		return false
	}
	// Unrecognized errors default to recoverable; only known-bad codes
	// abort the batch.
	return true
}

// Unknown classifies a failure that fits no other category.
func Unknown(path string, err error) Record {
	return Record{
		Category:    CategoryUnknown,
		Recoverable: true,
		SkipFile:    true,
		Message:     fmt.Sprintf("unexpected error: %s: %v", path, err),
		Path:        path,
	}
}

// AsRecord extracts a Record from err if one is wrapped inside,
// otherwise it classifies err as unknown for path.
func AsRecord(path string, err error) Record {
	var r Record
	if errors.As(err, &r) {
		return r
	}
	return Unknown(path, err)
}

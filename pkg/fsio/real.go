package fsio

import (
	"os"

	"github.com/rs/zerolog"
)

// Real implements [FS] against the corpus workspace's real files on disk.
//
// All methods are pure passthroughs to the [os] package with identical
// behavior and error semantics, except [Real.Exists] which wraps
// [os.Stat], and WriteFile, Remove, Rename and MkdirAll, which emit a
// debug-level zerolog line per call (RemoveAll does not log) — the same logger the Manager uses for section mutations,
// so "--verbose" gives a single consistent trace from document operation
// down to the syscall that persisted it.
type Real struct {
	log zerolog.Logger
}

// RealOption configures a [Real] constructed by [NewReal].
type RealOption func(*Real)

// WithRealLogger attaches log to a [Real], used to trace its mutating
// calls (write/remove/rename/mkdir) at debug level.
func WithRealLogger(log zerolog.Logger) RealOption {
	return func(r *Real) { r.log = log }
}

// NewReal returns a new [Real] filesystem. With no options its logger is
// a no-op, matching every existing caller that doesn't care about
// syscall-level tracing.
func NewReal(opts ...RealOption) *Real {
	r := &Real{log: zerolog.Nop()}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// A passthrough wrapper for [os.Open].
func (r *Real) Open(path string) (File, error) {
	return os.Open(path)
}

// A passthrough wrapper for [os.Create].
func (r *Real) Create(path string) (File, error) {
	return os.Create(path)
}

// A passthrough wrapper for [os.OpenFile].
func (r *Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

// A passthrough wrapper for [os.ReadFile].
func (r *Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile is a passthrough wrapper for [os.WriteFile], logging the write
// at debug level.
func (r *Real) WriteFile(path string, data []byte, perm os.FileMode) error {
	err := os.WriteFile(path, data, perm)
	r.log.Debug().Str("path", path).Int("bytes", len(data)).Err(err).Msg("fsio: write file")

	return err
}

// --- Directory Operations ---

// A passthrough wrapper for [os.ReadDir].
func (r *Real) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// A passthrough wrapper for [os.MkdirAll], logging the directory creation
// at debug level — used when [Manager.MoveDocument] or
// [Manager.ArchiveDocument] create a destination's parent directories.
func (r *Real) MkdirAll(path string, perm os.FileMode) error {
	err := os.MkdirAll(path, perm)
	r.log.Debug().Str("path", path).Err(err).Msg("fsio: mkdir all")

	return err
}

// --- Metadata ---

// A passthrough wrapper for [os.Stat].
func (r *Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Exists checks if a file exists using [os.Stat].
// Returns (true, nil) if the file exists, (false, nil) if it does not,
// or (false, err) for other errors.
func (r *Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// --- Mutations ---

// A passthrough wrapper for [os.Remove], logging the removal at debug
// level — used by [Manager.DeleteDocument] and atomic-write temp file
// cleanup.
func (r *Real) Remove(path string) error {
	err := os.Remove(path)
	r.log.Debug().Str("path", path).Err(err).Msg("fsio: remove")

	return err
}

// A passthrough wrapper for [os.RemoveAll].
func (r *Real) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// A passthrough wrapper for [os.Rename], logging the rename at debug
// level — used by every atomic write's temp-to-final rename and by
// [Manager.RenameDocument] / [Manager.MoveDocument] / [Manager.ArchiveDocument].
func (r *Real) Rename(oldpath, newpath string) error {
	err := os.Rename(oldpath, newpath)
	r.log.Debug().Str("old_path", oldpath).Str("new_path", newpath).Err(err).Msg("fsio: rename")

	return err
}

// Compile-time interface check.
var _ FS = (*Real)(nil)

package corpus

import (
	"errors"
	"strings"
)

// Code is one of the fixed error codes spec.md §7 defines for the core.
type Code string

// Error codes, grouped as spec.md §7 groups them.
const (
	CodeInvalidPath    Code = "INVALID_PATH"
	CodeDuplicateSlug  Code = "DUPLICATE_SLUG"
	CodeNoTitle        Code = "NO_TITLE"
	CodeDocNotFound    Code = "DOC_NOT_FOUND"
	CodeSectionNotFound Code = "SECTION_NOT_FOUND"
	CodeEmptyContent   Code = "EMPTY_CONTENT"
	CodeCannotRemoveTitle Code = "CANNOT_REMOVE_TITLE"
	CodeCreateDepthEscape Code = "CREATE_DEPTH_ESCAPE"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
	CodeDestExists     Code = "DEST_EXISTS"
	CodeMovePartial    Code = "MOVE_PARTIAL"
	CodeMoveRollbackFailed Code = "MOVE_ROLLBACK_FAILED"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeDiskFull       Code = "DISK_FULL"
	CodeIOError        Code = "IO_ERROR"
)

// Error is the uniform error type returned by every public corpus API.
//
// It carries the failing operation's document context so that callers and
// logs can identify which document and section were involved without
// re-parsing the error string:
//
//	section not found: overview (doc_path=/specs/a.md slug=overview)
//
// Use [errors.As] to extract it, [errors.Is] to test for a [Code].
type Error struct {
	Code Code
	Path string
	Slug string
	Err  error
}

// Error formats as "<cause> (doc_path=X slug=Y)".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	suffix := e.suffix()

	switch {
	case suffix == "":
		return cause
	case cause == "":
		return suffix
	default:
		return cause + " " + suffix
	}
}

func (e *Error) suffix() string {
	var parts []string

	if e.Path != "" {
		parts = append(parts, "doc_path="+e.Path)
	}

	if e.Slug != "" {
		parts = append(parts, "slug="+e.Slug)
	}

	if len(parts) == 0 {
		return ""
	}

	return "(" + strings.Join(parts, " ") + ")"
}

// Unwrap returns the underlying cause for [errors.Is]/[errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// Is reports whether target is the same [Code] — this lets callers write
// errors.Is(err, &corpus.Error{Code: corpus.CodeDocNotFound}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return other.Code == e.Code
}

// errOpt configures an [Error] during construction via [wrapErr].
type errOpt func(*Error)

func withPath(path string) errOpt { return func(e *Error) { e.Path = path } }
func withSlug(slug string) errOpt { return func(e *Error) { e.Slug = slug } }

// wrapErr attaches a [Code] and document context to err, returning nil if
// err is nil. If err already carries an [*Error], its context is inherited
// and the cause is unwrapped to avoid duplicated suffixes.
func wrapErr(code Code, err error, opts ...errOpt) error {
	if err == nil {
		return nil
	}

	e := &Error{Code: code, Err: err}

	var existing *Error
	if errors.As(err, &existing) {
		e.Path = existing.Path
		e.Slug = existing.Slug
		e.Err = existing.Err
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

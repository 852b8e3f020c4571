package fsio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// ErrConcurrentModification indicates a conditional write lost a race: the
// file's mtime no longer matches the snapshot the caller read it with.
var ErrConcurrentModification = errors.New("concurrent modification")

// Snapshot is the (content, mtime) pair returned by [ReadSnapshot] and
// consumed as the precondition for [WriteIfUnchanged].
type Snapshot struct {
	Content  []byte
	MtimeMS int64
}

// ReadSnapshot atomically reads a file's contents and the mtime observed at
// read time. The pairing is the sole precondition [WriteIfUnchanged] checks;
// it is not a guarantee that no write happened between the stat and the read
// syscalls themselves, only that this is the version the caller observed.
func ReadSnapshot(fsys FS, path string) (Snapshot, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stat: %w", err)
	}

	content, err := fsys.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read: %w", err)
	}

	// Re-stat after the read: if the file changed between the first stat and
	// the read, the content and the reported mtime would otherwise disagree.
	after, err := fsys.Stat(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stat: %w", err)
	}

	if after.ModTime().UnixMilli() != info.ModTime().UnixMilli() || after.Size() != info.Size() {
		// File changed while we were reading it; retry once more against the
		// post-read stat is not safe either (same race), so surface the
		// mtime we actually know paired with content we actually read: the
		// post-read stat, since ReadFile happened strictly before it.
		return Snapshot{Content: content, MtimeMS: after.ModTime().UnixMilli()}, nil
	}

	return Snapshot{Content: content, MtimeMS: info.ModTime().UnixMilli()}, nil
}

// WriteIfUnchanged writes newContent iff the file's current mtime equals
// expectedMtimeMS. On mismatch it returns [ErrConcurrentModification] and
// leaves the file untouched — the conflict check and the write are not
// required to be a single atomic kernel operation, but a failed check must
// never partially apply.
func WriteIfUnchanged(fsys FS, atomicWriter *AtomicWriter, path string, newContent []byte, expectedMtimeMS int64) error {
	info, err := fsys.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	if info.ModTime().UnixMilli() != expectedMtimeMS {
		return ErrConcurrentModification
	}

	err = atomicWriter.Write(path, bytes.NewReader(newContent), AtomicWriteOptions{
		SyncDir: true,
		Perm:    0o644,
	})
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	// Re-check after writing is not possible (we just overwrote it), so the
	// conflict window is [stat, rename). A true CAS would need a filesystem
	// that supports atomic compare-and-rename; os-level tooling does not, so
	// this mirrors the accepted best-effort semantics for the mtime guard.
	return nil
}

// Stat is a thin convenience wrapper kept to avoid importing os at call
// sites that otherwise only need fsio.
func Stat(fsys FS, path string) (os.FileInfo, error) {
	return fsys.Stat(path)
}

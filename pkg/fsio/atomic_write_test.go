package fsio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAtomicWriter_Write_CreatesFileDurably(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "final.txt")

	writer := NewAtomicWriter(NewReal())

	if err := writer.WriteWithDefaults(path, strings.NewReader("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "hello" {
		t.Fatalf("content=%q, want %q", got, "hello")
	}
}

func TestAtomicWriter_Write_LeavesNoTempFileBehind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")

	writer := NewAtomicWriter(NewReal())

	if err := writer.WriteWithDefaults(path, strings.NewReader("# Title\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 1 || entries[0].Name() != "doc.md" {
		t.Fatalf("dir entries=%v, want exactly [doc.md]", entries)
	}
}

func TestAtomicWriter_Write_OverwritesExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")

	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	writer := NewAtomicWriter(NewReal())

	if err := writer.WriteWithDefaults(path, strings.NewReader("new")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "new" {
		t.Fatalf("content=%q, want %q", got, "new")
	}
}

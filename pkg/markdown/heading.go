// Package markdown implements the section-addressing engine: parsing
// markdown into a heading tree, locating section byte ranges, and applying
// structural edits as pure functions over the source text. No I/O happens
// in this package.
package markdown

import (
	"strings"
)

// Heading is one node of a parsed document's heading tree.
//
// Index is the zero-based ordinal in document order. ParentIndex is the
// index of the nearest earlier heading with strictly smaller depth, or -1
// for a depth-1 heading (there is exactly one per valid document: the
// title).
type Heading struct {
	Index       int
	Depth       int
	Title       string
	Slug        string
	ParentIndex int

	// lineStart is the byte offset of the heading line's leading '#'.
	lineStart int
	// bodyStart is the byte offset immediately after the heading line's
	// trailing newline — the first byte of this heading's section body.
	bodyStart int
}

// FullPath returns the slash-joined slugs of this heading's ancestor chain,
// ending with its own slug — the "full path" Addressing needs for
// human-readable hierarchical responses. The document's depth-1 title is
// left out unless index is the title itself, so the result has the same
// form as a hierarchical "#a/b/c" address.
func FullPath(headings []Heading, index int) string {
	var parts []string

	for i := index; i != -1; {
		h := headings[i]
		if h.Depth == 1 && i != index {
			break
		}

		parts = append(parts, h.Slug)
		i = h.ParentIndex
	}

	for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
		parts[l], parts[r] = parts[r], parts[l]
	}

	return strings.Join(parts, "/")
}

// slugify derives the deterministic slug for a heading title: lowercase,
// non-alphanumerics replaced by '-', collapsed and trimmed.
func slugify(title string) string {
	var b strings.Builder

	b.Grow(len(title))

	lastDash := false

	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

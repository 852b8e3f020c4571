package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the edit-policy failures spec.md §7 attributes to the
// Section Engine. Lookup-kind errors (SECTION_NOT_FOUND) are represented by
// [ErrSlugNotFound]; callers translate these into the corpus package's
// structured error codes.
var (
	ErrEmptyContent      = errors.New("empty content")
	ErrCannotRemoveTitle = errors.New("cannot remove title")
	ErrCreateDepthEscape = errors.New("create depth escape")
	ErrSlugNotFound      = errors.New("slug not found")
)

// Mode selects a section-edit operation for [Edit].
type Mode int

const (
	Replace Mode = iota
	Append
	Prepend
	InsertBefore
	InsertAfter
	AppendChild
	Remove
)

// Action describes the effect of an [Edit] call: the resulting slug (for
// creation operations) and, for Remove, the removed content.
type Action struct {
	Slug            string
	RemovedContent  string
	NewHeadingDepth int
}

// Edit applies one structural operation to source and returns the new
// document text plus a descriptor of what happened.
//
// refSlug identifies the target (Replace/Append/Prepend/Remove) or the
// reference section (InsertBefore/InsertAfter/AppendChild). title is only
// used by creation operations; payload is the new body text for
// Replace/Append/Prepend and the new section's body for creation
// operations, and is ignored by Remove. depthHint overrides the
// default depth for InsertBefore/InsertAfter when refSlug is the depth-1
// title.
func Edit(source []byte, headings []Heading, mode Mode, refSlug string, title string, payload string, depthHint int) ([]byte, Action, error) {
	idx := FindSlug(headings, refSlug)
	if idx == -1 {
		return nil, Action{}, fmt.Errorf("%w: %q", ErrSlugNotFound, refSlug)
	}

	switch mode {
	case Replace:
		return editReplace(source, headings, idx, payload)
	case Append:
		return editAppend(source, headings, idx, payload)
	case Prepend:
		return editPrepend(source, headings, idx, payload)
	case InsertBefore:
		return editInsert(source, headings, idx, title, payload, depthHint, false, false)
	case InsertAfter:
		return editInsert(source, headings, idx, title, payload, depthHint, true, false)
	case AppendChild:
		return editInsert(source, headings, idx, title, payload, depthHint, true, true)
	case Remove:
		return editRemove(source, headings, idx)
	default:
		return nil, Action{}, fmt.Errorf("unknown edit mode %d", mode)
	}
}

func editReplace(source []byte, headings []Heading, idx int, payload string) ([]byte, Action, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, Action{}, ErrEmptyContent
	}

	start, end := Locate(headings, source, idx)

	body := wrapBody(normalizeBody(payload), end >= len(source))

	var out bytes.Buffer
	out.Write(source[:start])
	out.WriteString(body)
	out.Write(source[end:])

	return finalize(out.Bytes()), Action{Slug: headings[idx].Slug}, nil
}

func editAppend(source []byte, headings []Heading, idx int, payload string) ([]byte, Action, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, Action{}, ErrEmptyContent
	}

	start, end := Locate(headings, source, idx)
	existing := string(stripStructuralBlankLines(source[start:end]))

	var merged string
	if existing == "" {
		merged = payload
	} else {
		merged = strings.TrimRight(existing, "\n") + "\n\n" + strings.TrimLeft(payload, "\n")
	}

	body := wrapBody(normalizeBody(merged), end >= len(source))

	var out bytes.Buffer
	out.Write(source[:start])
	out.WriteString(body)
	out.Write(source[end:])

	return finalize(out.Bytes()), Action{Slug: headings[idx].Slug}, nil
}

func editPrepend(source []byte, headings []Heading, idx int, payload string) ([]byte, Action, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, Action{}, ErrEmptyContent
	}

	start, end := Locate(headings, source, idx)
	existing := string(stripStructuralBlankLines(source[start:end]))

	var merged string
	if existing == "" {
		merged = payload
	} else {
		merged = strings.TrimRight(payload, "\n") + "\n\n" + strings.TrimLeft(existing, "\n")
	}

	body := wrapBody(normalizeBody(merged), end >= len(source))

	var out bytes.Buffer
	out.Write(source[:start])
	out.WriteString(body)
	out.Write(source[end:])

	return finalize(out.Bytes()), Action{Slug: headings[idx].Slug}, nil
}

func editRemove(source []byte, headings []Heading, idx int) ([]byte, Action, error) {
	h := headings[idx]
	if h.Depth == 1 {
		return nil, Action{}, ErrCannotRemoveTitle
	}

	headStart := h.lineStart

	_, end := Locate(headings, source, idx)

	removed := string(stripStructuralBlankLines(source[h.bodyStart:end]))

	var out bytes.Buffer
	out.Write(source[:headStart])
	out.Write(source[end:])

	return finalize(out.Bytes()), Action{Slug: h.Slug, RemovedContent: removed}, nil
}

func editInsert(source []byte, headings []Heading, idx int, title, payload string, depthHint int, afterSubtree, asChild bool) ([]byte, Action, error) {
	if strings.TrimSpace(title) == "" {
		return nil, Action{}, fmt.Errorf("%w: title required", ErrEmptyContent)
	}

	ref := headings[idx]

	depth := resolveNewDepth(ref, depthHint, asChild)

	if err := checkDepthEscape(payload, depth); err != nil {
		return nil, Action{}, err
	}

	slug := slugify(title)
	if FindSlug(headings, slug) != -1 {
		return nil, Action{}, fmt.Errorf("%w: %q", ErrDuplicateSlug, slug)
	}

	var insertAt int
	if afterSubtree {
		_, insertAt = Locate(headings, source, idx)
	} else {
		insertAt = ref.lineStart
	}

	heading := strings.Repeat("#", depth) + " " + title + "\n"

	var bodyText string
	if strings.TrimSpace(payload) == "" {
		bodyText = ""
	} else {
		bodyText = "\n" + normalizeBody(payload) + "\n"
	}

	section := heading + bodyText

	// Keep one blank line on each side of the new section, as wrapBody does
	// for edited bodies.
	if bodyText == "" && insertAt < len(source) {
		section += "\n"
	}

	switch prefix := source[:insertAt]; {
	case insertAt == 0 || bytes.HasSuffix(prefix, []byte("\n\n")):
	case bytes.HasSuffix(prefix, []byte("\n")):
		section = "\n" + section
	default:
		section = "\n\n" + section
	}

	var out bytes.Buffer
	out.Write(source[:insertAt])
	out.WriteString(section)
	out.Write(source[insertAt:])

	return finalize(out.Bytes()), Action{Slug: slug, NewHeadingDepth: depth}, nil
}

func resolveNewDepth(ref Heading, depthHint int, asChild bool) int {
	if asChild {
		return min(ref.Depth+1, 6)
	}

	if ref.Depth == 1 {
		if depthHint > 0 {
			return min(depthHint, 6)
		}

		return 2
	}

	return ref.Depth
}

// checkDepthEscape rejects a creation payload containing a heading shallow
// enough to escape the new section's own subtree.
func checkDepthEscape(payload string, newDepth int) error {
	if strings.TrimSpace(payload) == "" {
		return nil
	}

	headings, err := Parse([]byte(payload))
	if err != nil {
		// A duplicate slug inside the payload itself isn't this function's
		// concern; only depth escape is checked here.
		var dup = ErrDuplicateSlug
		if errors.Is(err, dup) {
			return nil
		}

		return err
	}

	for _, h := range headings {
		if h.Depth <= newDepth {
			return fmt.Errorf("%w: payload heading %q at depth %d", ErrCreateDepthEscape, h.Title, h.Depth)
		}
	}

	return nil
}

// wrapBody surrounds a normalized (single-trailing-newline) body with the
// structural blank lines the engine guarantees around every section: one
// blank line after the heading, and — unless this section runs to EOF —
// one blank line before the next heading.
func wrapBody(normalized string, isLastSection bool) string {
	if isLastSection {
		return "\n" + normalized
	}

	return "\n" + normalized + "\n"
}

// finalize enforces EOF hygiene: exactly one trailing newline, no
// whitespace-only trailing lines.
func finalize(content []byte) []byte {
	trimmed := bytes.TrimRight(content, "\n \t")

	return append(trimmed, '\n')
}

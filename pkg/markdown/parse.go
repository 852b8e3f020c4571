package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrDuplicateSlug indicates two headings in one document slugify to the
// same value. [Parse] then returns no headings, only this error naming the
// first heading with the slug and its duplicate; the caller must resolve
// the collision by renaming one of the headings.
var ErrDuplicateSlug = errors.New("duplicate slug")

// atxLine matches a confirmed ATX heading's own physical line: up to three
// leading spaces, 1-6 '#' characters, required space/tab, title text, and
// an optional closing run of '#' characters. Used only to re-derive depth
// and title from a line goldmark has already told us is a heading block —
// this package never scans for '#' itself (that would reinterpret fenced
// or indented code), it only re-parses a line goldmark already classified.
var atxLine = regexp.MustCompile(`^ {0,3}(#{1,6})[ \t]+(.*?)[ \t]*$`)

// atxClosingRun strips an optional closing sequence of '#' characters,
// which CommonMark requires to be preceded by whitespace.
var atxClosingRun = regexp.MustCompile(`[ \t]+#+[ \t]*$`)

var md = goldmark.New()

// Parse scans markdown source and returns its ordered heading list.
//
// Only ATX headings (`#` through `######`) are recognized; goldmark's block
// parser is what keeps '#' lines inside fenced (``` or ~~~) and indented
// (>=4 space) code from ever becoming heading nodes, so this function never
// has to hand-roll fence tracking. Setext headings (underlined with `===`
// or `---`) are produced by goldmark as the same AST node type, but their
// source line never matches atxLine, so they're filtered out by
// construction rather than by a separate check.
func Parse(source []byte) ([]Heading, error) {
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var (
		headings []Heading
		walkErr  error
	)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || walkErr != nil {
			return ast.WalkContinue, nil
		}

		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		heading, isATX, err := resolveHeading(source, h, len(headings))
		if err != nil {
			walkErr = err
			return ast.WalkStop, nil
		}

		if !isATX {
			return ast.WalkContinue, nil
		}

		headings = append(headings, heading)

		return ast.WalkContinue, nil
	})

	if walkErr != nil {
		return nil, walkErr
	}

	assignParents(headings)

	if err := checkUniqueSlugs(headings); err != nil {
		return nil, err
	}

	return headings, nil
}

// resolveHeading recovers the full physical line a goldmark heading node
// lives on (by scanning out from an anchor byte the node's Lines() segments
// guarantee lies within that line — ATX headings are always single lines)
// and re-derives depth/title from the raw bytes rather than trusting
// goldmark's parsed Level/text, so a mismatch between this package's
// understanding of the grammar and goldmark's internals can never silently
// corrupt a byte offset.
func resolveHeading(source []byte, h *ast.Heading, index int) (Heading, bool, error) {
	anchor, ok := headingAnchor(h)
	if !ok {
		return Heading{}, false, nil
	}

	lineStart, lineEnd := lineBounds(source, anchor)

	line := string(source[lineStart:lineEnd])

	m := atxLine.FindStringSubmatch(line)
	if m == nil {
		// Setext heading or something this package doesn't recognize as ATX.
		return Heading{}, false, nil
	}

	depth := len(m[1])
	title := strings.TrimSpace(atxClosingRun.ReplaceAllString(m[2], ""))

	bodyStart := lineEnd
	if bodyStart < len(source) && source[bodyStart] == '\n' {
		bodyStart++
	}

	return Heading{
		Index:       index,
		Depth:       depth,
		Title:       title,
		Slug:        slugify(title),
		ParentIndex: -1,
		lineStart:   lineStart,
		bodyStart:   bodyStart,
	}, true, nil
}

// headingAnchor returns a byte offset guaranteed to lie within the node's
// own source line, or ok=false if the node carries no line information.
func headingAnchor(h *ast.Heading) (int, bool) {
	lines := h.Lines()
	if lines.Len() > 0 {
		seg := lines.At(0)
		return seg.Start, true
	}

	// No captured line (e.g. a heading with no inline content at all);
	// fall back to a child's segment if any exists.
	if child := h.FirstChild(); child != nil {
		if t, ok := child.(*ast.Text); ok {
			return t.Segment.Start, true
		}
	}

	return 0, false
}

// lineBounds returns [start, end) of the physical line containing offset,
// not including the line's own terminating newline.
func lineBounds(source []byte, offset int) (int, int) {
	start := bytes.LastIndexByte(source[:offset], '\n')
	if start == -1 {
		start = 0
	} else {
		start++
	}

	rel := bytes.IndexByte(source[offset:], '\n')

	var end int
	if rel == -1 {
		end = len(source)
	} else {
		end = offset + rel
	}

	return start, end
}

func assignParents(headings []Heading) {
	stack := make([]int, 0, len(headings))

	for i := range headings {
		for len(stack) > 0 && headings[stack[len(stack)-1]].Depth >= headings[i].Depth {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			headings[i].ParentIndex = -1
		} else {
			headings[i].ParentIndex = stack[len(stack)-1]
		}

		stack = append(stack, i)
	}
}

func checkUniqueSlugs(headings []Heading) error {
	seen := make(map[string]int, len(headings))

	for _, h := range headings {
		if first, ok := seen[h.Slug]; ok {
			return fmt.Errorf("%w: %q used by headings %d and %d", ErrDuplicateSlug, h.Slug, first, h.Index)
		}

		seen[h.Slug] = h.Index
	}

	return nil
}

package markdown

import "strings"

// Locate returns the [start, end) byte range of a section's body — the
// heading line excluded — given the target's heading index. end is the
// byte offset of the next heading whose depth is <= headings[index].Depth,
// or len(source) if none exists.
func Locate(headings []Heading, source []byte, index int) (start, end int) {
	h := headings[index]

	end = len(source)

	for i := index + 1; i < len(headings); i++ {
		if headings[i].Depth <= h.Depth {
			end = headings[i].lineStart

			break
		}
	}

	return h.bodyStart, end
}

// FindSlug returns the heading index for slug, or -1 if unknown.
func FindSlug(headings []Heading, slug string) int {
	for i, h := range headings {
		if h.Slug == slug {
			return i
		}
	}

	return -1
}

// ReadSection returns a section's body content, or ("", false) if slug is
// unknown. The heading line is never included. A single structural blank
// line at the head (right after the heading) and a single structural blank
// line at the tail (right before the next heading or EOF) are stripped;
// any additional blank lines the author wrote are preserved as content.
func ReadSection(source []byte, headings []Heading, slug string) (string, bool) {
	idx := FindSlug(headings, slug)
	if idx == -1 {
		return "", false
	}

	start, end := Locate(headings, source, idx)

	return string(stripStructuralBlankLines(source[start:end])), true
}

// stripStructuralBlankLines removes exactly one leading "\n" (the blank
// line separating a heading from its body) and, if a blank line also
// precedes the tail boundary, exactly one trailing "\n". The content's own
// final line terminator, if any, is left untouched.
func stripStructuralBlankLines(raw []byte) []byte {
	if len(raw) > 0 && raw[0] == '\n' {
		raw = raw[1:]
	}

	if len(raw) >= 2 && raw[len(raw)-1] == '\n' && raw[len(raw)-2] == '\n' {
		raw = raw[:len(raw)-1]
	}

	return raw
}

// normalizeBody prepares a user-supplied payload for insertion as a section
// body: trailing newlines are trimmed and exactly one is restored, so
// repeated edits converge instead of accumulating blank lines.
func normalizeBody(payload string) string {
	return strings.TrimRight(payload, "\n") + "\n"
}

// Package frontmatter extracts the YAML frontmatter block from a markdown
// document for keyword-fingerprint purposes. Only the delimiter-finding is
// hand-rolled here; the YAML body itself is decoded with yaml.v3 rather than
// a bespoke scalar/list scanner, the way jra3-linear-fuse pulls in the same
// library for its own frontmatter handling.
package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoDelimiter indicates the content has no leading "---" frontmatter block.
var ErrNoDelimiter = errors.New("frontmatter: no delimiter")

// Block is a parsed frontmatter block: scalar fields and list fields kept
// separately since callers (fingerprinting) care about both shapes. Any
// frontmatter value that is neither a plain scalar nor a flat list of
// scalars (nested maps, anchors, multi-doc streams) is simply dropped from
// both maps rather than rejected — the cache only ever consults `keywords`
// and a couple of string fields, never a general document.
type Block struct {
	Scalars map[string]string
	Lists   map[string][]string
}

// Split separates a leading frontmatter block from the document body.
// Returns a nil Block, the unchanged content and a nil error when content
// does not start with a frontmatter block — most documents in this corpus
// simply omit frontmatter. ErrNoDelimiter is returned only when an opening
// "---" has no closing delimiter.
func Split(content []byte) (block *Block, body []byte, err error) {
	s := string(content)
	if !strings.HasPrefix(s, "---\n") && s != "---" {
		return nil, content, nil
	}

	rest := strings.TrimPrefix(s, "---\n")

	end := strings.Index(rest, "\n---\n")

	endLen := len("\n---\n")
	if end < 0 {
		if strings.HasSuffix(rest, "\n---") {
			end = len(rest) - len("\n---")
			endLen = len("\n---")
		} else {
			return nil, content, ErrNoDelimiter
		}
	}

	raw := rest[:end]
	bodyStart := rest[end+endLen:]

	var doc map[string]any

	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		// Malformed YAML: treat as no usable frontmatter rather than
		// failing the whole document load.
		return nil, content, nil
	}

	return blockFromYAML(doc), []byte(bodyStart), nil
}

func blockFromYAML(doc map[string]any) *Block {
	block := &Block{
		Scalars: map[string]string{},
		Lists:   map[string][]string{},
	}

	for key, val := range doc {
		switch v := val.(type) {
		case string:
			block.Scalars[key] = v
		case []any:
			items := make([]string, 0, len(v))

			for _, item := range v {
				if s, ok := item.(string); ok {
					items = append(items, s)
				} else {
					items = append(items, fmt.Sprintf("%v", item))
				}
			}

			block.Lists[key] = items
		case map[string]any, nil:
			// Nested maps and empty keys aren't part of this cache's
			// frontmatter grammar; skip rather than guess.
		default:
			block.Scalars[key] = fmt.Sprintf("%v", v)
		}
	}

	return block
}

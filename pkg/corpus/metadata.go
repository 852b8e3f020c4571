package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/mdcorpus/corpus/pkg/markdown/frontmatter"
)

// Metadata describes a document independent of its parsed heading tree —
// spec.md §3's "Document metadata" list.
type Metadata struct {
	Path                 string
	Title                string
	LastModified         time.Time
	ContentHash          string
	WordCount            int
	LinkCount            int
	CodeBlockCount       int
	Namespace            string
	Keywords             []string
	FingerprintGenerated bool
	CacheGeneration      uint64
	LastAccessed         time.Time
}

// namespace returns all path segments but the last, joined by '/', or
// "root" when the document lives directly under the workspace root.
func namespace(canonical string) string {
	trimmed := strings.Trim(canonical, "/")

	idx := strings.LastIndex(trimmed, "/")
	if idx == -1 {
		return "root"
	}

	return trimmed[:idx]
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

var (
	wordPattern      = regexp.MustCompile(`\S+`)
	linkPattern      = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	codeFencePattern = regexp.MustCompile("(?m)^ {0,3}(```|~~~)")
)

func wordCount(content []byte) int {
	return len(wordPattern.FindAll(content, -1))
}

func linkCount(content []byte) int {
	return len(linkPattern.FindAll(content, -1))
}

func codeBlockCount(content []byte) int {
	return len(codeFencePattern.FindAll(content, -1)) / 2
}

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"in": {}, "is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "this": {},
	"that": {}, "it": {}, "as": {}, "be": {}, "by": {}, "at": {}, "from": {},
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// fingerprint derives a deterministic, order-preserving keyword bag from a
// document's title, body, and frontmatter `keywords:` list per spec.md
// §4.4 — algorithm exactness is explicitly unspecified; determinism for
// identical content is the only required property.
func fingerprint(title string, body []byte) ([]string, map[string]struct{}) {
	seen := make(map[string]struct{})

	var ordered []string

	add := func(tok string) {
		if tok == "" {
			return
		}

		if _, stop := stopwords[tok]; stop {
			return
		}

		if _, dup := seen[tok]; dup {
			return
		}

		seen[tok] = struct{}{}

		ordered = append(ordered, tok)
	}

	for _, tok := range tokenPattern.FindAllString(strings.ToLower(title), -1) {
		add(tok)
	}

	block, rest, err := frontmatter.Split(body)
	if err == nil && block != nil {
		for _, kw := range block.Lists["keywords"] {
			add(strings.ToLower(strings.TrimSpace(kw)))
		}

		body = rest
	}

	for _, tok := range tokenPattern.FindAllString(strings.ToLower(string(body)), -1) {
		add(tok)
	}

	return ordered, seen
}

package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespace_RootDocumentReturnsRoot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "root", namespace("/doc.md"))
}

func TestNamespace_NestedDocumentJoinsParentSegments(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "specs/backend", namespace("/specs/backend/doc.md"))
}

func TestContentHash_IsDeterministicAndSensitiveToContent(t *testing.T) {
	t.Parallel()

	a := contentHash([]byte("hello"))
	b := contentHash([]byte("hello"))
	c := contentHash([]byte("goodbye"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestWordLinkCodeBlockCounts(t *testing.T) {
	t.Parallel()

	content := []byte("one two three [a link](http://x) four\n\n```\ncode\n```\n")

	assert.Equal(t, 9, wordCount(content))
	assert.Equal(t, 1, linkCount(content))
	assert.Equal(t, 1, codeBlockCount(content))
}

func TestFingerprint_DerivesOrderedDedupedKeywordsFromTitleAndBody(t *testing.T) {
	t.Parallel()

	body := []byte("---\nkeywords:\n  - infra\n  - Scaling\n---\n\nThe Scaling plan for the infra team and the team lead.\n")

	keywords, set := fingerprint("Infra Scaling Plan", body)

	assert.Contains(t, keywords, "infra")
	assert.Contains(t, keywords, "scaling")
	assert.Contains(t, keywords, "plan")
	assert.Contains(t, keywords, "team")
	assert.Contains(t, keywords, "lead")
	assert.NotContains(t, keywords, "the")
	assert.NotContains(t, keywords, "and")

	_, ok := set["infra"]
	assert.True(t, ok)

	// "infra" appears once despite showing up in both the frontmatter
	// keywords list and the title/body.
	count := 0
	for _, k := range keywords {
		if k == "infra" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestFingerprint_IsDeterministicForIdenticalInput(t *testing.T) {
	t.Parallel()

	body := []byte("Some body text about caching and invalidation.")

	k1, _ := fingerprint("Cache Design", body)
	k2, _ := fingerprint("Cache Design", body)

	assert.Equal(t, k1, k2)
}

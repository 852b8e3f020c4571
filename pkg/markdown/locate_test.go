package markdown_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdcorpus/corpus/pkg/markdown"
)

func TestLocate_ReturnsByteRangeCoveringSectionAndDescendants(t *testing.T) {
	t.Parallel()

	source := []byte("# Title\n\n## A\n\nbody a\n\n### A.1\n\nbody a1\n\n## B\n\nbody b\n")

	headings, err := markdown.Parse(source)
	require.NoError(t, err)

	idx := markdown.FindSlug(headings, "a")
	require.NotEqual(t, -1, idx)

	start, end := markdown.Locate(headings, source, idx)
	section := string(source[start:end])

	assert.NotContains(t, section, "## A\n")
	assert.Contains(t, section, "body a")
	assert.Contains(t, section, "### A.1")
	assert.Contains(t, section, "body a1")
	assert.NotContains(t, section, "## B")
}

func TestLocate_LastHeadingRunsToEndOfDocument(t *testing.T) {
	t.Parallel()

	source := []byte("# Title\n\n## A\n\nbody a\n\n## B\n\nbody b\n")

	headings, err := markdown.Parse(source)
	require.NoError(t, err)

	idx := markdown.FindSlug(headings, "b")
	require.NotEqual(t, -1, idx)

	start, end := markdown.Locate(headings, source, idx)
	assert.Equal(t, len(source), end)
	assert.Contains(t, string(source[start:end]), "body b")
}

func TestFindSlug_ReturnsNegativeOneWhenMissing(t *testing.T) {
	t.Parallel()

	source := []byte("# Title\n\n## A\n")
	headings, err := markdown.Parse(source)
	require.NoError(t, err)

	assert.Equal(t, -1, markdown.FindSlug(headings, "does-not-exist"))
}

func TestReadSection_ReturnsFalseForUnknownSlug(t *testing.T) {
	t.Parallel()

	source := []byte("# Title\n\n## A\n\nbody\n")
	headings, err := markdown.Parse(source)
	require.NoError(t, err)

	_, ok := markdown.ReadSection(source, headings, "nope")
	assert.False(t, ok)
}

func TestReadSection_ReturnsSectionBody(t *testing.T) {
	t.Parallel()

	source := []byte("# Title\n\n## A\n\nbody a\n\n## B\n\nbody b\n")
	headings, err := markdown.Parse(source)
	require.NoError(t, err)

	got, ok := markdown.ReadSection(source, headings, "a")
	require.True(t, ok)
	assert.Contains(t, got, "body a")
	assert.NotContains(t, got, "body b")
}

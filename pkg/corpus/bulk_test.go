package corpus_test

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdcorpus/corpus/pkg/corpus"
)

func TestApplyBulk_AppliesOpsInOrderAgainstOneSnapshot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	abs := writeWorkspaceDoc(t, root, "a.md", "# Title\n\n## A\n\nbody a\n")
	mgr := newTestManager(t, root)

	ops := []corpus.BulkOp{
		{Kind: "insert_after", Slug: "a", Title: "B", Body: "body b"},
		{Kind: "append", Slug: "b", Body: "more for b"},
		{Kind: "update", Slug: "a", Body: "replaced a"},
	}

	results, err := mgr.ApplyBulk("/a.md", ops)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, corpus.BulkStatusCreated, results[0].Status)
	assert.Equal(t, "b", results[0].Section)
	assert.Equal(t, corpus.BulkStatusUpdated, results[1].Status)
	assert.Equal(t, corpus.BulkStatusUpdated, results[2].Status)

	raw, err := os.ReadFile(abs)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "replaced a")
	assert.Contains(t, text, "more for b")
}

func TestApplyBulk_DoesNotShortCircuitOnFailingItem(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	abs := writeWorkspaceDoc(t, root, "a.md", "# Title\n\n## A\n\nbody a\n\n## B\n\nbody b\n")
	mgr := newTestManager(t, root)

	ops := []corpus.BulkOp{
		{Kind: "update", Slug: "missing", Body: "x"},
		{Kind: "update", Slug: "b", Body: "updated b"},
	}

	results, err := mgr.ApplyBulk("/a.md", ops)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, corpus.BulkStatusError, results[0].Status)
	assert.NotEmpty(t, results[0].Error)
	assert.Equal(t, corpus.BulkStatusUpdated, results[1].Status)

	raw, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "updated b")
}

func TestApplyBulk_WritesResultToDisk(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	abs := writeWorkspaceDoc(t, root, "a.md", "# Title\n\n## A\n\nbody a\n")
	mgr := newTestManager(t, root)

	before, err := os.Stat(abs)
	require.NoError(t, err)

	ops := []corpus.BulkOp{
		{Kind: "append", Slug: "a", Body: "one"},
		{Kind: "append", Slug: "a", Body: "two"},
	}

	_, err = mgr.ApplyBulk("/a.md", ops)
	require.NoError(t, err)

	after, err := os.Stat(abs)
	require.NoError(t, err)
	assert.NotEqual(t, before.ModTime(), after.ModTime())
}

func TestApplyBulk_RenameSectionUpdatesSlugForLaterOps(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeWorkspaceDoc(t, root, "a.md", "# Title\n\n## A\n\nbody a\n")
	mgr := newTestManager(t, root)

	ops := []corpus.BulkOp{
		{Kind: "rename_section", Slug: "a", Title: "Renamed"},
		{Kind: "append", Slug: "renamed", Body: "more"},
	}

	results, err := mgr.ApplyBulk("/a.md", ops)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, corpus.BulkStatusUpdated, results[0].Status)
	assert.Equal(t, "renamed", results[0].Section)
	assert.Equal(t, corpus.BulkStatusUpdated, results[1].Status)

	content, err := mgr.GetSectionContent("/a.md", "renamed")
	require.NoError(t, err)
	assert.Contains(t, content, "more")
}

func TestApplyBulk_UnknownKindReturnsError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeWorkspaceDoc(t, root, "a.md", "# Title\n\n## A\n\nbody a\n")
	mgr := newTestManager(t, root)

	results, err := mgr.ApplyBulk("/a.md", []corpus.BulkOp{{Kind: "bogus", Slug: "a"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, corpus.BulkStatusError, results[0].Status)
}

// TestApplyBulk_ResultSequenceMatchesExpectedShape diffs the whole result
// slice against an expected shape at once rather than field by field, so a
// regression that reorders results or drops one is reported as a single
// readable diff instead of a cascade of unrelated index-based assertions.
func TestApplyBulk_ResultSequenceMatchesExpectedShape(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeWorkspaceDoc(t, root, "a.md", "# Title\n\n## A\n\nbody a\n")
	mgr := newTestManager(t, root)

	ops := []corpus.BulkOp{
		{Kind: "insert_after", Slug: "a", Title: "B", Body: "body b"},
		{Kind: "update", Slug: "missing", Body: "x"},
		{Kind: "append", Slug: "b", Body: "more"},
	}

	results, err := mgr.ApplyBulk("/a.md", ops)
	require.NoError(t, err)

	want := []corpus.BulkOperationResult{
		{Status: corpus.BulkStatusCreated, Section: "b"},
		{Status: corpus.BulkStatusError, Section: "missing"},
		{Status: corpus.BulkStatusUpdated, Section: "b"},
	}

	// Per-item error messages carry the section engine's own wording, which
	// this test does not pin; compare everything but that field with go-cmp,
	// then assert its presence separately.
	got := make([]corpus.BulkOperationResult, len(results))
	copy(got, results)

	for i := range got {
		require.NotEmpty(t, results[i].Status)
		got[i].Error = ""
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bulk result sequence mismatch (-want +got):\n%s", diff)
	}

	assert.NotEmpty(t, results[1].Error)
}

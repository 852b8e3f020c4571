package corpus_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdcorpus/corpus/pkg/corpus"
	"github.com/mdcorpus/corpus/pkg/fsio"
)

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCache_Get_LoadsAndParsesDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeDoc(t, path, "# Title\n\n## Section\n\nbody\n")

	cache := corpus.NewCache(fsio.NewReal(), 8)

	doc, err := cache.Get(path, path)
	require.NoError(t, err)
	assert.Equal(t, "Title", doc.Metadata.Title)
	assert.Len(t, doc.Headings, 2)
}

func TestCache_Get_RejectsDocumentWithoutLevel1Title(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeDoc(t, path, "## Section\n\nbody\n")

	cache := corpus.NewCache(fsio.NewReal(), 8)

	_, err := cache.Get(path, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, &corpus.Error{Code: corpus.CodeNoTitle})
}

func TestCache_Get_RejectsDuplicateSlugDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeDoc(t, path, "# Title\n\n## A\n\nbody\n\n## A\n\nbody2\n")

	cache := corpus.NewCache(fsio.NewReal(), 8)

	_, err := cache.Get(path, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, &corpus.Error{Code: corpus.CodeDuplicateSlug})
}

func TestCache_Get_ReloadsWhenFileMtimeChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeDoc(t, path, "# Title\n\nfirst version\n")

	cache := corpus.NewCache(fsio.NewReal(), 8)

	doc1, err := cache.Get(path, path)
	require.NoError(t, err)
	assert.Contains(t, string(doc1.Content()), "first version")

	// Force a distinct mtime.
	future := time.Now().Add(2 * time.Second)
	writeDoc(t, path, "# Title\n\nsecond version\n")
	require.NoError(t, os.Chtimes(path, future, future))

	doc2, err := cache.Get(path, path)
	require.NoError(t, err)
	assert.Contains(t, string(doc2.Content()), "second version")
}

func TestCache_Invalidate_ForcesReloadOnNextGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeDoc(t, path, "# Title\n\nbody\n")

	cache := corpus.NewCache(fsio.NewReal(), 8)

	_, err := cache.Get(path, path)
	require.NoError(t, err)

	cache.Invalidate(path)

	doc, err := cache.Get(path, path)
	require.NoError(t, err)
	assert.Equal(t, "Title", doc.Metadata.Title)
}

func TestCache_EvictsLeastRecentlyUsedWhenOverCapacity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := corpus.NewCache(fsio.NewReal(), 2)

	pathA := filepath.Join(dir, "a.md")
	pathB := filepath.Join(dir, "b.md")
	pathC := filepath.Join(dir, "c.md")
	writeDoc(t, pathA, "# A\n\nbody\n")
	writeDoc(t, pathB, "# B\n\nbody\n")
	writeDoc(t, pathC, "# C\n\nbody\n")

	_, err := cache.Get(pathA, pathA)
	require.NoError(t, err)
	_, err = cache.Get(pathB, pathB)
	require.NoError(t, err)

	// Touch A so B becomes the least-recently-used entry.
	_, err = cache.Get(pathA, pathA)
	require.NoError(t, err)

	_, err = cache.Get(pathC, pathC)
	require.NoError(t, err)

	// B should have been evicted; re-fetching it must hit the filesystem
	// again rather than erroring, since eviction just drops the cache
	// entry, not the underlying file.
	doc, err := cache.Get(pathB, pathB)
	require.NoError(t, err)
	assert.Equal(t, "B", doc.Metadata.Title)
}

func TestCache_SectionContent_CachesMaterializedBody(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeDoc(t, path, "# Title\n\n## A\n\nbody a\n")

	cache := corpus.NewCache(fsio.NewReal(), 8)

	doc, err := cache.Get(path, path)
	require.NoError(t, err)

	content, ok := cache.SectionContent(doc, "a")
	require.True(t, ok)
	assert.Contains(t, content, "body a")

	_, ok = cache.SectionContent(doc, "does-not-exist")
	assert.False(t, ok)
}

func TestCache_Put_BumpsGenerationAndClearsSectionCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeDoc(t, path, "# Title\n\n## A\n\nold body\n")

	cache := corpus.NewCache(fsio.NewReal(), 8)

	doc, err := cache.Get(path, path)
	require.NoError(t, err)

	_, ok := cache.SectionContent(doc, "a")
	require.True(t, ok)

	prevGen := doc.Metadata.CacheGeneration

	writeDoc(t, path, "# Title\n\n## A\n\nnew body\n")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	newDoc, err := cache.Get(path, path)
	require.NoError(t, err)
	cache.Put(path, newDoc, prevGen)

	assert.Equal(t, prevGen+1, newDoc.Metadata.CacheGeneration)

	content, ok := cache.SectionContent(newDoc, "a")
	require.True(t, ok)
	assert.Contains(t, content, "new body")
}

func TestCache_Lock_SerializesConcurrentMutatorsOnSamePath(t *testing.T) {
	t.Parallel()

	cache := corpus.NewCache(fsio.NewReal(), 8)

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			unlock := cache.Lock("/shared.md")
			defer unlock()

			mu.Lock()
			order = append(order, n)
			mu.Unlock()

			time.Sleep(time.Millisecond)
		}(i)
	}

	wg.Wait()

	assert.Len(t, order, 5)
}

package corpus

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mdcorpus/corpus/pkg/fsio"
	"github.com/mdcorpus/corpus/pkg/markdown"
)

// sectionEntry is a lazily-materialized section body, stamped with the
// cacheGeneration it was computed against so a concurrent write can make it
// stale without an explicit sweep.
type sectionEntry struct {
	content    string
	generation uint64
}

// CachedDocument is one document's in-memory representation — spec.md §3's
// "Cached document". Section bodies populate lazily; see [Cache.SectionContent].
type CachedDocument struct {
	Metadata Metadata
	Headings []markdown.Heading

	// SlugIndex maps a heading's slug to its index in Headings.
	SlugIndex map[string]int

	mu         sync.Mutex
	content    []byte
	mtimeMS    int64
	sections   map[string]sectionEntry
	keywordSet map[string]struct{}
}

// Content returns the full raw document bytes this entry was parsed from.
func (d *CachedDocument) Content() []byte {
	return d.content
}

// MtimeMS returns the file mtime, in milliseconds, this entry was loaded
// against — the precondition [fsio.WriteIfUnchanged] needs for a mutation
// built on top of this snapshot.
func (d *CachedDocument) MtimeMS() int64 {
	return d.mtimeMS
}

// KeywordSet returns this document's keyword fingerprint as a set, for O(1)
// membership checks alongside the ordered form in Metadata.Keywords.
func (d *CachedDocument) KeywordSet() map[string]struct{} {
	return d.keywordSet
}

// cacheItem is the value stored in the LRU list; path duplicates the map key
// so eviction can remove the map entry too.
type cacheItem struct {
	path string
	doc  *CachedDocument
}

// Cache is the LRU document cache spec.md §4.4 describes: in-process,
// keyed by canonical path, with per-path mutation locks and coalesced
// concurrent loads.
//
// Grounded on the striping-lock shape of calvinalkan-agent-task's
// pkg/slotcache/lock.go registryEntry, generalized from a single global
// entry to one entry per document path; the LRU itself is hand-rolled
// (container/list + map) since nothing in the example pack provides a
// generic in-memory LRU — pkg/slotcache is an mmap'd fixed-slot binary
// cache solving a different problem.
type Cache struct {
	fsys       fsio.FS
	maxEntries int

	mu    sync.Mutex
	ll    *list.List
	items map[string]*list.Element

	loadGroup singleflight.Group

	lockMu    sync.Mutex
	pathLocks map[string]*sync.Mutex

	now func() time.Time
}

// NewCache constructs a [Cache] reading documents through fsys, bounded to
// maxEntries resident documents (LRU-evicted by last access).
func NewCache(fsys fsio.FS, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}

	return &Cache{
		fsys:       fsys,
		maxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
		pathLocks:  make(map[string]*sync.Mutex),
		now:        time.Now,
	}
}

// Lock acquires the per-path exclusive mutation lock for path, returning an
// unlock function. Every Manager mutation holds this lock for the full
// read-modify-write protocol in spec.md §4.5.
func (c *Cache) Lock(path string) func() {
	c.lockMu.Lock()
	m, ok := c.pathLocks[path]

	if !ok {
		m = &sync.Mutex{}
		c.pathLocks[path] = m
	}

	c.lockMu.Unlock()

	m.Lock()

	return m.Unlock
}

// Get returns path's cached document, loading or refreshing it as needed.
// Concurrent Get calls for the same absent or stale path coalesce into a
// single load via singleflight.
func (c *Cache) Get(path, absPath string) (*CachedDocument, error) {
	c.mu.Lock()
	elem, ok := c.items[path]
	c.mu.Unlock()

	if ok {
		item := elem.Value.(*cacheItem)

		info, err := c.fsys.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("stat: %w", err)
		}

		if info.ModTime().UnixMilli() == item.doc.mtimeMS {
			c.touch(elem)
			item.doc.Metadata.LastAccessed = c.now()

			return item.doc, nil
		}

		// Stale: fall through to reload, replacing this entry on completion.
	}

	v, err, _ := c.loadGroup.Do(path, func() (any, error) {
		return c.load(path, absPath)
	})
	if err != nil {
		return nil, err
	}

	doc := v.(*CachedDocument)

	c.mu.Lock()
	c.insertLocked(path, doc)
	c.mu.Unlock()

	return doc, nil
}

// Invalidate drops path's cached document and every materialized section
// entry, per spec.md §4.4.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[path]; ok {
		c.ll.Remove(elem)
		delete(c.items, path)
	}
}

// SectionContent returns slug's body within path's document, materializing
// and caching it on first access. ok is false if slug is unknown.
func (c *Cache) SectionContent(doc *CachedDocument, slug string) (content string, ok bool) {
	doc.mu.Lock()
	defer doc.mu.Unlock()

	if entry, cached := doc.sections[slug]; cached && entry.generation == doc.Metadata.CacheGeneration {
		return entry.content, true
	}

	body, found := markdown.ReadSection(doc.content, doc.Headings, slug)
	if !found {
		return "", false
	}

	if doc.sections == nil {
		doc.sections = make(map[string]sectionEntry)
	}

	doc.sections[slug] = sectionEntry{content: body, generation: doc.Metadata.CacheGeneration}

	return body, true
}

// Put installs a freshly-written document (post-mutation) directly into
// the cache, bumping cacheGeneration so stale section entries are evicted —
// this is how the Manager satisfies "invalidate, then the next getDocument
// reflects the write" without forcing a synchronous reparse+reread.
func (c *Cache) Put(path string, doc *CachedDocument, previousGeneration uint64) {
	doc.Metadata.CacheGeneration = previousGeneration + 1
	doc.Metadata.LastAccessed = c.now()
	doc.sections = make(map[string]sectionEntry)

	c.mu.Lock()
	c.insertLocked(path, doc)
	c.mu.Unlock()
}

func (c *Cache) load(path, absPath string) (*CachedDocument, error) {
	snap, err := fsio.ReadSnapshot(c.fsys, absPath)
	if err != nil {
		return nil, wrapErr(CodeIOError, err, withPath(path))
	}

	return newCachedDocument(path, snap.Content, snap.MtimeMS, 0, c.now())
}

func (c *Cache) insertLocked(path string, doc *CachedDocument) {
	if elem, ok := c.items[path]; ok {
		elem.Value = &cacheItem{path: path, doc: doc}
		c.ll.MoveToFront(elem)

		return
	}

	elem := c.ll.PushFront(&cacheItem{path: path, doc: doc})
	c.items[path] = elem

	for c.ll.Len() > c.maxEntries {
		c.evictOldest()
	}
}

func (c *Cache) evictOldest() {
	elem := c.ll.Back()
	if elem == nil {
		return
	}

	item := elem.Value.(*cacheItem)
	c.ll.Remove(elem)
	delete(c.items, item.path)
}

func (c *Cache) touch(elem *list.Element) {
	c.mu.Lock()
	c.ll.MoveToFront(elem)
	c.mu.Unlock()
}

// newCachedDocument parses content and derives the metadata + fingerprint a
// freshly loaded or freshly written document needs.
func newCachedDocument(path string, content []byte, mtimeMS int64, generation uint64, now time.Time) (*CachedDocument, error) {
	headings, err := markdown.Parse(content)
	if err != nil {
		return nil, wrapErr(CodeDuplicateSlug, err, withPath(path))
	}

	title := ""
	if len(headings) > 0 && headings[0].Depth == 1 {
		title = headings[0].Title
	} else {
		return nil, &Error{Code: CodeNoTitle, Path: path, Err: fmt.Errorf("document has no level-1 heading")}
	}

	slugIndex := make(map[string]int, len(headings))
	for _, h := range headings {
		slugIndex[h.Slug] = h.Index
	}

	keywords, keywordSet := fingerprint(title, content)

	return &CachedDocument{
		Metadata: Metadata{
			Path:                 path,
			Title:                title,
			LastModified:         time.UnixMilli(mtimeMS),
			ContentHash:          contentHash(content),
			WordCount:            wordCount(content),
			LinkCount:            linkCount(content),
			CodeBlockCount:       codeBlockCount(content),
			Namespace:            namespace(path),
			Keywords:             keywords,
			FingerprintGenerated: true,
			CacheGeneration:      generation,
			LastAccessed:         now,
		},
		Headings:   headings,
		SlugIndex:  slugIndex,
		content:    content,
		mtimeMS:    mtimeMS,
		sections:   make(map[string]sectionEntry),
		keywordSet: keywordSet,
	}, nil
}

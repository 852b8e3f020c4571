package corpus

import (
	"encoding/json"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"

	"github.com/mdcorpus/corpus/internal/pathutil"
	"github.com/mdcorpus/corpus/pkg/fsio"
	"github.com/mdcorpus/corpus/pkg/markdown"
)

// Action re-exports the Section Engine's edit descriptor so callers of
// Manager mutations never need to import pkg/markdown directly.
type Action = markdown.Action

// Manager is the top-level facade spec.md §4.5 describes: it wraps Path
// Handler + File I/O + Section Engine + Cache and runs every mutation
// through the six-step read-modify-write protocol.
//
// Grounded on calvinalkan-agent-task's root-package command implementations
// (create.go, ticket.go, unblock.go), which follow the same
// lock-snapshot-transform-write-invalidate shape against pkg/mddb; Manager
// generalizes that shape to arbitrary markdown documents instead of the
// ticket schema.
type Manager struct {
	paths  *pathutil.Handler
	fsys   fsio.FS
	aw     *fsio.AtomicWriter
	cache  *Cache
	log    zerolog.Logger
}

// NewManager constructs a Manager rooted at paths, performing I/O through
// fsys and caching through cache.
func NewManager(paths *pathutil.Handler, fsys fsio.FS, cache *Cache, log zerolog.Logger) *Manager {
	return &Manager{
		paths: paths,
		fsys:  fsys,
		aw:    fsio.NewAtomicWriter(fsys, fsio.WithAtomicWriterLogger(log)),
		cache: cache,
		log:   log,
	}
}

// resolve validates path and reports DOC_NOT_FOUND if mustExist and the
// file is absent.
func (m *Manager) resolve(clientPath string, mustExist bool) (pathutil.Resolved, error) {
	r, err := m.paths.Resolve(clientPath)
	if err != nil {
		return pathutil.Resolved{}, &Error{Code: CodeInvalidPath, Path: clientPath, Err: err}
	}

	if mustExist {
		ok, statErr := m.fsys.Exists(r.AbsPath)
		if statErr != nil {
			return pathutil.Resolved{}, wrapErr(CodeIOError, statErr, withPath(r.Canonical))
		}

		if !ok {
			return pathutil.Resolved{}, &Error{Code: CodeDocNotFound, Path: r.Canonical}
		}
	}

	return r, nil
}

// GetDocument returns path's cached document (loading it if necessary).
func (m *Manager) GetDocument(clientPath string) (*CachedDocument, error) {
	r, err := m.resolve(clientPath, true)
	if err != nil {
		return nil, err
	}

	doc, err := m.cache.Get(r.Canonical, r.AbsPath)
	if err != nil {
		return nil, wrapErr(CodeIOError, err, withPath(r.Canonical))
	}

	m.log.Debug().Str("doc_path", r.Canonical).Msg("document loaded")

	return doc, nil
}

// GetSectionContent returns slug's body within path's document.
func (m *Manager) GetSectionContent(clientPath, slug string) (string, error) {
	doc, err := m.GetDocument(clientPath)
	if err != nil {
		return "", err
	}

	content, ok := m.cache.SectionContent(doc, slug)
	if !ok {
		return "", &Error{Code: CodeSectionNotFound, Path: doc.Metadata.Path, Slug: slug}
	}

	return content, nil
}

// mutate runs the six-step read-modify-write protocol from spec.md §4.5,
// with transform computing the new document text from the current snapshot
// and heading tree.
func (m *Manager) mutate(clientPath string, transform func(content []byte, headings []markdown.Heading) ([]byte, Action, error)) (pathutil.Resolved, Action, error) {
	r, err := m.resolve(clientPath, true)
	if err != nil {
		return pathutil.Resolved{}, Action{}, err
	}

	unlock := m.cache.Lock(r.Canonical)
	defer unlock()

	snap, err := fsio.ReadSnapshot(m.fsys, r.AbsPath)
	if err != nil {
		return r, Action{}, wrapErr(CodeIOError, err, withPath(r.Canonical))
	}

	headings, err := markdown.Parse(snap.Content)
	if err != nil {
		return r, Action{}, translateEditErr(err, r.Canonical, "")
	}

	newContent, action, err := transform(snap.Content, headings)
	if err != nil {
		return r, Action{}, translateEditErr(err, r.Canonical, action.Slug)
	}

	if err := fsio.WriteIfUnchanged(m.fsys, m.aw, r.AbsPath, newContent, snap.MtimeMS); err != nil {
		if errors.Is(err, fsio.ErrConcurrentModification) {
			return r, Action{}, &Error{Code: CodeConcurrentModification, Path: r.Canonical}
		}

		return r, Action{}, wrapErr(CodeIOError, err, withPath(r.Canonical))
	}

	m.invalidateAfterWrite(r.Canonical, r.AbsPath, newContent)

	m.log.Info().Str("doc_path", r.Canonical).Str("slug", action.Slug).Msg("section mutated")

	return r, action, nil
}

// invalidateAfterWrite drops the stale cache entry, so the very next
// getDocument reflects the write without a redundant synchronous reread —
// if constructing the fresh entry fails for any reason, a plain Invalidate
// still guarantees the next reader reparses from disk.
func (m *Manager) invalidateAfterWrite(canonical, absPath string, newContent []byte) {
	prevGen := uint64(0)

	m.cache.mu.Lock()
	if elem, ok := m.cache.items[canonical]; ok {
		prevGen = elem.Value.(*cacheItem).doc.Metadata.CacheGeneration
	}
	m.cache.mu.Unlock()

	info, err := m.fsys.Stat(absPath)
	if err != nil {
		m.cache.Invalidate(canonical)
		return
	}

	doc, err := newCachedDocument(canonical, newContent, info.ModTime().UnixMilli(), prevGen, time.Now())
	if err != nil {
		m.cache.Invalidate(canonical)
		return
	}

	m.cache.Put(canonical, doc, prevGen)
}

// UpdateSection overwrites slug's body with newBody.
func (m *Manager) UpdateSection(clientPath, slug, newBody string) (Action, error) {
	_, action, err := m.mutate(clientPath, func(content []byte, headings []markdown.Heading) ([]byte, Action, error) {
		return markdown.Edit(content, headings, markdown.Replace, slug, "", newBody, 0)
	})

	return action, err
}

// AppendSection appends payload to slug's body.
func (m *Manager) AppendSection(clientPath, slug, payload string) (Action, error) {
	_, action, err := m.mutate(clientPath, func(content []byte, headings []markdown.Heading) ([]byte, Action, error) {
		return markdown.Edit(content, headings, markdown.Append, slug, "", payload, 0)
	})

	return action, err
}

// PrependSection inserts payload at the start of slug's body.
func (m *Manager) PrependSection(clientPath, slug, payload string) (Action, error) {
	_, action, err := m.mutate(clientPath, func(content []byte, headings []markdown.Heading) ([]byte, Action, error) {
		return markdown.Edit(content, headings, markdown.Prepend, slug, "", payload, 0)
	})

	return action, err
}

// InsertSection creates a new section relative to refSlug per mode
// (InsertBefore / InsertAfter / AppendChild), returning the new slug.
func (m *Manager) InsertSection(clientPath, refSlug string, mode markdown.Mode, depthHint int, title, body string) (Action, error) {
	_, action, err := m.mutate(clientPath, func(content []byte, headings []markdown.Heading) ([]byte, Action, error) {
		return markdown.Edit(content, headings, mode, refSlug, title, body, depthHint)
	})

	return action, err
}

// DeleteSection removes slug and its subtree, returning the removed content.
func (m *Manager) DeleteSection(clientPath, slug string) (Action, error) {
	_, action, err := m.mutate(clientPath, func(content []byte, headings []markdown.Heading) ([]byte, Action, error) {
		return markdown.Edit(content, headings, markdown.Remove, slug, "", "", 0)
	})

	return action, err
}

// RenameSection rewrites slug's heading line to newTitle, returning the new
// slug.
func (m *Manager) RenameSection(clientPath, slug, newTitle string) (string, error) {
	var newSlug string

	_, _, err := m.mutate(clientPath, func(content []byte, headings []markdown.Heading) ([]byte, Action, error) {
		out, ns, err := markdown.RenameHeading(content, headings, slug, newTitle)
		newSlug = ns

		return out, Action{Slug: ns}, err
	})

	return newSlug, err
}

// RenameTitle rewrites the document's H1.
func (m *Manager) RenameTitle(clientPath, newTitle string) error {
	_, _, err := m.mutate(clientPath, func(content []byte, headings []markdown.Heading) ([]byte, Action, error) {
		if len(headings) == 0 || headings[0].Depth != 1 {
			return nil, Action{}, &Error{Code: CodeNoTitle}
		}

		out, ns, err := markdown.RenameHeading(content, headings, headings[0].Slug, newTitle)

		return out, Action{Slug: ns}, err
	})

	return err
}

// RenameDocument renames the file at path to newPath within the same
// workspace. It shares MoveDocument's implementation, so missing destination
// directories are created too. The cache entry is not carried across: the
// entries of both paths are invalidated and the destination is reparsed on
// its next read.
func (m *Manager) RenameDocument(clientPath, newClientPath string) error {
	return m.relocate(clientPath, newClientPath)
}

// MoveDocument is RenameDocument across directories, creating any missing
// destination directories first.
func (m *Manager) MoveDocument(oldClientPath, newClientPath string) error {
	return m.relocate(oldClientPath, newClientPath)
}

func (m *Manager) relocate(clientPath, newClientPath string) error {
	src, err := m.resolve(clientPath, true)
	if err != nil {
		return err
	}

	dst, err := m.resolve(newClientPath, false)
	if err != nil {
		return err
	}

	unlockSrc := m.cache.Lock(src.Canonical)
	defer unlockSrc()

	if src.Canonical != dst.Canonical {
		unlockDst := m.cache.Lock(dst.Canonical)
		defer unlockDst()
	}

	exists, err := m.fsys.Exists(dst.AbsPath)
	if err != nil {
		return wrapErr(CodeIOError, err, withPath(dst.Canonical))
	}

	if exists {
		return &Error{Code: CodeDestExists, Path: dst.Canonical}
	}

	if err := m.fsys.MkdirAll(path.Dir(dst.AbsPath), 0o755); err != nil {
		return wrapErr(CodeIOError, err, withPath(dst.Canonical))
	}

	if err := m.fsys.Rename(src.AbsPath, dst.AbsPath); err != nil {
		return wrapErr(CodeIOError, err, withPath(src.Canonical))
	}

	m.cache.Invalidate(src.Canonical)
	m.cache.Invalidate(dst.Canonical)

	m.log.Info().Str("doc_path", src.Canonical).Str("new_doc_path", dst.Canonical).Msg("document relocated")

	return nil
}

// auditRecord is the JSON object spec.md §6 requires alongside an archived
// document: { originalPath, archivedAt, reason }.
type auditRecord struct {
	OriginalPath string `json:"originalPath"`
	ArchivedAt   string `json:"archivedAt"`
	Reason       string `json:"reason"`
}

// ArchiveDocument moves path under /archived/<original path> and writes a
// ".audit" sidecar recording the original location, timestamp, and reason.
func (m *Manager) ArchiveDocument(clientPath, reason string) error {
	src, err := m.resolve(clientPath, true)
	if err != nil {
		return err
	}

	archivedCanonical := "/archived" + src.Canonical

	dst, err := m.resolve(archivedCanonical, false)
	if err != nil {
		return err
	}

	unlock := m.cache.Lock(src.Canonical)
	defer unlock()

	if err := m.fsys.MkdirAll(path.Dir(dst.AbsPath), 0o755); err != nil {
		return wrapErr(CodeIOError, err, withPath(src.Canonical))
	}

	if err := m.fsys.Rename(src.AbsPath, dst.AbsPath); err != nil {
		return wrapErr(CodeIOError, err, withPath(src.Canonical))
	}

	record := auditRecord{
		OriginalPath: src.Canonical,
		ArchivedAt:   time.Now().UTC().Format(time.RFC3339),
		Reason:       reason,
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return wrapErr(CodeIOError, err, withPath(src.Canonical))
	}

	// A single atomic rename-based write: unlike the document content path,
	// the audit sidecar has no prior version to race against, so it needs
	// no mtime-CAS precondition — natefinch/atomic's single-shot write is
	// the right-sized tool here.
	if err := atomic.WriteFile(dst.AbsPath+".audit", strings.NewReader(string(payload))); err != nil {
		return wrapErr(CodeIOError, err, withPath(src.Canonical))
	}

	m.cache.Invalidate(src.Canonical)

	m.log.Info().Str("doc_path", src.Canonical).Msg("document archived")

	return nil
}

// DeleteDocument permanently removes path's file and invalidates the cache.
func (m *Manager) DeleteDocument(clientPath string) error {
	r, err := m.resolve(clientPath, true)
	if err != nil {
		return err
	}

	unlock := m.cache.Lock(r.Canonical)
	defer unlock()

	if err := m.fsys.Remove(r.AbsPath); err != nil {
		return wrapErr(CodeIOError, err, withPath(r.Canonical))
	}

	m.cache.Invalidate(r.Canonical)

	m.log.Info().Str("doc_path", r.Canonical).Msg("document deleted")

	return nil
}

// MoveSectionSameDocument moves a section within one document: remove, then
// create at the destination. Both edits are applied in memory and written
// once, so if the create fails nothing is written, the section stays at its
// original location, and the create's error is returned. An empty
// destTitle keeps the section's current title.
func (m *Manager) MoveSectionSameDocument(clientPath, slug string, destRefSlug string, destMode markdown.Mode, destTitle string, depthHint int) (Action, error) {
	r, err := m.resolve(clientPath, true)
	if err != nil {
		return Action{}, err
	}

	unlock := m.cache.Lock(r.Canonical)
	defer unlock()

	snap, err := fsio.ReadSnapshot(m.fsys, r.AbsPath)
	if err != nil {
		return Action{}, wrapErr(CodeIOError, err, withPath(r.Canonical))
	}

	headings, err := markdown.Parse(snap.Content)
	if err != nil {
		return Action{}, translateEditErr(err, r.Canonical, "")
	}

	srcIdx := markdown.FindSlug(headings, slug)
	if srcIdx == -1 {
		return Action{}, &Error{Code: CodeSectionNotFound, Path: r.Canonical, Slug: slug}
	}

	if destTitle == "" {
		destTitle = headings[srcIdx].Title
	}

	afterRemove, removeAction, err := markdown.Edit(snap.Content, headings, markdown.Remove, slug, "", "", 0)
	if err != nil {
		return Action{}, translateEditErr(err, r.Canonical, slug)
	}

	removedHeadings, err := markdown.Parse(afterRemove)
	if err != nil {
		return Action{}, translateEditErr(err, r.Canonical, slug)
	}

	afterCreate, action, createErr := markdown.Edit(afterRemove, removedHeadings, destMode, destRefSlug, destTitle, removeAction.RemovedContent, depthHint)
	if createErr != nil {
		// Rollback: the file on disk still has the section at its original
		// location, since afterRemove was never written, so the restore
		// cannot fail and the create's own error is what the caller sees.
		return Action{}, translateEditErr(createErr, r.Canonical, destRefSlug)
	}

	if err := fsio.WriteIfUnchanged(m.fsys, m.aw, r.AbsPath, afterCreate, snap.MtimeMS); err != nil {
		if errors.Is(err, fsio.ErrConcurrentModification) {
			return Action{}, &Error{Code: CodeConcurrentModification, Path: r.Canonical}
		}

		return Action{}, wrapErr(CodeIOError, err, withPath(r.Canonical))
	}

	m.invalidateAfterWrite(r.Canonical, r.AbsPath, afterCreate)

	return action, nil
}

// MoveSectionAcrossDocuments moves a section from srcPath to dstPath:
// create at the destination first, then remove from the source. If the
// destination create fails, the source is left untouched. If the source
// remove fails after a successful create, the user is left with duplicate
// content and MOVE_PARTIAL is returned.
func (m *Manager) MoveSectionAcrossDocuments(srcPath, srcSlug, dstPath, destRefSlug string, destMode markdown.Mode, destTitle string, depthHint int) (Action, error) {
	src, err := m.resolve(srcPath, true)
	if err != nil {
		return Action{}, err
	}

	dst, err := m.resolve(dstPath, true)
	if err != nil {
		return Action{}, err
	}

	unlockSrc := m.cache.Lock(src.Canonical)
	defer unlockSrc()

	unlockDst := m.cache.Lock(dst.Canonical)
	defer unlockDst()

	srcSnap, err := fsio.ReadSnapshot(m.fsys, src.AbsPath)
	if err != nil {
		return Action{}, wrapErr(CodeIOError, err, withPath(src.Canonical))
	}

	srcHeadings, err := markdown.Parse(srcSnap.Content)
	if err != nil {
		return Action{}, translateEditErr(err, src.Canonical, "")
	}

	idx := markdown.FindSlug(srcHeadings, srcSlug)
	if idx == -1 {
		return Action{}, &Error{Code: CodeSectionNotFound, Path: src.Canonical, Slug: srcSlug}
	}

	start, end := markdown.Locate(srcHeadings, srcSnap.Content, idx)
	sectionBody := string(srcSnap.Content[start:end])

	dstSnap, err := fsio.ReadSnapshot(m.fsys, dst.AbsPath)
	if err != nil {
		return Action{}, wrapErr(CodeIOError, err, withPath(dst.Canonical))
	}

	dstHeadings, err := markdown.Parse(dstSnap.Content)
	if err != nil {
		return Action{}, translateEditErr(err, dst.Canonical, "")
	}

	newDstContent, action, err := markdown.Edit(dstSnap.Content, dstHeadings, destMode, destRefSlug, destTitle, sectionBody, depthHint)
	if err != nil {
		// Destination create failed: source untouched.
		return Action{}, translateEditErr(err, dst.Canonical, destRefSlug)
	}

	if err := fsio.WriteIfUnchanged(m.fsys, m.aw, dst.AbsPath, newDstContent, dstSnap.MtimeMS); err != nil {
		if errors.Is(err, fsio.ErrConcurrentModification) {
			return Action{}, &Error{Code: CodeConcurrentModification, Path: dst.Canonical}
		}

		return Action{}, wrapErr(CodeIOError, err, withPath(dst.Canonical))
	}

	m.invalidateAfterWrite(dst.Canonical, dst.AbsPath, newDstContent)

	newSrcContent, _, err := markdown.Edit(srcSnap.Content, srcHeadings, markdown.Remove, srcSlug, "", "", 0)
	if err != nil {
		// Destination is durable; source remove failed. The caller now has
		// duplicate content and must be told explicitly.
		return action, &Error{Code: CodeMovePartial, Path: src.Canonical, Slug: srcSlug, Err: err}
	}

	if err := fsio.WriteIfUnchanged(m.fsys, m.aw, src.AbsPath, newSrcContent, srcSnap.MtimeMS); err != nil {
		return action, &Error{Code: CodeMovePartial, Path: src.Canonical, Slug: srcSlug, Err: err}
	}

	m.invalidateAfterWrite(src.Canonical, src.AbsPath, newSrcContent)

	return action, nil
}

// translateEditErr maps a pkg/markdown sentinel error to the corpus error
// taxonomy in spec.md §7.
func translateEditErr(err error, canonicalPath, slug string) error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return err
	}

	code := CodeIOError

	switch {
	case errors.Is(err, markdown.ErrEmptyContent):
		code = CodeEmptyContent
	case errors.Is(err, markdown.ErrCannotRemoveTitle):
		code = CodeCannotRemoveTitle
	case errors.Is(err, markdown.ErrCreateDepthEscape):
		code = CodeCreateDepthEscape
	case errors.Is(err, markdown.ErrSlugNotFound):
		code = CodeSectionNotFound
	case errors.Is(err, markdown.ErrDuplicateSlug):
		code = CodeDuplicateSlug
	}

	return &Error{Code: code, Path: canonicalPath, Slug: slug, Err: err}
}

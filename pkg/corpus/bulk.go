package corpus

import (
	"errors"

	"github.com/mdcorpus/corpus/pkg/fsio"
	"github.com/mdcorpus/corpus/pkg/markdown"
)

// BulkOp is one sub-operation of a bulk section edit.
type BulkOp struct {
	Kind      string // "update", "append", "prepend", "insert_before", "insert_after", "append_child", "remove", "rename_section"
	Slug      string // target slug for update/append/prepend/remove/rename_section; reference slug for insert_*
	Title     string // new heading title for insert_*/rename_section
	Body      string
	DepthHint int
}

// ApplyBulk runs ops in order against a single snapshot of path's file, per
// spec.md §9's bulk-ordering design note: no re-snapshotting between
// sub-operations, so per-item results reflect a consistent, non-interleaved
// view. Bulk operations never short-circuit — a failing item is recorded
// with a per-item error and the remaining items still run against the
// content as it stood before the failure.
func (m *Manager) ApplyBulk(clientPath string, ops []BulkOp) ([]BulkOperationResult, error) {
	r, err := m.resolve(clientPath, true)
	if err != nil {
		return nil, err
	}

	unlock := m.cache.Lock(r.Canonical)
	defer unlock()

	snap, err := fsio.ReadSnapshot(m.fsys, r.AbsPath)
	if err != nil {
		return nil, wrapErr(CodeIOError, err, withPath(r.Canonical))
	}

	content := snap.Content

	headings, err := markdown.Parse(content)
	if err != nil {
		return nil, translateEditErr(err, r.Canonical, "")
	}

	results := make([]BulkOperationResult, 0, len(ops))

	for _, op := range ops {
		newContent, status, section, applyErr := applyBulkOp(content, headings, op)
		if applyErr != nil {
			results = append(results, BulkOperationResult{Status: BulkStatusError, Section: op.Slug, Error: applyErr.Error()})
			continue
		}

		newHeadings, parseErr := markdown.Parse(newContent)
		if parseErr != nil {
			results = append(results, BulkOperationResult{Status: BulkStatusError, Section: op.Slug, Error: parseErr.Error()})
			continue
		}

		content = newContent
		headings = newHeadings

		results = append(results, BulkOperationResult{Status: status, Section: section})
	}

	if err := fsio.WriteIfUnchanged(m.fsys, m.aw, r.AbsPath, content, snap.MtimeMS); err != nil {
		if errors.Is(err, fsio.ErrConcurrentModification) {
			return results, &Error{Code: CodeConcurrentModification, Path: r.Canonical}
		}

		return results, wrapErr(CodeIOError, err, withPath(r.Canonical))
	}

	m.invalidateAfterWrite(r.Canonical, r.AbsPath, content)

	return results, nil
}

func applyBulkOp(content []byte, headings []markdown.Heading, op BulkOp) (newContent []byte, status BulkStatus, section string, err error) {
	switch op.Kind {
	case "update":
		out, action, err := markdown.Edit(content, headings, markdown.Replace, op.Slug, "", op.Body, 0)
		return out, BulkStatusUpdated, action.Slug, err
	case "append":
		out, action, err := markdown.Edit(content, headings, markdown.Append, op.Slug, "", op.Body, 0)
		return out, BulkStatusUpdated, action.Slug, err
	case "prepend":
		out, action, err := markdown.Edit(content, headings, markdown.Prepend, op.Slug, "", op.Body, 0)
		return out, BulkStatusUpdated, action.Slug, err
	case "insert_before":
		out, action, err := markdown.Edit(content, headings, markdown.InsertBefore, op.Slug, op.Title, op.Body, op.DepthHint)
		return out, BulkStatusCreated, action.Slug, err
	case "insert_after":
		out, action, err := markdown.Edit(content, headings, markdown.InsertAfter, op.Slug, op.Title, op.Body, op.DepthHint)
		return out, BulkStatusCreated, action.Slug, err
	case "append_child":
		out, action, err := markdown.Edit(content, headings, markdown.AppendChild, op.Slug, op.Title, op.Body, op.DepthHint)
		return out, BulkStatusCreated, action.Slug, err
	case "remove":
		out, action, err := markdown.Edit(content, headings, markdown.Remove, op.Slug, "", "", 0)
		return out, BulkStatusUpdated, action.Slug, err
	case "rename_section":
		out, newSlug, err := markdown.RenameHeading(content, headings, op.Slug, op.Title)
		return out, BulkStatusUpdated, newSlug, err
	default:
		return nil, BulkStatusError, op.Slug, errUnknownBulkKind
	}
}

var errUnknownBulkKind = errors.New("unknown bulk operation kind")

package corpus

import "time"

// DocumentInfo is the minimum per-document payload spec.md §6 requires on
// every operation response.
type DocumentInfo struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Namespace string `json:"namespace"`
}

// NewDocumentInfo builds the response-facing document summary from a
// loaded document. "Slug" here is the document's own base-name slug (the
// title's slug), matching how tool wrappers key a document independent of
// its full path.
func NewDocumentInfo(doc *CachedDocument) DocumentInfo {
	slug := ""
	if len(doc.Headings) > 0 {
		slug = doc.Headings[0].Slug
	}

	return DocumentInfo{
		Slug:      slug,
		Title:     doc.Metadata.Title,
		Namespace: doc.Metadata.Namespace,
	}
}

// HierarchicalContext describes where a hierarchically-addressed section
// sits in its document's heading tree, per spec.md §6.
type HierarchicalContext struct {
	FullPath    string `json:"full_path"`
	ParentPath  string `json:"parent_path"`
	SectionName string `json:"section_name"`
	Depth       int    `json:"depth"`
}

// NewHierarchicalContext builds the context block for a resolved
// hierarchical address.
func NewHierarchicalContext(fullPath, sectionName string, depth int) HierarchicalContext {
	parent := ""

	if idx := lastSlash(fullPath); idx != -1 {
		parent = fullPath[:idx]
	}

	return HierarchicalContext{
		FullPath:    fullPath,
		ParentPath:  parent,
		SectionName: sectionName,
		Depth:       depth,
	}
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}

	return -1
}

// SectionResult is the response shape for a single section-edit operation.
type SectionResult struct {
	DocumentInfo        DocumentInfo         `json:"document_info"`
	Timestamp           string               `json:"timestamp"`
	Operation           string               `json:"operation"`
	Section             string               `json:"section,omitempty"`
	NewSection          string               `json:"new_section,omitempty"`
	HierarchicalContext *HierarchicalContext `json:"hierarchical_context,omitempty"`
	RemovedContent      string               `json:"removed_content,omitempty"`
}

// NewSectionResult builds a [SectionResult], stamping the current time in
// ISO-8601 form per spec.md §6.
func NewSectionResult(doc *CachedDocument, operation, section, newSection, removedContent string, hc *HierarchicalContext) SectionResult {
	return SectionResult{
		DocumentInfo:        NewDocumentInfo(doc),
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
		Operation:           operation,
		Section:             section,
		NewSection:          newSection,
		HierarchicalContext: hc,
		RemovedContent:      removedContent,
	}
}

// BulkStatus is the per-item outcome of a bulk operation.
type BulkStatus string

const (
	BulkStatusUpdated BulkStatus = "updated"
	BulkStatusCreated BulkStatus = "created"
	BulkStatusError   BulkStatus = "error"
)

// BulkOperationResult is one item's outcome within a bulk edit response,
// per spec.md §6. Bulk operations never short-circuit: every item gets a
// result, successful or not.
type BulkOperationResult struct {
	Status  BulkStatus `json:"status"`
	Section string     `json:"section,omitempty"`
	Error   string     `json:"error,omitempty"`
}

package corpus

import (
	"strings"

	"github.com/mdcorpus/corpus/pkg/markdown"
)

// AddressKind distinguishes the three address shapes spec.md §4.6 defines.
type AddressKind int

const (
	// DocumentAddress is a bare document path with no "#" fragment.
	DocumentAddress AddressKind = iota
	// SectionAddress is a document path plus a "#slug" or "#a/b/c" fragment.
	SectionAddress
	// TaskAddress is a SectionAddress whose resolved heading's nearest
	// depth-2 ancestor is the "tasks" section.
	TaskAddress
)

// Address is a parsed client-facing address string: a document path plus an
// optional section fragment.
type Address struct {
	Kind AddressKind

	// DocPath is the unresolved client-facing document path (still needs
	// [Manager.resolve] via pathutil to become canonical).
	DocPath string

	// Segments is the "#" fragment split on '/'. Empty for a document
	// address. A single element for a plain "#slug" address.
	Segments []string
}

// ParseAddress splits raw into its document-path and section-fragment parts.
// It performs no filesystem or cache lookups — fragment resolution against
// an actual heading tree happens in [ResolveAddress].
func ParseAddress(raw string) Address {
	docPath, fragment, hasFragment := strings.Cut(raw, "#")

	if !hasFragment || fragment == "" {
		return Address{Kind: DocumentAddress, DocPath: docPath}
	}

	segments := strings.Split(fragment, "/")

	return Address{Kind: SectionAddress, DocPath: docPath, Segments: segments}
}

// ResolvedAddress is the outcome of matching an [Address]'s fragment against an
// actual heading tree: the target heading's index and its human-readable
// full path.
type ResolvedAddress struct {
	Kind       AddressKind
	HeadingIdx int
	FullPath   string
	TargetSlug string
}

// errAddressNotFound indicates an address's section fragment could not be
// matched against the document's heading tree.
var errAddressNotFound = &Error{Code: CodeSectionNotFound}

// ResolveAddress matches addr's fragment against headings, walking the
// parent chain for a hierarchical "#a/b/c" address: the last segment is the
// target slug, and every earlier segment must match a strict ancestor in
// order. A plain "#slug" address (one segment) matches purely by slug
// index, per spec.md §9's slug-uniqueness design note.
func ResolveAddress(headings []markdown.Heading, slugIndex map[string]int, addr Address) (ResolvedAddress, error) {
	if addr.Kind == DocumentAddress {
		return ResolvedAddress{Kind: DocumentAddress}, nil
	}

	var idx int

	if len(addr.Segments) == 1 {
		i, ok := slugIndex[addr.Segments[0]]
		if !ok {
			return ResolvedAddress{}, errAddressNotFound
		}

		idx = i
	} else {
		i, ok := matchHierarchical(headings, addr.Segments)
		if !ok {
			return ResolvedAddress{}, errAddressNotFound
		}

		idx = i
	}

	kind := SectionAddress
	if isTaskSection(headings, idx) {
		kind = TaskAddress
	}

	return ResolvedAddress{
		Kind:       kind,
		HeadingIdx: idx,
		FullPath:   markdown.FullPath(headings, idx),
		TargetSlug: headings[idx].Slug,
	}, nil
}

// matchHierarchical walks segments as a parent→child chain through
// headings: segments[len-1] is the target slug, every earlier segment must
// be a matched ancestor in order.
func matchHierarchical(headings []markdown.Heading, segments []string) (int, bool) {
	target := segments[len(segments)-1]

	for i, h := range headings {
		if h.Slug != target {
			continue
		}

		if ancestorsMatch(headings, i, segments[:len(segments)-1]) {
			return i, true
		}
	}

	return 0, false
}

// ancestorsMatch reports whether walking up from headings[idx]'s parent
// chain matches ancestorSlugs in nearest-to-farthest order, i.e. the
// reverse of the address's left-to-right segment order.
func ancestorsMatch(headings []markdown.Heading, idx int, ancestorSlugs []string) bool {
	cur := headings[idx].ParentIndex

	for i := len(ancestorSlugs) - 1; i >= 0; i-- {
		if cur == -1 {
			return false
		}

		if headings[cur].Slug != ancestorSlugs[i] {
			return false
		}

		cur = headings[cur].ParentIndex
	}

	return true
}

// isTaskSection reports whether headings[idx]'s nearest depth-2 ancestor
// (or itself) is titled "Tasks" (case-insensitive), per spec.md §3/§4.6.
func isTaskSection(headings []markdown.Heading, idx int) bool {
	for i := idx; i != -1; i = headings[i].ParentIndex {
		if headings[i].Depth == 2 {
			return strings.EqualFold(headings[i].Title, "Tasks")
		}
	}

	return false
}

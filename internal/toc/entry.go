package toc

import "fmt"

// Key totally orders entries. It is derived from (group rank, page
// index, match offset) when the assembler runs and re-derived from
// sequence position when an edit session commits, so sorting by Key
// always reproduces the intended order exactly.
type Key struct {
	Rank int `json:"rank"`
	Seq  int `json:"seq"`
}

func (k Key) Less(o Key) bool {
	if k.Rank != o.Rank {
		return k.Rank < o.Rank
	}
	return k.Seq < o.Seq
}

// Entry is one row of the table of contents. PageIndex is 0-based;
// Offset is the match position within the page text (0 for entries
// that were inserted by hand or loaded from a TOC file).
type Entry struct {
	ID        string `json:"id"`
	GroupName string `json:"group_name"`
	Label     string `json:"label"`
	PageIndex int    `json:"page_index"`
	Offset    int    `json:"offset"`
	Key       Key    `json:"key"`
}

// PageOutOfRangeError reports an entry whose page target does not
// exist in the document. It is surfaced for manual correction, never
// auto-clamped.
type PageOutOfRangeError struct {
	GroupName string
	Label     string
	PageIndex int
	PageCount int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("entry %q in group %q targets page %d of a %d-page document",
		e.Label, e.GroupName, e.PageIndex+1, e.PageCount)
}

// ValidatePages checks every entry's page target against the document
// page count and returns one error per violation. A pageCount of zero
// or less means the count is unknown and validation is skipped.
func ValidatePages(entries []Entry, pageCount int) []error {
	if pageCount <= 0 {
		return nil
	}
	var errs []error
	for _, entry := range entries {
		if entry.PageIndex < 0 || entry.PageIndex >= pageCount {
			errs = append(errs, &PageOutOfRangeError{
				GroupName: entry.GroupName,
				Label:     entry.Label,
				PageIndex: entry.PageIndex,
				PageCount: pageCount,
			})
		}
	}
	return errs
}

// GroupNames returns the distinct group names in first-seen order.
func GroupNames(entries []Entry) []string {
	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if !seen[entry.GroupName] {
			seen[entry.GroupName] = true
			names = append(names, entry.GroupName)
		}
	}
	return names
}

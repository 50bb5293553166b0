package toc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// InvalidReferenceError reports an editor operation that referenced an
// unknown id (including ids from a previous commit), an out-of-range
// page, or an unusable draft.
type InvalidReferenceError struct {
	Ref    string
	Reason string
}

func (e *InvalidReferenceError) Error() string {
	if e.Ref == "" {
		return "invalid reference: " + e.Reason
	}
	return fmt.Sprintf("invalid reference %q: %s", e.Ref, e.Reason)
}

// Draft is the caller-supplied part of a new entry.
type Draft struct {
	GroupName string `json:"group_name"`
	Label     string `json:"label"`
	PageIndex int    `json:"page_index"`
}

// Editor is the single-writer session that mutates a TOC between
// assembly and outline building. All operations serialize on one
// mutex; ids are valid for one commit generation only, so a handle
// held across Commit fails with InvalidReferenceError instead of
// silently editing the wrong entry. The editor never touches the PDF.
type Editor struct {
	mu        sync.Mutex
	gen       string
	nextSeq   int
	entries   []Entry
	pageCount int
}

// NewEditor copies entries into a fresh session. pageCount bounds
// retarget and insert targets; zero means unknown (no bounds check).
func NewEditor(entries []Entry, pageCount int) *Editor {
	e := &Editor{pageCount: pageCount}
	e.entries = make([]Entry, len(entries))
	copy(e.entries, entries)
	e.rekeyLocked()
	return e
}

// Generation identifies the current commit generation. Ids issued by
// List are only valid while the generation is unchanged.
func (e *Editor) Generation() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// List returns a snapshot of the current sequence.
func (e *Editor) List() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// PageCount returns the document page bound the session validates
// against, zero when unknown.
func (e *Editor) PageCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pageCount
}

// Insert adds a draft after the entry afterID, or at the head of the
// sequence when afterID is empty. An empty draft group inherits the
// anchor's group.
func (e *Editor) Insert(afterID string, d Draft) (Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	label := strings.TrimSpace(d.Label)
	if label == "" {
		return Entry{}, &InvalidReferenceError{Reason: "draft label is empty"}
	}
	if err := e.checkPageLocked(d.PageIndex); err != nil {
		return Entry{}, err
	}

	pos := 0
	group := strings.TrimSpace(d.GroupName)
	if afterID != "" {
		idx, err := e.indexOfLocked(afterID)
		if err != nil {
			return Entry{}, err
		}
		pos = idx + 1
		if group == "" {
			group = e.entries[idx].GroupName
		}
	}
	if group == "" {
		return Entry{}, &InvalidReferenceError{Reason: "draft group is required when inserting at the head"}
	}

	e.nextSeq++
	entry := Entry{
		ID:        fmt.Sprintf("%s-%04d", e.gen, e.nextSeq),
		GroupName: group,
		Label:     label,
		PageIndex: d.PageIndex,
	}
	e.entries = append(e.entries, Entry{})
	copy(e.entries[pos+1:], e.entries[pos:])
	e.entries[pos] = entry
	e.normalizeLocked()

	idx, err := e.indexOfLocked(entry.ID)
	if err != nil {
		return Entry{}, err
	}
	return e.entries[idx], nil
}

// Delete removes the entry with the given id.
func (e *Editor) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, err := e.indexOfLocked(id)
	if err != nil {
		return err
	}
	e.entries = append(e.entries[:idx], e.entries[idx+1:]...)
	e.normalizeLocked()
	return nil
}

// Move places the entry at a new position in the sequence. Positions
// are clamped into range; group blocks stay contiguous, so the final
// resting position of an entry moved into another group's block is
// the nearest slot inside its own group.
func (e *Editor) Move(id string, newPos int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, err := e.indexOfLocked(id)
	if err != nil {
		return err
	}
	entry := e.entries[idx]
	e.entries = append(e.entries[:idx], e.entries[idx+1:]...)

	if newPos < 0 {
		newPos = 0
	}
	if newPos > len(e.entries) {
		newPos = len(e.entries)
	}
	e.entries = append(e.entries, Entry{})
	copy(e.entries[newPos+1:], e.entries[newPos:])
	e.entries[newPos] = entry
	e.normalizeLocked()
	return nil
}

// Retarget points an entry at a different page.
func (e *Editor) Retarget(id string, newPage int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, err := e.indexOfLocked(id)
	if err != nil {
		return err
	}
	if err := e.checkPageLocked(newPage); err != nil {
		return err
	}
	e.entries[idx].PageIndex = newPage
	e.entries[idx].Offset = 0
	return nil
}

// RenameGroup renames every entry of oldName to newName in one step.
// Renaming onto an existing group merges the two; the merged block
// sits where the earlier of the two blocks was.
func (e *Editor) RenameGroup(oldName, newName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return &InvalidReferenceError{Ref: oldName, Reason: "new group name is empty"}
	}
	found := false
	for i := range e.entries {
		if e.entries[i].GroupName == oldName {
			found = true
			break
		}
	}
	if !found {
		return &InvalidReferenceError{Ref: oldName, Reason: "unknown group"}
	}
	for i := range e.entries {
		if e.entries[i].GroupName == oldName {
			e.entries[i].GroupName = newName
		}
	}
	e.normalizeLocked()
	return nil
}

// Commit freezes the current sequence and returns it with canonical
// sequential ids and re-derived keys. The session itself moves to a
// new generation: ids issued before the commit stop resolving.
func (e *Editor) Commit() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.normalizeLocked()
	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	for i := range out {
		out[i].ID = fmt.Sprintf("e%04d", i+1)
	}
	e.rekeyLocked()
	return out
}

func (e *Editor) indexOfLocked(id string) (int, error) {
	for i := range e.entries {
		if e.entries[i].ID == id {
			return i, nil
		}
	}
	return 0, &InvalidReferenceError{Ref: id, Reason: "unknown id (stale after commit?)"}
}

func (e *Editor) checkPageLocked(page int) error {
	if page < 0 {
		return &InvalidReferenceError{Ref: fmt.Sprintf("page %d", page), Reason: "page index is negative"}
	}
	if e.pageCount > 0 && page >= e.pageCount {
		return &InvalidReferenceError{
			Ref:    fmt.Sprintf("page %d", page),
			Reason: fmt.Sprintf("document has %d pages", e.pageCount),
		}
	}
	return nil
}

// normalizeLocked restores the grouping invariant: entries of one
// group stay contiguous, groups keep first-seen order, and keys are
// re-derived from the resulting positions.
func (e *Editor) normalizeLocked() {
	var names []string
	byGroup := make(map[string][]Entry)
	for _, entry := range e.entries {
		if _, ok := byGroup[entry.GroupName]; !ok {
			names = append(names, entry.GroupName)
		}
		byGroup[entry.GroupName] = append(byGroup[entry.GroupName], entry)
	}

	e.entries = e.entries[:0]
	for rank, name := range names {
		for seq, entry := range byGroup[name] {
			entry.Key = Key{Rank: rank, Seq: seq}
			e.entries = append(e.entries, entry)
		}
	}
}

// rekeyLocked starts a fresh generation and reissues every id.
func (e *Editor) rekeyLocked() {
	e.gen = uuid.NewString()[:8]
	e.nextSeq = 0
	e.normalizeLocked()
	for i := range e.entries {
		e.nextSeq++
		e.entries[i].ID = fmt.Sprintf("%s-%04d", e.gen, e.nextSeq)
	}
}

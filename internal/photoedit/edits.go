package photoedit

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/msomdec/design-gallery/internal/domain"
)

// PreconditionError is the panic value raised when an Edits operation is
// called with a position outside the snapshot. It signals a desync between
// the caller and the store and must not be recovered silently.
type PreconditionError struct {
	Op    string
	Index int
	Size  int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("photoedit: %s: index %d out of range [0,%d)", e.Op, e.Index, e.Size)
}

// Replacement is a pending replace of the existing photo at TargetIndex.
type Replacement struct {
	TargetIndex int
	File        domain.PhotoFile
	Preview     Handle
}

// Appended is a pending new photo. LocalID only addresses it within the
// session and is never sent to the update endpoint.
type Appended struct {
	LocalID string
	File    domain.PhotoFile
	Preview Handle
}

// Edits is the pending edit set of one photo category.
type Edits struct {
	size     int
	previews *Previews
	replace  map[int]Replacement
	appended []Appended
	deleted  map[int]struct{}
}

// NewEdits creates an empty edit set for a snapshot of size existing photos.
// Previews are allocated from and released to p.
func NewEdits(size int, p *Previews) *Edits {
	return &Edits{
		size:     size,
		previews: p,
		replace:  make(map[int]Replacement),
		deleted:  make(map[int]struct{}),
	}
}

// Size returns the length of the snapshot the edits refer to.
func (e *Edits) Size() int { return e.size }

func (e *Edits) mustBeInRange(op string, i int) {
	if i < 0 || i >= e.size {
		panic(&PreconditionError{Op: op, Index: i, Size: e.size})
	}
}

// RequestReplace sets file as the replacement for position i. An existing
// replacement for i is updated in place and its preview released.
func (e *Edits) RequestReplace(i int, file domain.PhotoFile) Handle {
	e.mustBeInRange("replace", i)
	if old, ok := e.replace[i]; ok {
		e.previews.Release(old.Preview)
	}
	h := e.previews.Create(file)
	e.replace[i] = Replacement{TargetIndex: i, File: file, Preview: h}
	return h
}

// CancelReplace drops the pending replacement for position i, if any.
func (e *Edits) CancelReplace(i int) bool {
	e.mustBeInRange("cancel replace", i)
	old, ok := e.replace[i]
	if !ok {
		return false
	}
	e.previews.Release(old.Preview)
	delete(e.replace, i)
	return true
}

// AppendMany adds each file as a pending new photo and returns their local IDs.
func (e *Edits) AppendMany(files []domain.PhotoFile) []string {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		a := Appended{LocalID: uuid.NewString(), File: f, Preview: e.previews.Create(f)}
		e.appended = append(e.appended, a)
		ids = append(ids, a.LocalID)
	}
	return ids
}

// RemoveAppended drops the pending new photo with the given local ID.
func (e *Edits) RemoveAppended(localID string) bool {
	idx := slices.IndexFunc(e.appended, func(a Appended) bool { return a.LocalID == localID })
	if idx < 0 {
		return false
	}
	e.previews.Release(e.appended[idx].Preview)
	e.appended = slices.Delete(e.appended, idx, idx+1)
	return true
}

// MarkDeleted marks position i for deletion, cancelling any pending
// replacement of it first. Marking twice is a no-op.
func (e *Edits) MarkDeleted(i int) {
	e.mustBeInRange("delete", i)
	e.CancelReplace(i)
	e.deleted[i] = struct{}{}
}

// UndoDeleted unmarks position i. A replacement cancelled by MarkDeleted is
// not restored.
func (e *Edits) UndoDeleted(i int) {
	e.mustBeInRange("undo delete", i)
	delete(e.deleted, i)
}

// Reset releases every preview held by the edit set and clears it.
func (e *Edits) Reset() {
	for i, r := range e.replace {
		e.previews.Release(r.Preview)
		delete(e.replace, i)
	}
	for _, a := range e.appended {
		e.previews.Release(a.Preview)
	}
	e.appended = nil
	clear(e.deleted)
}

// rebase resets the edit set against a new snapshot length.
func (e *Edits) rebase(size int) {
	e.Reset()
	e.size = size
}

// IsDeleted reports whether position i is marked for deletion.
func (e *Edits) IsDeleted(i int) bool {
	e.mustBeInRange("is deleted", i)
	_, ok := e.deleted[i]
	return ok
}

// Replacement returns the pending replacement for position i.
func (e *Edits) Replacement(i int) (Replacement, bool) {
	e.mustBeInRange("replacement", i)
	r, ok := e.replace[i]
	return r, ok
}

// Replacements returns pending replacements by ascending target index.
func (e *Edits) Replacements() []Replacement {
	out := make([]Replacement, 0, len(e.replace))
	for _, r := range e.replace {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Replacement) int { return a.TargetIndex - b.TargetIndex })
	return out
}

// Appended returns pending new photos in insertion order.
func (e *Edits) Appended() []Appended {
	return slices.Clone(e.appended)
}

// Deleted returns positions marked for deletion in ascending order.
func (e *Edits) Deleted() []int {
	out := make([]int, 0, len(e.deleted))
	for i := range e.deleted {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Pending reports whether any edit is pending.
func (e *Edits) Pending() bool {
	return len(e.replace) > 0 || len(e.appended) > 0 || len(e.deleted) > 0
}

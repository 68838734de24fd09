package photoedit

import "github.com/msomdec/design-gallery/internal/domain"

// Reconcile converts the pending edits of one category into the update
// endpoint's change set. Replacements come first by ascending target index,
// followed by appends in the order they were added, each tagged
// domain.AppendIndex. The result is deterministic for a given edit set.
func Reconcile(e *Edits) domain.PhotoChanges {
	replacements := e.Replacements()
	appended := e.Appended()

	n := len(replacements) + len(appended)
	changes := domain.PhotoChanges{
		Files:   make([]domain.PhotoFile, 0, n),
		Indices: make([]int, 0, n),
		Deleted: e.Deleted(),
	}
	for _, r := range replacements {
		changes.Files = append(changes.Files, r.File)
		changes.Indices = append(changes.Indices, r.TargetIndex)
	}
	for _, a := range appended {
		changes.Files = append(changes.Files, a.File)
		changes.Indices = append(changes.Indices, domain.AppendIndex)
	}
	return changes
}

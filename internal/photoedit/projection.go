package photoedit

import (
	"slices"

	"github.com/msomdec/design-gallery/internal/domain"
)

// State is the effective display state of an existing photo.
type State string

const (
	StateNormal    State = "normal"
	StateReplacing State = "replacing"
	StateDeleted   State = "deleted"
)

// Action is a user affordance offered for a photo.
type Action string

const (
	ActionReplace       Action = "replace"
	ActionCancelReplace Action = "cancel-replace"
	ActionDelete        Action = "delete"
	ActionUndoDelete    Action = "undo-delete"
	ActionRemove        Action = "remove"
)

// ExistingView is the render model of one persisted photo.
type ExistingView struct {
	Index   int
	State   State
	URL     string // Persisted locator, shown unless State is StateReplacing
	Preview Handle // Set when State is StateReplacing
	Actions []Action
}

// Allows reports whether a is offered for this photo.
func (v ExistingView) Allows(a Action) bool {
	return slices.Contains(v.Actions, a)
}

// AppendedView is the render model of one pending new photo.
type AppendedView struct {
	LocalID string
	Name    string
	Preview Handle
	Actions []Action
}

// Allows reports whether a is offered for this photo.
func (v AppendedView) Allows(a Action) bool {
	return slices.Contains(v.Actions, a)
}

// CategoryView is the render model of one photo category.
type CategoryView struct {
	Category domain.PhotoCategory
	Existing []ExistingView
	Appended []AppendedView
}

// Project derives the render model of a category from its snapshot and its
// pending edits. It does not modify e.
func Project(c domain.PhotoCategory, snapshot []string, e *Edits) CategoryView {
	v := CategoryView{
		Category: c,
		Existing: make([]ExistingView, len(snapshot)),
	}
	for i, url := range snapshot {
		ev := ExistingView{Index: i, URL: url}
		switch r, replacing := e.Replacement(i); {
		case e.IsDeleted(i):
			ev.State = StateDeleted
			ev.Actions = []Action{ActionUndoDelete}
		case replacing:
			ev.State = StateReplacing
			ev.Preview = r.Preview
			ev.Actions = []Action{ActionCancelReplace, ActionDelete}
		default:
			ev.State = StateNormal
			ev.Actions = []Action{ActionReplace, ActionDelete}
		}
		v.Existing[i] = ev
	}
	for _, a := range e.Appended() {
		v.Appended = append(v.Appended, AppendedView{
			LocalID: a.LocalID,
			Name:    a.File.Name,
			Preview: a.Preview,
			Actions: []Action{ActionRemove},
		})
	}
	return v
}

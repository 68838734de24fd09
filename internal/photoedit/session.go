package photoedit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/msomdec/design-gallery/internal/domain"
)

var (
	// ErrSaveInProgress is returned for any mutation attempted while a save
	// is waiting on the update endpoint.
	ErrSaveInProgress = errors.New("save in progress")
	// ErrSessionClosed is returned once a session has been discarded.
	ErrSessionClosed = errors.New("edit session closed")
	// ErrRemoteFailure wraps errors returned by the update endpoint.
	ErrRemoteFailure = errors.New("remote update failed")
	// ErrActionUnavailable is returned when the requested action is not
	// offered for the photo in its current state.
	ErrActionUnavailable = errors.New("action not available")
)

// Updater applies a reconciled design update and returns the design as
// persisted, including its new photo arrays.
type Updater interface {
	UpdateDesign(ctx context.Context, designID int64, update domain.DesignUpdate) (*domain.Design, error)
}

// EditorView is the render model of a whole edit session.
type EditorView struct {
	SessionID  string
	DesignID   int64
	Categories []CategoryView
	Saving     bool
	Pending    bool
}

// Session is one photo edit session for a design. Its methods are safe to
// call from concurrent requests; while Save waits on the remote store all
// mutations fail with ErrSaveInProgress.
type Session struct {
	id       string
	designID int64

	mu           sync.Mutex
	saving       bool
	closed       bool
	lastActivity time.Time
	snapshot     map[domain.PhotoCategory][]string
	edits        map[domain.PhotoCategory]*Edits
	previews     *Previews
}

// NewSession starts an edit session seeded from design's current photos.
func NewSession(id string, design *domain.Design) *Session {
	s := &Session{
		id:           id,
		designID:     design.ID,
		lastActivity: time.Now(),
		snapshot:     make(map[domain.PhotoCategory][]string),
		edits:        make(map[domain.PhotoCategory]*Edits),
		previews:     NewPreviews(),
	}
	for _, c := range domain.PhotoCategories {
		urls := design.PhotoURLs(c)
		s.snapshot[c] = urls
		s.edits[c] = NewEdits(len(urls), s.previews)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// DesignID returns the design being edited.
func (s *Session) DesignID() int64 { return s.designID }

// LastActivity returns when the session was last touched.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// mutate runs fn under the session lock once the session is confirmed open
// and idle.
func (s *Session) mutate(c domain.PhotoCategory, fn func(e *Edits) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.saving {
		return ErrSaveInProgress
	}
	e, ok := s.edits[c]
	if !ok {
		return fmt.Errorf("%w: unknown photo category %q", domain.ErrInvalidInput, c)
	}
	s.lastActivity = time.Now()
	return fn(e)
}

// existing resolves position i of e for an action, rejecting positions the
// caller cannot know about and actions the current state does not offer.
func existing(c domain.PhotoCategory, snapshot []string, e *Edits, i int, a Action) error {
	if i < 0 || i >= e.Size() {
		return fmt.Errorf("%w: %s photo %d does not exist", domain.ErrInvalidInput, c, i)
	}
	v := Project(c, snapshot, e).Existing[i]
	if !v.Allows(a) {
		return fmt.Errorf("%w: %s on %s photo %d", ErrActionUnavailable, a, v.State, i)
	}
	return nil
}

// ChooseReplacement validates files picked to replace position i and, if one
// is accepted, sets it as the replacement.
func (s *Session) ChooseReplacement(c domain.PhotoCategory, i int, files []domain.PhotoFile) (Validation, error) {
	var v Validation
	err := s.mutate(c, func(e *Edits) error {
		if i < 0 || i >= e.Size() {
			return fmt.Errorf("%w: %s photo %d does not exist", domain.ErrInvalidInput, c, i)
		}
		// A photo that is already being replaced may be replaced again.
		if e.IsDeleted(i) {
			return fmt.Errorf("%w: %s on deleted %s photo %d", ErrActionUnavailable, ActionReplace, c, i)
		}
		v = Validate(files, ModeReplace)
		if len(v.Accepted) > 0 {
			e.RequestReplace(i, v.Accepted[0])
		}
		return nil
	})
	return v, err
}

// ChooseAppends validates files picked to be added and appends the accepted ones.
func (s *Session) ChooseAppends(c domain.PhotoCategory, files []domain.PhotoFile) (Validation, error) {
	var v Validation
	err := s.mutate(c, func(e *Edits) error {
		v = Validate(files, ModeAppend)
		e.AppendMany(v.Accepted)
		return nil
	})
	return v, err
}

// CancelReplace drops the pending replacement of position i.
func (s *Session) CancelReplace(c domain.PhotoCategory, i int) error {
	return s.mutate(c, func(e *Edits) error {
		if err := existing(c, s.snapshot[c], e, i, ActionCancelReplace); err != nil {
			return err
		}
		e.CancelReplace(i)
		return nil
	})
}

// MarkDeleted marks position i for deletion, dropping any pending replacement.
func (s *Session) MarkDeleted(c domain.PhotoCategory, i int) error {
	return s.mutate(c, func(e *Edits) error {
		if err := existing(c, s.snapshot[c], e, i, ActionDelete); err != nil {
			return err
		}
		e.MarkDeleted(i)
		return nil
	})
}

// UndoDeleted unmarks position i.
func (s *Session) UndoDeleted(c domain.PhotoCategory, i int) error {
	return s.mutate(c, func(e *Edits) error {
		if err := existing(c, s.snapshot[c], e, i, ActionUndoDelete); err != nil {
			return err
		}
		e.UndoDeleted(i)
		return nil
	})
}

// RemoveAppended drops a pending new photo.
func (s *Session) RemoveAppended(c domain.PhotoCategory, localID string) error {
	return s.mutate(c, func(e *Edits) error {
		if !e.RemoveAppended(localID) {
			return fmt.Errorf("%w: pending photo %q", domain.ErrNotFound, localID)
		}
		return nil
	})
}

// View projects the current state of every category.
func (s *Session) View() EditorView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := EditorView{SessionID: s.id, DesignID: s.designID, Saving: s.saving}
	for _, c := range domain.PhotoCategories {
		e := s.edits[c]
		v.Categories = append(v.Categories, Project(c, s.snapshot[c], e))
		v.Pending = v.Pending || e.Pending()
	}
	return v
}

// Preview returns the file behind a live preview handle ID.
func (s *Session) Preview(id string) (domain.PhotoFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previews.Lookup(id)
}

// Payload reconciles every category into the update request for fields.
func (s *Session) Payload(fields domain.DesignFields) domain.DesignUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloadLocked(fields)
}

func (s *Session) payloadLocked(fields domain.DesignFields) domain.DesignUpdate {
	u := domain.DesignUpdate{
		Fields: fields,
		Photos: make(map[domain.PhotoCategory]domain.PhotoChanges, len(s.edits)),
	}
	for _, c := range domain.PhotoCategories {
		u.Photos[c] = Reconcile(s.edits[c])
	}
	return u
}

// Save sends the reconciled edits to up. On success the pending edits are
// cleared and the snapshot replaced by the returned photo arrays. On failure
// every pending edit is kept so the save can be retried.
func (s *Session) Save(ctx context.Context, fields domain.DesignFields, up Updater) (*domain.Design, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.saving {
		s.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	s.saving = true
	s.lastActivity = time.Now()
	update := s.payloadLocked(fields)
	s.mu.Unlock()

	design, err := up.UpdateDesign(ctx, s.designID, update)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	s.lastActivity = time.Now()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteFailure, err)
	}
	if design == nil {
		return nil, fmt.Errorf("%w: empty response", ErrRemoteFailure)
	}
	if s.closed {
		return design, nil
	}
	for _, c := range domain.PhotoCategories {
		urls := design.PhotoURLs(c)
		s.snapshot[c] = urls
		s.edits[c].rebase(len(urls))
	}
	return design, nil
}

// Discard releases every live preview and closes the session. It returns the
// number of handles released. Discarding twice is a no-op.
func (s *Session) Discard() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.closed = true
	live := s.previews.Live()
	for _, e := range s.edits {
		e.Reset()
	}
	s.previews.ReleaseAll()
	return live
}

// PreviewStats reports handle counters for diagnostics.
func (s *Session) PreviewStats() (created, released, live int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previews.Created(), s.previews.Released(), s.previews.Live()
}

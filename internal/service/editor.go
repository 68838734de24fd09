package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/photoedit"
)

// DesignBackend loads design snapshots and accepts reconciled updates. It is
// satisfied by DesignService for the local store and by client.Client for a
// remote design API.
type DesignBackend interface {
	photoedit.Updater
	GetDesign(ctx context.Context, id int64) (*domain.Design, error)
}

type editorEntry struct {
	session *photoedit.Session
	ownerID int64
}

// EditorService keeps the open photo edit sessions. A session belongs to the
// user who opened it; sessions idle past the TTL are discarded by Sweep.
type EditorService struct {
	backend DesignBackend
	ttl     time.Duration

	mu       sync.Mutex
	sessions map[string]editorEntry
}

// NewEditorService creates an EditorService over backend.
func NewEditorService(backend DesignBackend, ttl time.Duration) *EditorService {
	return &EditorService{
		backend:  backend,
		ttl:      ttl,
		sessions: make(map[string]editorEntry),
	}
}

// Open starts an edit session for the design after checking the user may
// edit it.
func (s *EditorService) Open(ctx context.Context, user *domain.User, designID int64) (*photoedit.Session, error) {
	d, err := s.backend.GetDesign(ctx, designID)
	if err != nil {
		return nil, err
	}
	if !user.CanEditDesign(d) {
		return nil, domain.ErrForbidden
	}

	session := photoedit.NewSession(uuid.NewString(), d)

	s.mu.Lock()
	s.sessions[session.ID()] = editorEntry{session: session, ownerID: user.ID}
	s.mu.Unlock()

	slog.Info("editor session opened", "session", session.ID(), "design", designID, "user", user.ID)
	return session, nil
}

// Get returns the user's session. Sessions of other users are reported as
// not found.
func (s *EditorService) Get(id string, user *domain.User) (*photoedit.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok || user == nil || entry.ownerID != user.ID {
		return nil, domain.ErrNotFound
	}
	return entry.session, nil
}

// Design loads the current state of the design a session edits.
func (s *EditorService) Design(ctx context.Context, session *photoedit.Session) (*domain.Design, error) {
	return s.backend.GetDesign(ctx, session.DesignID())
}

// Save saves the session through the backend.
func (s *EditorService) Save(ctx context.Context, id string, user *domain.User, fields domain.DesignFields) (*domain.Design, error) {
	session, err := s.Get(id, user)
	if err != nil {
		return nil, err
	}

	d, err := session.Save(ctx, fields, s.backend)
	if err != nil {
		slog.Error("save editor session", "session", id, "design", session.DesignID(), "error", err)
		return nil, err
	}
	slog.Info("editor session saved", "session", id, "design", d.ID)
	return d, nil
}

// Close discards the user's session and releases its previews.
func (s *EditorService) Close(id string, user *domain.User) error {
	session, err := s.Get(id, user)
	if err != nil {
		return err
	}
	s.remove(id)
	released := session.Discard()
	slog.Info("editor session closed", "session", id, "released", released)
	return nil
}

// Len returns the number of open sessions.
func (s *EditorService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep discards every session idle since before now minus the TTL and
// returns how many were discarded.
func (s *EditorService) Sweep(now time.Time) int {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	var expired []*photoedit.Session
	for id, entry := range s.sessions {
		if entry.session.LastActivity().Before(cutoff) {
			expired = append(expired, entry.session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		released := session.Discard()
		slog.Info("editor session expired", "session", session.ID(), "released", released)
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done, then discards
// every remaining session.
func (s *EditorService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			remaining := s.sessions
			s.sessions = make(map[string]editorEntry)
			s.mu.Unlock()
			for _, entry := range remaining {
				entry.session.Discard()
			}
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

func (s *EditorService) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

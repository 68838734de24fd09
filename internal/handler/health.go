package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports how many editor sessions are open.
type SessionCounter interface {
	Len() int
}

// HealthHandler reports liveness of the database and the editor registry.
type HealthHandler struct {
	db       Pinger
	sessions SessionCounter
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions}
}

// HandleHealthz responds 200 with the open editor session count, or 503 when
// the database does not answer within two seconds.
// GET /healthz
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Error("health check: database unreachable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"editorSessions": h.sessions.Len(),
	})
}

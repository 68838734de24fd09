package handler

import (
	"net/http"

	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/photoedit"
	"github.com/msomdec/design-gallery/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. loginLimiter
// guards credential endpoints, uploadLimiter the editor uploads.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	designs *service.DesignService,
	editor *service.EditorService,
	files domain.FileStore,
	db Pinger,
	loginLimiter, uploadLimiter *service.TokenBucket,
	cookieSecure bool,
) {
	authHandler := NewAuthHandler(auth, cookieSecure)
	designHandler := NewDesignHandler(designs)
	photoHandler := NewPhotoHandler(files)
	editorHandler := NewEditorHandler(editor)
	healthHandler := NewHealthHandler(db, editor)

	protected := func(h http.HandlerFunc) http.Handler { return RequireAuth(auth, h) }
	limited := func(l *service.TokenBucket, h http.Handler) http.Handler { return RateLimit(l, h) }

	mux.HandleFunc("GET /healthz", healthHandler.HandleHealthz)

	// Auth API
	mux.Handle("POST /api/auth/register", limited(loginLimiter, http.HandlerFunc(authHandler.HandleRegister)))
	mux.Handle("POST /api/auth/login", limited(loginLimiter, http.HandlerFunc(authHandler.HandleLogin)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.Handle("GET /api/auth/me", OptionalAuth(auth, http.HandlerFunc(authHandler.HandleMe)))

	// Design API
	mux.HandleFunc("GET /api/designs", designHandler.HandleList)
	mux.HandleFunc("GET /api/designs/{id}", designHandler.HandleGet)
	mux.Handle("POST /api/designs", protected(designHandler.HandleCreate))
	mux.Handle("PUT /api/designs/{id}", protected(designHandler.HandleUpdate))
	mux.Handle("DELETE /api/designs/{id}", protected(designHandler.HandleDelete))
	mux.HandleFunc("GET /photos/{key...}", photoHandler.HandleServe)

	// Photo editor
	mux.Handle("POST /designs/{id}/editor", protected(editorHandler.HandleOpen))
	mux.Handle("GET /editor/{sid}", protected(editorHandler.HandlePage))
	mux.Handle("GET /editor/{sid}/panel", protected(editorHandler.HandlePanel))
	mux.Handle("GET /editor/{sid}/previews/{id}", protected(editorHandler.HandlePreview))
	mux.Handle("POST /editor/{sid}/save", protected(editorHandler.HandleSave))
	mux.Handle("POST /editor/{sid}/close", protected(editorHandler.HandleClose))
	mux.Handle("POST /editor/{sid}/{category}/{index}/cancel-replace", protected(editorHandler.HandleAction(photoedit.ActionCancelReplace)))
	mux.Handle("POST /editor/{sid}/{category}/{index}/delete", protected(editorHandler.HandleAction(photoedit.ActionDelete)))
	mux.Handle("POST /editor/{sid}/{category}/{index}/undo-delete", protected(editorHandler.HandleAction(photoedit.ActionUndoDelete)))
	mux.Handle("POST /editor/{sid}/{category}/appended/{localID}/remove", protected(editorHandler.HandleAction(photoedit.ActionRemove)))
	mux.Handle("POST /editor/{sid}/{category}/{index}/replace", limited(uploadLimiter, protected(editorHandler.HandleUpload(photoedit.ModeReplace))))
	mux.Handle("POST /editor/{sid}/{category}/append", limited(uploadLimiter, protected(editorHandler.HandleUpload(photoedit.ModeAppend))))
}

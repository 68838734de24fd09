package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/design-gallery/internal/domain"
)

// maxUploadBody bounds multipart request bodies: a handful of photos at the
// per-file limit plus form overhead.
const maxUploadBody = 64 << 20

// PhotoHandler serves stored photo bytes.
type PhotoHandler struct {
	files domain.FileStore
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(files domain.FileStore) *PhotoHandler {
	return &PhotoHandler{files: files}
}

// HandleServe writes a stored photo.
// GET /photos/{key...}
func (h *PhotoHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	data, err := h.files.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		slog.Error("serve photo", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Keys are never reused, so stored bytes are immutable.
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

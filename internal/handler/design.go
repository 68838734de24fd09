package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/msomdec/design-gallery/internal/designform"
	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/service"
)

// DesignHandler serves the design JSON API.
type DesignHandler struct {
	designs *service.DesignService
}

// NewDesignHandler creates a new DesignHandler.
func NewDesignHandler(designs *service.DesignService) *DesignHandler {
	return &DesignHandler{designs: designs}
}

// writeDesignError maps service errors onto API responses.
func writeDesignError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Design not found.")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "You may not modify this design.")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
	}
}

func designID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// HandleList returns a page of designs.
// GET /api/designs?limit=20&offset=0
// Response: {"designs": [...]}
func (h *DesignHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	designs, err := h.designs.List(r.Context(), limit, offset)
	if err != nil {
		writeDesignError(w, "list designs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"designs": toDesignDTOs(designs)})
}

// HandleGet returns one design.
// GET /api/designs/{id}
// Response: {"design": {...}}
func (h *DesignHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := designID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid design id.")
		return
	}

	d, err := h.designs.GetDesign(r.Context(), id)
	if err != nil {
		writeDesignError(w, "get design", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"design": toDesignDTO(d)})
}

// HandleCreate creates a design without photos.
// POST /api/designs
// Request:  {"title":"...","description":"...","location":"...","style":"...","areaSqm":120}
// Response: {"design": {...}}
func (h *DesignHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Location    *string  `json:"location"`
		Style       *string  `json:"style"`
		AreaSqm     *float64 `json:"areaSqm"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	d, err := h.designs.Create(r.Context(), UserFromContext(r.Context()), domain.DesignFields{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Style:       req.Style,
		AreaSqm:     req.AreaSqm,
	})
	if err != nil {
		writeDesignError(w, "create design", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"design": toDesignDTO(d)})
}

// HandleUpdate applies a multipart update of scalar fields and photos.
// PUT /api/designs/{id}
// Response: {"design": {...}}
func (h *DesignHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := designID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid design id.")
		return
	}

	if _, err := h.designs.Authorize(r.Context(), UserFromContext(r.Context()), id); err != nil {
		writeDesignError(w, "authorize design update", err)
		return
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		writeError(w, http.StatusUnsupportedMediaType, "Expected a multipart/form-data body.")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(designform.MaxMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or oversized multipart body.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	update, err := designform.Decode(r.MultipartForm)
	if err != nil {
		writeDesignError(w, "decode design update", err)
		return
	}

	d, err := h.designs.UpdateDesign(r.Context(), id, update)
	if err != nil {
		writeDesignError(w, "update design", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"design": toDesignDTO(d)})
}

// HandleDelete removes a design and its photos.
// DELETE /api/designs/{id}
func (h *DesignHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := designID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid design id.")
		return
	}

	if err := h.designs.Delete(r.Context(), UserFromContext(r.Context()), id); err != nil {
		writeDesignError(w, "delete design", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

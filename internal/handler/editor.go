package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/msomdec/design-gallery/internal/designform"
	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/photoedit"
	"github.com/msomdec/design-gallery/internal/service"
	"github.com/msomdec/design-gallery/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// uploadField is the multipart field the editor page posts files under.
const uploadField = "photos"

// EditorHandler serves the photo editor pages, actions and previews.
type EditorHandler struct {
	editor *service.EditorService
}

// NewEditorHandler creates a new EditorHandler.
func NewEditorHandler(editor *service.EditorService) *EditorHandler {
	return &EditorHandler{editor: editor}
}

// HandleOpen starts an edit session and redirects to it.
// POST /designs/{id}/editor
func (h *EditorHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	id, ok := designID(r)
	if !ok {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	session, err := h.editor.Open(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Not Found", http.StatusNotFound)
		case errors.Is(err, domain.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			slog.Error("open editor session", "design", id, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, "/editor/"+session.ID(), http.StatusSeeOther)
}

// session resolves the {sid} path value for the current user, writing a 404
// when it does not resolve.
func (h *EditorHandler) session(w http.ResponseWriter, r *http.Request) (*photoedit.Session, bool) {
	s, err := h.editor.Get(r.PathValue("sid"), UserFromContext(r.Context()))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

// HandlePage renders the editor document.
// GET /editor/{sid}
func (h *EditorHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	d, err := h.editor.Design(r.Context(), s)
	if err != nil {
		slog.Error("load design for editor", "session", s.ID(), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	page := view.PageData{
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		Style:       d.Style,
		AreaSqm:     strconv.FormatFloat(d.AreaSqm, 'f', -1, 64),
		DesignURL:   "/api/designs/" + strconv.FormatInt(d.ID, 10),
		Editor:      view.NewEditor(s.View(), "", ""),
	}
	view.EditorPage(page).Render(r.Context(), w)
}

// HandlePanel re-renders #photo-editor, showing the notice query parameter.
// GET /editor/{sid}/panel
func (h *EditorHandler) HandlePanel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	patchEditor(w, r, view.NewEditor(s.View(), r.URL.Query().Get("notice"), ""))
}

// HandleAction runs a state-changing action on one photo and patches the
// editor. Actions the photo does not currently offer are reported in the
// editor rather than as an HTTP error.
// POST /editor/{sid}/{category}/{index}/{cancel-replace|delete|undo-delete}
// POST /editor/{sid}/{category}/appended/{localID}/remove
func (h *EditorHandler) HandleAction(action photoedit.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.session(w, r)
		if !ok {
			return
		}
		c, err := domain.ParsePhotoCategory(r.PathValue("category"))
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		if action == photoedit.ActionRemove {
			err = s.RemoveAppended(c, r.PathValue("localID"))
		} else {
			i, convErr := strconv.Atoi(r.PathValue("index"))
			if convErr != nil {
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
			switch action {
			case photoedit.ActionCancelReplace:
				err = s.CancelReplace(c, i)
			case photoedit.ActionDelete:
				err = s.MarkDeleted(c, i)
			case photoedit.ActionUndoDelete:
				err = s.UndoDeleted(c, i)
			}
		}

		if editorFailed(w, s, err) {
			return
		}
		msg := ""
		if err != nil {
			msg = actionMessage(err)
		}
		patchEditor(w, r, view.NewEditor(s.View(), "", msg))
	}
}

// HandleUpload validates files chosen for replacement or appending and
// responds with a JSON summary. The page refreshes the editor afterwards.
// POST /editor/{sid}/{category}/{index}/replace
// POST /editor/{sid}/{category}/append
func (h *EditorHandler) HandleUpload(mode photoedit.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.session(w, r)
		if !ok {
			return
		}
		c, err := domain.ParsePhotoCategory(r.PathValue("category"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
		if err := r.ParseMultipartForm(designform.MaxMemory); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid or oversized upload.")
			return
		}
		defer r.MultipartForm.RemoveAll()

		files, err := designform.Files(r.MultipartForm, uploadField)
		if err != nil {
			slog.Error("read uploaded photos", "error", err)
			writeError(w, http.StatusBadRequest, "Could not read uploaded files.")
			return
		}

		var v photoedit.Validation
		if mode == photoedit.ModeReplace {
			i, convErr := strconv.Atoi(r.PathValue("index"))
			if convErr != nil {
				writeError(w, http.StatusBadRequest, "Invalid photo index.")
				return
			}
			v, err = s.ChooseReplacement(c, i, files)
		} else {
			v, err = s.ChooseAppends(c, files)
		}
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, photoedit.ErrSaveInProgress) || errors.Is(err, photoedit.ErrActionUnavailable) {
				status = http.StatusConflict
			} else if errors.Is(err, photoedit.ErrSessionClosed) {
				status = http.StatusGone
			}
			writeError(w, status, actionMessage(err))
			return
		}

		writeJSON(w, http.StatusOK, toValidationDTO(v))
	}
}

// HandleSave persists the session through the design backend. The editor is
// patched into its saving state before the update is sent.
// POST /editor/{sid}/save
func (h *EditorHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var signals struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Location    *string `json:"location"`
		Style       *string `json:"style"`
		AreaSqm     *string `json:"areaSqm"`
	}
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	fields := domain.DesignFields{
		Title:       signals.Title,
		Description: signals.Description,
		Location:    signals.Location,
		Style:       signals.Style,
	}
	if signals.AreaSqm != nil && strings.TrimSpace(*signals.AreaSqm) != "" {
		area, err := strconv.ParseFloat(strings.TrimSpace(*signals.AreaSqm), 64)
		if err != nil {
			patchEditor(w, r, view.NewEditor(s.View(), "", "Area must be a number."))
			return
		}
		fields.AreaSqm = &area
	}

	sse := datastar.NewSSE(w, r)
	saving := s.View()
	saving.Saving = true
	sse.PatchElementTempl(view.PhotoEditor(view.NewEditor(saving, "", "")),
		datastar.WithSelectorID(view.EditorID), datastar.WithModeInner())

	_, err := h.editor.Save(r.Context(), s.ID(), UserFromContext(r.Context()), fields)
	notice, msg := "Changes saved.", ""
	if err != nil {
		notice, msg = "", saveMessage(err)
	}
	sse.PatchElementTempl(view.PhotoEditor(view.NewEditor(s.View(), notice, msg)),
		datastar.WithSelectorID(view.EditorID), datastar.WithModeInner())
}

// HandleClose discards the session and navigates back to the design.
// POST /editor/{sid}/close
func (h *EditorHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.editor.Close(s.ID(), UserFromContext(r.Context())); err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.Redirect("/api/designs/" + strconv.FormatInt(s.DesignID(), 10))
}

// HandlePreview serves the bytes behind a live preview handle.
// GET /editor/{sid}/previews/{id}
func (h *EditorHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	f, ok := s.Preview(r.PathValue("id"))
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.Write(f.Data)
}

func patchEditor(w http.ResponseWriter, r *http.Request, e view.Editor) {
	sse := datastar.NewSSE(w, r)
	sse.PatchElementTempl(view.PhotoEditor(e),
		datastar.WithSelectorID(view.EditorID), datastar.WithModeInner())
}

// editorFailed writes an HTTP error for failures that cannot be shown in the
// editor and reports whether it did.
func editorFailed(w http.ResponseWriter, s *photoedit.Session, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, photoedit.ErrSessionClosed):
		http.Error(w, "Gone", http.StatusGone)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	case errors.Is(err, photoedit.ErrActionUnavailable), errors.Is(err, photoedit.ErrSaveInProgress):
		return false
	default:
		slog.Error("editor action", "session", s.ID(), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return true
}

func actionMessage(err error) string {
	switch {
	case errors.Is(err, photoedit.ErrSaveInProgress):
		return "Please wait for the current save to finish."
	case errors.Is(err, photoedit.ErrActionUnavailable):
		return "That action is no longer available for this photo."
	case errors.Is(err, photoedit.ErrSessionClosed):
		return "This edit session has ended."
	}
	return err.Error()
}

func saveMessage(err error) string {
	switch {
	case errors.Is(err, photoedit.ErrSaveInProgress):
		return actionMessage(err)
	case errors.Is(err, domain.ErrInvalidInput):
		return "The design could not be saved (" + strings.TrimPrefix(err.Error(), photoedit.ErrRemoteFailure.Error()+": ") +
			"). Your changes are kept."
	}
	return "Saving failed. Your changes are kept; please try again."
}

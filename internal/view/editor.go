// Package view renders the HTML of the photo editor.
package view

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"github.com/msomdec/design-gallery/internal/domain"
	"github.com/msomdec/design-gallery/internal/photoedit"
)

// EditorID is the element patched after every editor action.
const EditorID = "photo-editor"

// Button is an action rendered as a datastar POST.
type Button struct {
	Label string
	URL   string
	Class string
}

// Tile is one photo in a category grid.
type Tile struct {
	Src       string
	Caption   string
	State     string
	Buttons   []Button
	UploadURL string // Set when the photo may be replaced
}

// Section is one category of the editor.
type Section struct {
	Category  string
	Label     string
	Tiles     []Tile
	Pending   []Tile
	AppendURL string
}

// Editor is the render model of #photo-editor.
type Editor struct {
	SessionID string
	Sections  []Section
	Saving    bool
	Pending   bool
	Notice    string
	Error     string
	SaveURL   string
	CloseURL  string
	PanelURL  string
}

// PageData is the full editor page.
type PageData struct {
	Title       string
	Description string
	Location    string
	Style       string
	AreaSqm     string
	DesignURL   string
	Editor      Editor
}

// Signals is the initial datastar signal object of the page's form fields.
func (p PageData) Signals() string {
	data, _ := json.Marshal(map[string]string{
		"title":       p.Title,
		"description": p.Description,
		"location":    p.Location,
		"style":       p.Style,
		"areaSqm":     p.AreaSqm,
	})
	return string(data)
}

// NewEditor converts a session projection into the render model. notice and
// errMsg are shown above the save bar when non-empty.
func NewEditor(v photoedit.EditorView, notice, errMsg string) Editor {
	base := "/editor/" + v.SessionID
	e := Editor{
		SessionID: v.SessionID,
		Saving:    v.Saving,
		Pending:   v.Pending,
		Notice:    notice,
		Error:     errMsg,
		SaveURL:   base + "/save",
		CloseURL:  base + "/close",
		PanelURL:  base + "/panel",
	}

	for _, cv := range v.Categories {
		cat := string(cv.Category)
		s := Section{
			Category:  cat,
			Label:     cv.Category.Label(),
			AppendURL: path.Join(base, cat, "append"),
		}
		for _, ev := range cv.Existing {
			s.Tiles = append(s.Tiles, existingTile(v.SessionID, cv.Category, ev, v.Saving))
		}
		for _, av := range cv.Appended {
			t := Tile{
				Src:     PreviewURL(v.SessionID, av.Preview),
				Caption: av.Name,
				State:   "new",
			}
			if !v.Saving && av.Allows(photoedit.ActionRemove) {
				t.Buttons = append(t.Buttons, Button{
					Label: "Remove",
					URL:   path.Join(base, cat, "appended", av.LocalID, "remove"),
					Class: "is-danger",
				})
			}
			s.Pending = append(s.Pending, t)
		}
		e.Sections = append(e.Sections, s)
	}
	return e
}

func existingTile(sessionID string, c domain.PhotoCategory, ev photoedit.ExistingView, saving bool) Tile {
	t := Tile{
		Src:     ev.URL,
		Caption: fmt.Sprintf("Photo %d", ev.Index+1),
		State:   string(ev.State),
	}
	if ev.State == photoedit.StateReplacing {
		t.Src = PreviewURL(sessionID, ev.Preview)
		t.Caption += " (replacement)"
	}
	if t.Src == "" {
		t.Caption += " (no image)"
	}
	if saving {
		return t
	}

	at := path.Join("/editor", sessionID, string(c), strconv.Itoa(ev.Index))
	if ev.Allows(photoedit.ActionReplace) {
		t.UploadURL = at + "/replace"
	}
	if ev.Allows(photoedit.ActionCancelReplace) {
		t.Buttons = append(t.Buttons, Button{Label: "Cancel replace", URL: at + "/cancel-replace"})
	}
	if ev.Allows(photoedit.ActionDelete) {
		t.Buttons = append(t.Buttons, Button{Label: "Delete", URL: at + "/delete", Class: "is-danger"})
	}
	if ev.Allows(photoedit.ActionUndoDelete) {
		t.Buttons = append(t.Buttons, Button{Label: "Undo delete", URL: at + "/undo-delete"})
	}
	return t
}

// PreviewURL is where the server serves a live preview handle.
func PreviewURL(sessionID string, h photoedit.Handle) string {
	return "/editor/" + sessionID + "/previews/" + h.ID()
}

func postAction(url string) string {
	return "@post('" + url + "')"
}

// refreshAction reloads the panel, passing along the upload outcome the page
// script stored on the button.
func refreshAction(panelURL string) string {
	return "@get('" + panelURL + "?notice=' + encodeURIComponent(el.dataset.notice || ''))"
}

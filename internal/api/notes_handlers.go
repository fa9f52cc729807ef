package api

import (
	"net/http"
	"strings"

	"github.com/quillnote/quillnote/internal/auth"
	"github.com/quillnote/quillnote/internal/errs"
	"github.com/quillnote/quillnote/internal/notes"
	"github.com/quillnote/quillnote/internal/notify"
)

// NotesHandler serves the note routes. All routes run behind RequireAuth and
// operate only on the caller's own notes.
type NotesHandler struct {
	notes     *notes.Service
	autosaver *notes.Autosaver
}

// NewNotesHandler creates a notes handler.
func NewNotesHandler(noteSvc *notes.Service, autosaver *notes.Autosaver) *NotesHandler {
	return &NotesHandler{notes: noteSvc, autosaver: autosaver}
}

type saveNoteRequest struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// List handles GET /api/notes: the caller's notes, newest first.
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	result, err := h.notes.LoadNotes(r.Context(), userID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"notes": result})
}

// Save handles POST /api/notes: explicit save. A blank title is normalized to
// the default here, at the editor boundary, before it reaches the store.
func (h *NotesHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	var req saveNoteRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	note := notes.Note{
		ID:      req.ID,
		Title:   normalizeTitle(req.Title),
		Content: req.Content,
		UserID:  userID,
	}
	if err := h.requireOwnership(r, note.ID); err != nil {
		WriteError(w, err)
		return
	}

	saved, err := h.autosaver.Flush(r.Context(), note)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"note":  saved,
		"toast": notify.Success("Saved", "Note saved successfully."),
	})
}

// SaveByID handles POST /api/notes/{id}/save: explicit save of a known note,
// flushing any pending autosave first.
func (h *NotesHandler) SaveByID(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	noteID := r.PathValue("id")

	var req saveNoteRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.requireOwnership(r, noteID); err != nil {
		WriteError(w, err)
		return
	}

	saved, err := h.autosaver.Flush(r.Context(), notes.Note{
		ID:      noteID,
		Title:   normalizeTitle(req.Title),
		Content: req.Content,
		UserID:  userID,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"note":  saved,
		"toast": notify.Success("Saved", "Note saved successfully."),
	})
}

// Draft handles PATCH /api/notes/{id}/draft: registers a draft with the
// debouncer instead of persisting right away.
func (h *NotesHandler) Draft(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	noteID := r.PathValue("id")

	var req saveNoteRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.requireOwnership(r, noteID); err != nil {
		WriteError(w, err)
		return
	}

	h.autosaver.Touch(notes.Note{
		ID:      noteID,
		Title:   normalizeTitle(req.Title),
		Content: req.Content,
		UserID:  userID,
	})
	WriteJSON(w, http.StatusAccepted, map[string]any{"pending": true})
}

// Get handles GET /api/notes/{id}.
func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("id")
	if err := h.requireOwnership(r, noteID); err != nil {
		WriteError(w, err)
		return
	}

	note, err := h.notes.Get(r.Context(), noteID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"note": note})
}

// HTML handles GET /api/notes/{id}/html: the note content rendered to
// sanitized HTML.
func (h *NotesHandler) HTML(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("id")
	if err := h.requireOwnership(r, noteID); err != nil {
		WriteError(w, err)
		return
	}

	note, err := h.notes.Get(r.Context(), noteID)
	if err != nil {
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(notes.RenderHTML(note.Content))
}

// Delete handles DELETE /api/notes/{id}. Deleting a note that is already gone
// still succeeds.
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("id")

	// Ownership check tolerates an already-deleted note so the operation
	// stays idempotent.
	note, err := h.notes.Get(r.Context(), noteID)
	if err != nil && errs.CodeOf(err) != errs.NotFound {
		WriteError(w, err)
		return
	}
	if note != nil && note.UserID != auth.GetUserID(r.Context()) {
		WriteError(w, errs.New(errs.NotFound, "note not found"))
		return
	}

	h.autosaver.Cancel(noteID)
	if err := h.notes.DeleteNote(r.Context(), noteID); err != nil {
		WriteError(w, err)
		return
	}
	WriteSuccess(w, notify.Success("Deleted", "Note deleted."))
}

// requireOwnership checks that an existing note with this id belongs to the
// caller. A note that does not exist yet passes: saves with provisional
// client ids must go through. Foreign notes are reported as not found, never
// as forbidden, to avoid leaking their existence.
func (h *NotesHandler) requireOwnership(r *http.Request, noteID string) error {
	if noteID == "" {
		return nil
	}
	note, err := h.notes.Get(r.Context(), noteID)
	if err != nil {
		if errs.CodeOf(err) == errs.NotFound {
			return nil
		}
		return err
	}
	if note.UserID != auth.GetUserID(r.Context()) {
		return errs.New(errs.NotFound, "note not found")
	}
	return nil
}

func normalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return notes.DefaultTitle
	}
	return title
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/stickyboard/internal/auth"
	"github.com/sakif/stickyboard/internal/service"
)

// NoteHandler serves the /api/notes endpoints.
//
// Handlers stay thin: parse the request, call the service, write the
// response. Validation and ownership rules live in service.NoteService.
type NoteHandler struct {
	notes  *service.NoteService
	logger *slog.Logger
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(notes *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger}
}

// noteRequest is the body of POST and PUT. Each field is the serialized
// (JSON-in-a-string) form; omitted fields are nil.
type noteRequest struct {
	Body     *string `json:"body"`
	Colors   *string `json:"colors"`
	Position *string `json:"position"`
}

func (req noteRequest) input() service.NoteInput {
	return service.NoteInput{Body: req.Body, Colors: req.Colors, Position: req.Position}
}

// HandleList returns the caller's notes in creation order.
//
// HTTP: GET /api/notes[?all=true][&userId=...]
// all and userId are admin-only.
func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())
	q := r.URL.Query()

	notes, err := h.notes.List(r.Context(), caller, service.NoteQuery{
		All:    q.Get("all") == "true",
		UserID: q.Get("userId"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HandleGet returns one note.
//
// HTTP: GET /api/notes/{id}
func (h *NoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())

	note, err := h.notes.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleCreate creates a note. The body is optional; an empty request
// creates a note with default body, colors and position.
//
// HTTP: POST /api/notes
// REQUEST BODY: {"body": "\"text\"", "colors": "{...}", "position": "{\"x\":1,\"y\":2}"}
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())

	var req noteRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, err)
		return
	}

	note, err := h.notes.Create(r.Context(), caller, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /api/notes/{id}
func (h *NoteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())

	var req noteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	note, err := h.notes.Update(r.Context(), caller, chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleDelete removes a note.
//
// HTTP: DELETE /api/notes/{id} → 204 No Content
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())

	if err := h.notes.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package web

import (
	"net/http"

	"github.com/hpungsan/tracky/internal/calendar"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/ops"
)

// APISignup handles POST /api/signup.
func (h *Handlers) APISignup(w http.ResponseWriter, r *http.Request) {
	var in ops.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := ops.Signup(r.Context(), h.db, in)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// APILogin handles POST /api/login.
func (h *Handlers) APILogin(w http.ResponseWriter, r *http.Request) {
	var in ops.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := ops.Login(r.Context(), h.db, in)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.startSession(w, r, out)
	renderJSON(w, http.StatusOK, out)
}

// APILogout handles POST /api/logout.
func (h *Handlers) APILogout(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// APIListNotebooks handles GET /api/notebooks.
func (h *Handlers) APIListNotebooks(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ListNotebooks(r.Context(), h.db, sessionFrom(r).UserID)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// APICreateNotebook handles POST /api/notebooks.
func (h *Handlers) APICreateNotebook(w http.ResponseWriter, r *http.Request) {
	var in ops.CreateNotebookInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	in.UserID = sessionFrom(r).UserID
	out, err := ops.CreateNotebook(r.Context(), h.db, in)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// APIDeleteNotebook handles DELETE /api/notebooks/{id}.
func (h *Handlers) APIDeleteNotebook(w http.ResponseWriter, r *http.Request) {
	out, err := ops.DeleteNotebook(r.Context(), h.db, sessionFrom(r).UserID, r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// APIListNotes handles GET /api/notebooks/{id}/notes.
// Optional query parameters: start, end (RFC 3339, inclusive), limit.
func (h *Handlers) APIListNotes(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r, "start")
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := ops.ListNotes(r.Context(), h.db, ops.ListNotesInput{
		UserID:     sessionFrom(r).UserID,
		NotebookID: r.PathValue("id"),
		Start:      start,
		End:        end,
		Limit:      parseIntParam(r, "limit", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// APICreateNote handles POST /api/notebooks/{id}/notes.
func (h *Handlers) APICreateNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := ops.CreateNote(r.Context(), h.db, h.cfg, ops.CreateNoteInput{
		UserID:     sessionFrom(r).UserID,
		NotebookID: r.PathValue("id"),
		Content:    body.Content,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// APIUpdateNote handles PUT /api/notes/{id}.
func (h *Handlers) APIUpdateNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := ops.UpdateNote(r.Context(), h.db, h.cfg, ops.UpdateNoteInput{
		UserID:  sessionFrom(r).UserID,
		ID:      r.PathValue("id"),
		Content: body.Content,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// APIDeleteNote handles DELETE /api/notes/{id}.
func (h *Handlers) APIDeleteNote(w http.ResponseWriter, r *http.Request) {
	out, err := ops.DeleteNote(r.Context(), h.db, sessionFrom(r).UserID, r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// APITimeline handles GET /api/notebooks/{id}/timeline.
// The caller's expansion state decides which days are open.
func (h *Handlers) APITimeline(w http.ResponseWriter, r *http.Request) {
	loc, err := h.location(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	s := sessionFrom(r)
	tl, err := ops.Timeline(r.Context(), h.db, ops.TimelineInput{
		UserID:     s.UserID,
		NotebookID: r.PathValue("id"),
		Now:        h.now(),
		Location:   loc,
		State:      s.Expansion,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, tl)
}

type toggleRequest struct {
	Open *bool `json:"open"`
}

type toggleResponse struct {
	Day  calendar.DayKey `json:"day"`
	Open bool            `json:"open"`
}

// APIToggleDay handles POST /api/days/{day}/expanded.
// The day must parse as YYYY-MM-DD; whether it has notes does not matter.
func (h *Handlers) APIToggleDay(w http.ResponseWriter, r *http.Request) {
	d, err := calendar.ParseDayKey(r.PathValue("day"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("day must be YYYY-MM-DD"))
		return
	}
	var body toggleRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if body.Open == nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("open is required"))
		return
	}

	sessionFrom(r).Expansion.OnDayToggled(d.Key(), *body.Open)
	renderJSON(w, http.StatusOK, toggleResponse{Day: d.Key(), Open: *body.Open})
}

// APIExpandedDays handles GET /api/days/expanded.
func (h *Handlers) APIExpandedDays(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{
		"days": sessionFrom(r).Expansion.Keys(),
	})
}

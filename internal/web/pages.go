package web

import (
	"net/http"

	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/ops"
)

// HandleHome handles GET / by sending the user to their notebooks or to login.
func (h *Handlers) HandleHome(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r) == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/notebooks", http.StatusFound)
}

// HandleLoginPage handles GET /login.
func (h *Handlers) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r) != nil {
		http.Redirect(w, r, "/notebooks", http.StatusFound)
		return
	}
	h.renderer.renderPage(w, http.StatusOK, "login", LoginPageData{
		PageData: h.renderer.page("Log in", "", ""),
	})
}

// HandleLogin handles POST /login.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.accountForm(w, r, func(username, password string) (*ops.AccountOutput, error) {
		return ops.Login(r.Context(), h.db, ops.LoginInput{Username: username, Password: password})
	})
}

// HandleSignup handles POST /signup. A new account is logged in right away.
func (h *Handlers) HandleSignup(w http.ResponseWriter, r *http.Request) {
	h.accountForm(w, r, func(username, password string) (*ops.AccountOutput, error) {
		return ops.Signup(r.Context(), h.db, ops.SignupInput{Username: username, Password: password})
	})
}

func (h *Handlers) accountForm(w http.ResponseWriter, r *http.Request, submit func(username, password string) (*ops.AccountOutput, error)) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form"))
		return
	}
	username := r.PostFormValue("username")

	acct, err := submit(username, r.PostFormValue("password"))
	if err != nil {
		tErr := errors.As(err)
		if tErr.Status >= 500 {
			h.renderer.renderError(w, r, err)
			return
		}
		h.renderer.renderPage(w, tErr.Status, "login", LoginPageData{
			PageData: h.renderer.page("Log in", "", ""),
			Error:    tErr.Message,
			Username: username,
		})
		return
	}

	h.startSession(w, r, acct)
	http.Redirect(w, r, "/notebooks/"+acct.NotebookID, http.StatusSeeOther)
}

// HandleLogout handles POST /logout.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleNotebooks handles GET /notebooks.
func (h *Handlers) HandleNotebooks(w http.ResponseWriter, r *http.Request) {
	h.renderNotebooks(w, r, http.StatusOK, "")
}

func (h *Handlers) renderNotebooks(w http.ResponseWriter, r *http.Request, status int, formErr string) {
	s := sessionFrom(r)
	out, err := ops.ListNotebooks(r.Context(), h.db, s.UserID)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, status, "notebooks", NotebooksPageData{
		PageData: h.renderer.page("Notebooks", "notebooks", s.Username),
		Items:    out.Items,
		Error:    formErr,
	})
}

// HandleCreateNotebook handles POST /notebooks.
func (h *Handlers) HandleCreateNotebook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form"))
		return
	}
	out, err := ops.CreateNotebook(r.Context(), h.db, ops.CreateNotebookInput{
		UserID: sessionFrom(r).UserID,
		Name:   r.PostFormValue("name"),
	})
	if err != nil {
		if tErr := errors.As(err); tErr.Status < 500 {
			h.renderNotebooks(w, r, tErr.Status, tErr.Message)
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/notebooks/"+out.ID, http.StatusSeeOther)
}

// HandleDeleteNotebook handles POST /notebooks/{id}/delete.
func (h *Handlers) HandleDeleteNotebook(w http.ResponseWriter, r *http.Request) {
	if _, err := ops.DeleteNotebook(r.Context(), h.db, sessionFrom(r).UserID, r.PathValue("id")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/notebooks", http.StatusSeeOther)
}

// HandleNotebook handles GET /notebooks/{id}: the Today bucket and the
// collapsible year/month/week/day tree.
func (h *Handlers) HandleNotebook(w http.ResponseWriter, r *http.Request) {
	h.renderNotebook(w, r, http.StatusOK, "")
}

func (h *Handlers) renderNotebook(w http.ResponseWriter, r *http.Request, status int, formErr string) {
	s := sessionFrom(r)
	loc, err := h.location(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	notebooks, err := ops.ListNotebooks(r.Context(), h.db, s.UserID)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
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

	data := NotebookPageData{
		PageData:  h.renderer.page("", "notebooks", s.Username),
		Notebooks: notebooks.Items,
		Timeline:  tl,
		Location:  loc,
		Error:     formErr,
	}
	for _, nb := range notebooks.Items {
		if nb.ID == r.PathValue("id") {
			data.Notebook = nb
			data.Title = nb.Name
		}
	}
	h.renderer.renderPage(w, status, "notebook", data)
}

// HandleCreateNote handles POST /notebooks/{id}/notes.
func (h *Handlers) HandleCreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form"))
		return
	}
	id := r.PathValue("id")
	_, err := ops.CreateNote(r.Context(), h.db, h.cfg, ops.CreateNoteInput{
		UserID:     sessionFrom(r).UserID,
		NotebookID: id,
		Content:    r.PostFormValue("content"),
	})
	if err != nil {
		if tErr := errors.As(err); tErr.Code == errors.ErrInvalidRequest || tErr.Code == errors.ErrNoteTooLarge {
			h.renderNotebook(w, r, tErr.Status, tErr.Message)
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/notebooks/"+id, http.StatusSeeOther)
}

// HandleDeleteNote handles POST /notes/{id}/delete.
// The form carries the notebook to return to.
func (h *Handlers) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form"))
		return
	}
	if _, err := ops.DeleteNote(r.Context(), h.db, sessionFrom(r).UserID, r.PathValue("id")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	back := "/notebooks"
	if nb := r.PostFormValue("notebook_id"); nb != "" {
		back = "/notebooks/" + nb
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

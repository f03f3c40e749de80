package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/note"
	"github.com/hpungsan/tracky/internal/timeline"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title    string
	Version  string
	Nav      string // active nav item: "notebooks"
	Username string // empty when logged out
}

// LoginPageData is the template data for the login/signup page.
type LoginPageData struct {
	PageData
	Error    string
	Username string
}

// NotebooksPageData is the template data for the notebook list.
type NotebooksPageData struct {
	PageData
	Items []note.Notebook
	Error string
}

// NotebookPageData is the template data for one notebook's timeline.
type NotebookPageData struct {
	PageData
	Notebook  note.Notebook
	Notebooks []note.Notebook
	Timeline  *timeline.Timeline
	Location  *time.Location
	Error     string
}

// Clock formats a note's creation time as wall-clock time in the viewer's zone.
func (d NotebookPageData) Clock(t time.Time) string {
	return t.In(d.Location).Format("15:04")
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	markdown  goldmark.Markdown
	logger    *slog.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{
		version: version,
		// Raw HTML in notes is dropped (goldmark's default); only Markdown renders.
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:   logger,
	}

	funcMap := template.FuncMap{
		"markdown":  r.renderMarkdown,
		"dayLabel":  dayLabel,
		"weekLabel": weekLabel,
		"plural":    plural,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"login":     "login.html",
		"notebooks": "notebooks.html",
		"notebook":  "notebook.html",
		"error":     "error.html",
	}

	r.templates = make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		r.templates[name] = t
	}
	return r
}

// page fills the shared PageData fields.
func (r *Renderer) page(title, nav, username string) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav, Username: username}
}

// renderPage renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPage(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution failed", "template", name, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
// API paths and JSON clients get the error envelope; browsers get a page.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	tErr := errors.As(err)
	if tErr.Status >= 500 {
		r.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "err", err)
	}

	// Internal details stay in the log.
	message := tErr.Message
	if tErr.Code == errors.ErrInternal {
		message = "internal error"
	}

	if wantsJSON(req) {
		renderJSON(w, tErr.Status, map[string]any{
			"error": map[string]any{
				"code":    string(tErr.Code),
				"message": message,
				"status":  tErr.Status,
			},
		})
		return
	}

	r.renderPage(w, tErr.Status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", tErr.Status), "", ""),
		StatusCode: tErr.Status,
		Message:    message,
	})
}

func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts note content to HTML.
func (r *Renderer) renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// dayLabel renders a day node summary, e.g. "Saturday, Feb 10".
func dayLabel(d *timeline.DayNode) string {
	return d.Date.In(time.UTC).Format("Monday, Jan 2")
}

// weekLabel renders a week node summary, e.g. "Week of Jan 29 (W05)".
func weekLabel(w *timeline.WeekNode) string {
	return fmt.Sprintf("Week of %s (W%02d)", w.Monday.In(time.UTC).Format("Jan 2"), w.ISOWeek)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

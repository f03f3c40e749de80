package web

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hpungsan/tracky/internal/auth"
	"github.com/hpungsan/tracky/internal/config"
	"github.com/hpungsan/tracky/internal/errors"
	"github.com/hpungsan/tracky/internal/ops"
)

// tzCookie carries the browser's IANA zone, set by static/app.js.
const tzCookie = "tracky_tz"

// maxBodyBytes bounds JSON and form request bodies.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	sessions *auth.Sessions
	renderer *Renderer
	logger   *slog.Logger
	now      func() time.Time
}

// requireUser rejects API requests without a live session.
func (h *Handlers) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionFrom(r) == nil {
			h.renderer.renderError(w, r, errors.NewUnauthorized("login required"))
			return
		}
		next(w, r)
	}
}

// requirePage redirects browsers without a live session to the login page.
func (h *Handlers) requirePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionFrom(r) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// startSession creates a session and sets its cookie.
func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request, acct *ops.AccountOutput) *auth.Session {
	h.sessions.Prune()
	s := h.sessions.Create(acct.UserID, acct.Username)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("login", "user", acct.UserID, "username", acct.Username)
	return s
}

// endSession drops the caller's session and clears the cookie.
func (h *Handlers) endSession(w http.ResponseWriter, r *http.Request) {
	if s := sessionFrom(r); s != nil {
		h.sessions.Delete(s.Token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// location picks the caller's time zone: the tz query parameter, then the
// tracky_tz cookie, then the configured zone.
func (h *Handlers) location(r *http.Request) (*time.Location, error) {
	if tz := r.URL.Query().Get("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, errors.NewInvalidRequest("unknown time zone: " + tz)
		}
		return loc, nil
	}
	if c, err := r.Cookie(tzCookie); err == nil && c.Value != "" {
		if loc, err := time.LoadLocation(c.Value); err == nil {
			return loc, nil
		}
	}
	loc, err := h.cfg.Location()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return loc, nil
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

// parseTimeParam reads an optional RFC 3339 query parameter.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(name + " must be an RFC 3339 timestamp")
	}
	return t, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

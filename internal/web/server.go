package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/tracky/internal/auth"
	"github.com/hpungsan/tracky/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the Tracky web UI and API.
func NewServer(db *sql.DB, cfg *config.Config, sessions *auth.Sessions, logger *slog.Logger, version string) *http.Server {
	h := NewHandlers(db, cfg, sessions, logger, version)
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandlers wires the handlers to the embedded templates.
func NewHandlers(db *sql.DB, cfg *config.Config, sessions *auth.Sessions, logger *slog.Logger, version string) *Handlers {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		db:       db,
		cfg:      cfg,
		sessions: sessions,
		renderer: NewRenderer(templateSub, version, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// Routes returns the full handler chain.
func (h *Handlers) Routes() http.Handler {
	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	mux := http.NewServeMux()

	// JSON API
	mux.HandleFunc("POST /api/signup", h.APISignup)
	mux.HandleFunc("POST /api/login", h.APILogin)
	mux.HandleFunc("POST /api/logout", h.APILogout)
	mux.HandleFunc("GET /api/notebooks", h.requireUser(h.APIListNotebooks))
	mux.HandleFunc("POST /api/notebooks", h.requireUser(h.APICreateNotebook))
	mux.HandleFunc("DELETE /api/notebooks/{id}", h.requireUser(h.APIDeleteNotebook))
	mux.HandleFunc("GET /api/notebooks/{id}/notes", h.requireUser(h.APIListNotes))
	mux.HandleFunc("POST /api/notebooks/{id}/notes", h.requireUser(h.APICreateNote))
	mux.HandleFunc("GET /api/notebooks/{id}/timeline", h.requireUser(h.APITimeline))
	mux.HandleFunc("PUT /api/notes/{id}", h.requireUser(h.APIUpdateNote))
	mux.HandleFunc("DELETE /api/notes/{id}", h.requireUser(h.APIDeleteNote))
	mux.HandleFunc("POST /api/days/{day}/expanded", h.requireUser(h.APIToggleDay))
	mux.HandleFunc("GET /api/days/expanded", h.requireUser(h.APIExpandedDays))

	// HTML pages
	mux.HandleFunc("GET /{$}", h.HandleHome)
	mux.HandleFunc("GET /login", h.HandleLoginPage)
	mux.HandleFunc("POST /login", h.HandleLogin)
	mux.HandleFunc("POST /signup", h.HandleSignup)
	mux.HandleFunc("POST /logout", h.HandleLogout)
	mux.HandleFunc("GET /notebooks", h.requirePage(h.HandleNotebooks))
	mux.HandleFunc("POST /notebooks", h.requirePage(h.HandleCreateNotebook))
	mux.HandleFunc("GET /notebooks/{id}", h.requirePage(h.HandleNotebook))
	mux.HandleFunc("POST /notebooks/{id}/delete", h.requirePage(h.HandleDeleteNotebook))
	mux.HandleFunc("POST /notebooks/{id}/notes", h.requirePage(h.HandleCreateNote))
	mux.HandleFunc("POST /notes/{id}/delete", h.requirePage(h.HandleDeleteNote))

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return h.withSession(h.requestLogger(securityHeaders(mux)))
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

type sessionKey struct{}

// withSession attaches the caller's session, if any, to the request context.
func (h *Handlers) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(auth.CookieName); err == nil && c.Value != "" {
			if s, ok := h.sessions.Lookup(c.Value); ok {
				r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, s))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// sessionFrom returns the session attached by withSession, or nil.
func sessionFrom(r *http.Request) *auth.Session {
	s, _ := r.Context().Value(sessionKey{}).(*auth.Session)
	return s
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger logs one line per request.
func (h *Handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		}
		if s := sessionFrom(r); s != nil {
			attrs = append(attrs, "user", s.UserID)
		}
		h.logger.Info("request", attrs...)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Tracky running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// Package server hosts flowcharts in a browser.
//
// Each page load creates a session holding a live diagram drawn on an
// in-memory scene. The page renders the scene's SVG and forwards pointer
// gestures (click, double click, drag, hover) back to the session, which
// dispatches them into the scene and answers with the redrawn SVG and the
// diagram events the gesture produced.
//
// Routes:
//
//	GET    /                              viewer page for a new session
//	GET    /healthz                       liveness
//	POST   /api/render?format=svg         stateless render through the pipeline
//	POST   /api/sessions                  create a session from a node list
//	GET    /api/sessions/{id}/svg         current drawing
//	GET    /api/sessions/{id}/layout      node and connector geometry (JSON)
//	GET    /api/sessions/{id}/snapshot    node list with current positions
//	POST   /api/sessions/{id}/events      deliver a gesture
//	PUT    /api/sessions/{id}/size        resize the host
//	DELETE /api/sessions/{id}             end the session
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowchart/pkg/observability"
	"github.com/matzehuels/flowchart/pkg/pipeline"
	"github.com/matzehuels/flowchart/pkg/session"
)

//go:embed assets
var assets embed.FS

const (
	// maxBodyBytes bounds uploaded node lists.
	maxBodyBytes = 1 << 20

	// cleanupInterval is how often expired sessions are swept.
	cleanupInterval = time.Minute

	shutdownTimeout = 5 * time.Second
)

// Deps holds the dependencies of the server.
type Deps struct {
	// Runner renders stateless requests and lays out new sessions.
	Runner *pipeline.Runner
	// Store holds viewer sessions. Defaults to an in-memory store.
	Store session.Store
	// Defaults are the pipeline options new sessions and renders start from.
	// If Defaults names an input, GET / shows it.
	Defaults pipeline.Options
	// TTL is the idle lifetime of a session.
	TTL    time.Duration
	Logger *log.Logger
}

// Server serves the interactive viewer.
type Server struct {
	deps Deps
	page *template.Template
}

// New creates a server, filling unset dependencies with defaults.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Runner == nil {
		deps.Runner = pipeline.NewRunner(nil, nil, deps.Logger)
	}
	if deps.Store == nil {
		deps.Store = session.NewMemoryStore()
	}
	if deps.TTL <= 0 {
		deps.TTL = session.DefaultTTL
	}
	return &Server{
		deps: deps,
		page: template.Must(template.ParseFS(assets, "assets/index.html")),
	}
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/", s.handlePage)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.deps.Store.Len()})
	})
	r.Get("/static/viewer.js", s.handleScript)

	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/svg", s.handleSVG)
			r.Get("/layout", s.handleLayout)
			r.Get("/snapshot", s.handleSnapshot)
			r.Post("/events", s.handleEvent)
			r.Put("/size", s.handleResize)
			r.Delete("/", s.handleDeleteSession)
		})
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Expired sessions are swept in the background.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go session.Janitor(ctx, s.deps.Store, cleanupInterval, func(n int) {
		s.deps.Logger.Debug("expired sessions removed", "count", n)
		observability.Server().OnSession(ctx, "expired", s.deps.Store.Len())
	})

	errc := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("serving", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.deps.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// observe logs each request and reports it to the server hooks, keyed by
// the matched route pattern rather than the raw path.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		s.deps.Logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
		observability.Server().OnRequest(r.Context(), r.Method, route, status, dur)
	})
}

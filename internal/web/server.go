// Package web serves the single-page journal application over HTTP.
//
// Every button on the page is a small form that POSTs to an action route.
// Actions update the caller's session state and redirect back to the page,
// which is rendered from that state.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"habitjournal/internal/analysis"
	"habitjournal/internal/journal"
	"habitjournal/internal/logging"
	"habitjournal/internal/session"
	"habitjournal/internal/sheets"
	"habitjournal/internal/tags"

	"github.com/gorilla/mux"
)

// EntryStore is the local journal file.
type EntryStore interface {
	Load() (*journal.Table, error)
	Append(e journal.Entry) (*journal.Table, error)
	Edit(fn func(t *journal.Table)) error
	Clear() error
}

// Syncer pushes the journal to the remote spreadsheet.
type Syncer interface {
	Sync(ctx context.Context) sheets.Result
}

// TagSource supplies the checkbox labels.
type TagSource interface {
	Labels(g tags.Group) []string
}

// Config wraps the knobs that impact runtime behavior.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// SanitizeAnalysis strips unsafe HTML from the rendered analysis.
	SanitizeAnalysis bool
	// DateWindowDays bounds how far back an entry may be dated.
	DateWindowDays int
}

// Deps are the components the handlers drive. Analyzer may be nil when no
// API key is configured.
type Deps struct {
	Store    EntryStore
	Syncer   Syncer
	Tags     TagSource
	Analyzer analysis.Analyzer
	Sessions *session.Store
	Now      func() time.Time
}

// Server exposes the journal page.
type Server struct {
	cfg    Config
	deps   Deps
	router *mux.Router
	page   *pageRenderer
}

// NewServer wires handlers and middleware.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Tags == nil {
		return nil, errors.New("web: store and tags are required")
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewStore(0)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.DateWindowDays < 1 {
		cfg.DateWindowDays = 7
	}

	page, err := newPageRenderer(cfg.SanitizeAnalysis)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, deps: deps, router: mux.NewRouter(), page: page}
	s.registerRoutes()
	return s, nil
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Use(recoverMiddleware, requestLogger)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/", s.handlePage).Methods(http.MethodGet)

	s.router.HandleFunc("/entries", s.handleSubmitEntry).Methods(http.MethodPost)
	s.router.HandleFunc("/tags", s.handleSelectTags).Methods(http.MethodPost)
	s.router.HandleFunc("/editor/toggle", s.handleToggleEditor).Methods(http.MethodPost)
	s.router.HandleFunc("/editor", s.handleSaveEditor).Methods(http.MethodPost)
	s.router.HandleFunc("/analysis", s.handleAnalysis).Methods(http.MethodPost)
	s.router.HandleFunc("/clear", s.handleClear).Methods(http.MethodPost)
	s.router.HandleFunc("/dashboard/load", s.handleLoadDashboard).Methods(http.MethodPost)
	s.router.HandleFunc("/dashboard/filter", s.handleFilter).Methods(http.MethodPost)
}

// Run starts listening for HTTP traffic until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.HTTP("journal listening on %s", s.cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Package dashboard serves read-only HTML pages over the movie index, the
// stored records and the analysis artifacts.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/reelstats/internal/analyzer"
	"github.com/rewired-gh/reelstats/internal/logger"
	"github.com/rewired-gh/reelstats/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures a Server
type Options struct {
	Store      *storage.Store
	ResultsDir string
	PlotsDir   string
	PageSize   int
	Version    string

	MinKeywordMovies int
}

// Server renders the dashboard pages
type Server struct {
	store        *storage.Store
	resultsDir   string
	plotsDir     string
	pageSize     int
	version      string
	analysisOpts analyzer.Options

	templates map[string]*template.Template
	router    http.Handler

	mu        sync.Mutex
	scored    *analyzer.Result
	scoredFor time.Time // index last_updated the cached result was computed for
}

// New parses the embedded templates and builds the router
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("dashboard requires a store")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}

	s := &Server{
		store:        opts.Store,
		resultsDir:   opts.ResultsDir,
		plotsDir:     opts.PlotsDir,
		pageSize:     opts.PageSize,
		version:      opts.Version,
		analysisOpts: analyzer.Options{MinKeywordMovies: opts.MinKeywordMovies},
	}
	if err := s.initTemplates(); err != nil {
		return nil, err
	}
	s.router = router(s)
	return s, nil
}

// Handler returns the HTTP handler serving every page
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Dashboard listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down dashboard")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) initTemplates() error {
	s.templates = make(map[string]*template.Template)

	funcMap := template.FuncMap{
		"comma": func(n int) string { return humanize.Comma(int64(n)) },
		"since": humanize.Time,
		"join":  strings.Join,
		"coef": func(v *float64) string {
			if v == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.3f", *v)
		},
	}

	pages := []string{"popularity.html", "movie.html", "genres.html", "keywords.html", "trends.html", "analysis.html", "about.html"}
	for _, name := range pages {
		ts, err := template.New(name).Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		s.templates[name] = ts
	}

	// Error template is standalone (no layout)
	ts, err := template.New("error.html").ParseFS(templateFS, "templates/error.html")
	if err != nil {
		return fmt.Errorf("failed to parse template error.html: %w", err)
	}
	s.templates["error.html"] = ts
	return nil
}

func (s *Server) newTplData(title, active string) map[string]any {
	return map[string]any{
		"Title":   title,
		"Active":  active,
		"Version": s.version,
	}
}

// render executes the page into a buffer so a failing template never leaves a
// partial page behind its error page.
func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := s.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Error("Template error in %s: %v", name, err)
		s.renderError(w, http.StatusInternalServerError, "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		logger.Debug("Failed to write %s: %v", name, err)
	}
}

// result returns the analysis of the currently stored records. The index is
// reloaded on every call and the analysis is recomputed only when the index
// has been saved since the last computation.
func (s *Server) result() (*analyzer.Result, error) {
	if err := s.store.Load(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.store.LastUpdated()
	if s.scored != nil && updated.Equal(s.scoredFor) {
		return s.scored, nil
	}

	movies, skipped, err := storage.LoadMovies(s.store.MoviesDir())
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logger.Warn("Dashboard skipped %d unreadable records", skipped)
	}
	s.scored = analyzer.Analyze(movies, s.analysisOpts)
	s.scoredFor = updated
	return s.scored, nil
}

// Package gallery serves the rendered charts with their captions.
package gallery

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/KaramelBytes/climalyze/internal/manifest"
	"github.com/KaramelBytes/climalyze/internal/status"
	"github.com/KaramelBytes/climalyze/internal/utils"
)

//go:embed templates/*.html
var templateFiles embed.FS

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Visual is one image entry of the gallery.
type Visual struct {
	Filename    string `json:"filename"`
	Caption     string `json:"caption"`
	Description string `json:"desc"`
	URL         string `json:"url"`
}

// RunInfo summarizes the last pipeline run for the page header.
type RunInfo struct {
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	OK         int       `json:"ok"`
	Skipped    int       `json:"skipped"`
	Empty      int       `json:"empty"`
	Failed     int       `json:"failed"`
	// Correlation is nil when the run could not compute it.
	Correlation *float64      `json:"correlation,omitempty"`
	Datasets    []DatasetInfo `json:"datasets"`
}

// DatasetInfo is the load outcome of one input of the last run.
type DatasetInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Rows   int    `json:"rows"`
}

// CorrelationText formats the coefficient, or returns "" when it is missing.
func (r RunInfo) CorrelationText() string {
	if r.Correlation == nil {
		return ""
	}
	return fmt.Sprintf("%.3f", *r.Correlation)
}

type pageData struct {
	Visuals []Visual
	Run     *RunInfo
}

// Server renders the gallery for one output directory.
type Server struct {
	dir       string
	captions  *Captions
	templates *template.Template
	router    *chi.Mux
}

// New builds a gallery over dir.
func New(dir string, captions *Captions) (*Server, error) {
	if captions == nil {
		captions = NewCaptions(nil)
	}
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{dir: dir, captions: captions, templates: tmpl, router: chi.NewRouter()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/visuals/{filename}", s.handleVisual)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/api/visuals", s.handleList)
		r.Get("/api/run", s.handleRun)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// Visuals lists the images in the output directory sorted by filename.
// A missing directory yields an empty list.
func (s *Server) Visuals() ([]Visual, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Visual{}, nil
		}
		return nil, fmt.Errorf("read visuals dir: %w", err)
	}
	out := []Visual{}
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		caption, desc := s.captions.Lookup(utils.Stem(e.Name()))
		out = append(out, Visual{
			Filename:    e.Name(),
			Caption:     caption,
			Description: desc,
			URL:         "/visuals/" + e.Name(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// LastRun reads the manifest left by the most recent run, if any.
func (s *Server) LastRun() *RunInfo {
	m, err := manifest.Load(s.dir)
	if err != nil {
		return nil
	}
	c := m.Counts()
	datasets := make([]DatasetInfo, 0, len(m.Datasets))
	for _, name := range m.DatasetNames() {
		d := m.Datasets[name]
		datasets = append(datasets, DatasetInfo{Name: name, Status: d.Status, Rows: d.CleanRows})
	}
	return &RunInfo{
		RunID:       m.RunID,
		FinishedAt:  m.FinishedAt,
		OK:          c[status.OK],
		Skipped:     c[status.Skipped],
		Empty:       c[status.Empty],
		Failed:      c[status.Failed],
		Correlation: m.Correlation,
		Datasets:    datasets,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	visuals, err := s.Visuals()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", pageData{Visuals: visuals, Run: s.LastRun()}); err != nil {
		log.Printf("gallery: render index: %v", err)
	}
}

func (s *Server) handleVisual(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}
	if !imageExts[strings.ToLower(filepath.Ext(name))] {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(s.dir, name)
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	visuals, err := s.Visuals()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, visuals)
}

func (s *Server) handleRun(w http.ResponseWriter, _ *http.Request) {
	run := s.LastRun()
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no run recorded in " + s.dir})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("gallery: encode response: %v", err)
	}
}

// ListenAndServe serves the gallery on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("gallery serving %s on http://%s", s.dir, displayAddr(addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Printf("gallery stopped")
	return nil
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

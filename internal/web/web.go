package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"wallcal/internal/config"
	appLog "wallcal/internal/log"
	"wallcal/internal/render"
	"wallcal/internal/source"
	"wallcal/internal/view"
)

// Server exposes events, computed layouts, an HTML calendar page and PNG
// previews.
type Server struct {
	cfg    *config.Config
	store  *source.Store
	engine *view.Engine
	mux    *http.ServeMux

	// Rendered previews keyed by view, valid for one snapshot.
	previewMu sync.Mutex
	previews  map[view.Name]preview
}

type preview struct {
	png        []byte
	snapshotAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, store *source.Store, engine *view.Engine) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		mux:      http.NewServeMux(),
		previews: make(map[view.Name]preview),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "basic_auth", s.basicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="wallcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/layout", s.handleLayout)
	s.mux.HandleFunc("GET /api/upcoming", s.handleUpcoming)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// snapshot loads the current snapshot, answering 502 when no source works.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (source.Snapshot, bool) {
	snap, err := s.store.Get(r.Context())
	if err != nil {
		appLog.Error("snapshot load failed", err, "path", r.URL.Path)
		writeError(w, http.StatusBadGateway, "failed to load events")
		return source.Snapshot{}, false
	}
	return snap, true
}

// viewParam resolves ?view=, answering 400 for unknown values.
func viewParam(w http.ResponseWriter, r *http.Request) (view.Name, bool) {
	name, err := view.Parse(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return name, true
}

func writeViewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, view.ErrDisabled):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, view.ErrUnknown):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("view failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute view")
	}
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	source.Snapshot
	RangeStart      time.Time `json:"range_start"`
	RangeEnd        time.Time `json:"range_end"`
	DisplayTimeZone string    `json:"display_timezone"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		Snapshot:        snap,
		RangeStart:      snap.Range.From,
		RangeEnd:        snap.Range.To,
		DisplayTimeZone: s.store.Location().String(),
	})
}

// handleLayout returns the placements of a grid view.
//
// GET /api/layout?view=weekly|sliding
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	name, ok := viewParam(w, r)
	if !ok {
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	g, err := s.engine.Grid(snap, name)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	u, err := s.engine.UpcomingList(snap)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Refresh(r.Context())
	if err != nil {
		appLog.Error("manual refresh failed", err)
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events":      len(snap.Events),
		"diagnostics": len(snap.Diagnostics),
		"updated_at":  snap.UpdatedAt,
	})
}

// handlePreview renders the requested view to PNG. The image is reused
// until the snapshot changes.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name, ok := viewParam(w, r)
	if !ok {
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	s.previewMu.Lock()
	defer s.previewMu.Unlock()

	p, cached := s.previews[name]
	if !cached || !p.snapshotAt.Equal(snap.UpdatedAt) {
		img, err := s.engine.Image(snap, name)
		if err != nil {
			writeViewError(w, err)
			return
		}
		var buf bytes.Buffer
		if err := render.WritePNG(&buf, img); err != nil {
			appLog.Error("preview encode failed", err)
			writeError(w, http.StatusInternalServerError, "failed to encode preview")
			return
		}
		p = preview{png: buf.Bytes(), snapshotAt: snap.UpdatedAt}
		s.previews[name] = p
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(p.png)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/sitenav"
	"github.com/aretw0/sitenav/internal/logging"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/explorer"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/aretw0/sitenav/pkg/ports"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"
)

// Navigator is the router surface served over HTTP. *sitenav.Router implements it.
type Navigator interface {
	Current() domain.Target
	NavigateTo(ctx context.Context, target domain.UrlTarget) (domain.Target, error)
	GetNav(ctx context.Context, target domain.UrlTarget) (*domain.ResolvedNode, error)
	Expand(ctx context.Context, id string) error
	Explorer() *explorer.State
	Targets() (<-chan domain.Target, func())
	Updates() (<-chan string, func())
	Close() error
}

// SessionFactory creates a router bound to a remote browser.
type SessionFactory func(browser ports.BrowserClient) (Navigator, error)

// Server serves a router over HTTP.
type Server struct {
	Router   Navigator
	Streams  *StreamManager
	sessions SessionFactory
	metrics  http.Handler
	logger   *slog.Logger
	navGroup singleflight.Group
	origins  []string
}

// Option configures the Server.
type Option func(*Server)

// WithSessions enables the /ws endpoint: every connection gets its own router.
func WithSessions(factory SessionFactory) Option {
	return func(s *Server) {
		s.sessions = factory
	}
}

// WithOriginPatterns lists the host patterns (path.Match syntax, e.g. "docs.example.com"
// or "*.example.com") of pages allowed to open a /ws session besides the server's own
// host. Requests without an Origin header are always accepted.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) {
		s.origins = append(s.origins, patterns...)
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server for router.
func NewServer(router Navigator, opts ...Option) *Server {
	s := &Server{
		Router:  router,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates the HTTP handler of a Server for router.
// The returned stop function ends the event pump feeding /events.
func NewHandler(router Navigator, opts ...Option) (http.Handler, func()) {
	s := NewServer(router, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Pump(ctx)
	}()
	return s.Routes(), func() {
		cancel()
		<-done
	}
}

// Routes returns the chi router of the server.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/target", s.GetTarget)
	r.Post("/navigate", s.Navigate)
	r.Get("/nav", s.GetNav)
	r.Get("/explorer", s.GetExplorer)
	r.Post("/explorer/expand", s.Expand)
	r.Get("/events", s.SubscribeEvents)
	if s.sessions != nil {
		r.Get("/ws", s.ServeSession)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NavigateRequest is the body of POST /navigate.
type NavigateRequest struct {
	Path       string            `json:"path"`
	SectionID  string            `json:"sectionId,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// ExplorerNode is one row of GET /explorer.
type ExplorerNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	Leaf     bool   `json:"leaf"`
	Expanded bool   `json:"expanded"`
	Selected bool   `json:"selected"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "sitenav-http",
		"version": strings.TrimSpace(sitenav.Version),
	}, s.logger)
}

// GetTarget handles the GET /target request.
func (s *Server) GetTarget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Router.Current(), s.logger)
}

// Navigate handles the POST /navigate request.
func (s *Server) Navigate(w http.ResponseWriter, r *http.Request) {
	var body NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Navigate: Invalid request body", "error", err)
		return
	}

	target := navpath.Parse(body.Path)
	if body.SectionID != "" {
		target.SectionID = body.SectionID
	}
	target.Parameters = body.Parameters
	target.Issuer = domain.IssuerLink

	t, err := s.Router.NavigateTo(r.Context(), target)
	switch {
	case errors.Is(err, domain.ErrSuperseded):
		http.Error(w, "Navigation superseded", http.StatusConflict)
		return
	case errors.Is(err, domain.ErrCancelled):
		http.Error(w, "Navigation cancelled", http.StatusForbidden)
		return
	case errors.Is(err, domain.ErrRouterClosed):
		http.Error(w, "Router closed", http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, fmt.Sprintf("Navigate error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Navigate failed", "error", err)
		return
	}

	status := http.StatusOK
	if t.Kind == domain.TargetNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, t, s.logger)
}

// GetNav handles the GET /nav?path= request. Concurrent lookups of one path share a resolution.
func (s *Server) GetNav(w http.ResponseWriter, r *http.Request) {
	path := navpath.Sanitize(r.URL.Query().Get("path"))
	v, err, shared := s.navGroup.Do(path, func() (any, error) {
		return s.Router.GetNav(r.Context(), domain.UrlTarget{Path: path})
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Resolve error: %v", err), http.StatusInternalServerError)
		s.logger.Error("GetNav failed", "path", path, "error", err)
		return
	}
	s.logger.Debug("GetNav resolved", "path", path, "shared", shared)
	writeJSON(w, http.StatusOK, v, s.logger)
}

// GetExplorer handles the GET /explorer request: the loaded tree in display order.
func (s *Server) GetExplorer(w http.ResponseWriter, r *http.Request) {
	state := s.Router.Explorer()
	selected, _ := state.Selected()
	open := make(map[string]bool)
	for _, id := range state.Expanded() {
		open[id] = true
	}

	rows := []ExplorerNode{}
	state.Walk(func(n explorer.Node, depth int) bool {
		expanded := open[n.ID]
		rows = append(rows, ExplorerNode{
			ID:       n.ID,
			Name:     n.Name,
			Depth:    depth,
			Leaf:     n.Leaf,
			Expanded: expanded,
			Selected: n.ID == selected,
		})
		return expanded
	})
	writeJSON(w, http.StatusOK, rows, s.logger)
}

// Expand handles the POST /explorer/expand request.
func (s *Server) Expand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if err := s.Router.Expand(ctx, navpath.Sanitize(body.ID)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Expand error: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pump broadcasts router targets and routes updates to the event streams until ctx is done.
func (s *Server) Pump(ctx context.Context) {
	targets, cancelTargets := s.Router.Targets()
	defer cancelTargets()
	updates, cancelUpdates := s.Router.Updates()
	defer cancelUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-targets:
			if !ok {
				return
			}
			if data, err := json.Marshal(t); err == nil {
				s.Streams.Broadcast(TopicTarget, string(data))
			}
		case owner, ok := <-updates:
			if !ok {
				return
			}
			if data, err := json.Marshal(map[string]string{"owner": owner}); err == nil {
				s.Streams.Broadcast(TopicRoutes, string(data))
			}
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE).
// The optional "watch" parameter lists the topics to receive (default: all).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	topics := []string{TopicTarget, TopicRoutes}
	if watch := r.URL.Query().Get("watch"); watch != "" {
		topics = nil
		for _, topic := range strings.Split(watch, ",") {
			topics = append(topics, strings.TrimSpace(topic))
		}
	}

	ch, cancel := s.Streams.Subscribe(topics...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.logger.Info("SSE: client subscribed", "topics", topics)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, ev.Data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

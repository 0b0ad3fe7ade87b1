// Package inspect serves a read-only HTTP view over a model registry:
// JSON snapshots of every registered model, and a WebSocket feed that
// streams consolidated change sets as they are emitted.
package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pyro-reactive/pyro/pkg/pyro"
	"github.com/pyro-reactive/pyro/pkg/store"
)

// Config configures the inspector.
type Config struct {
	// Logger receives request and watcher lifecycle logs.
	// Default: slog.Default().
	Logger *slog.Logger

	// Registry is the Prometheus registry for inspector metrics.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// FrameBuffer is the per-watcher queue depth before change-set
	// frames are dropped. Default: 16.
	FrameBuffer int
}

// Option configures the inspector.
type Option func(*Config)

// WithLogger sets the inspector's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = registry }
}

// WithFrameBuffer sets the per-watcher frame queue depth.
func WithFrameBuffer(n int) Option {
	return func(c *Config) { c.FrameBuffer = n }
}

// Server exposes a store over HTTP.
type Server struct {
	store    *store.Store
	log      *slog.Logger
	metrics  *metrics
	upgrader websocket.Upgrader
	buffer   int
}

// New creates an inspector over the given store.
func New(st *store.Store, opts ...Option) *Server {
	config := Config{
		Logger:      slog.Default(),
		Registry:    prometheus.DefaultRegisterer,
		FrameBuffer: 16,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Server{
		store:   st,
		log:     config.Logger,
		metrics: initMetrics(config.Registry),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		buffer: config.FrameBuffer,
	}
}

// Routes returns the inspector's HTTP handler:
//
//	GET /models            all registered model keys
//	GET /models/{key}      snapshot of one model
//	GET /live/{key}        WebSocket change-set feed for one model
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/models", s.handleModels)
	r.Get("/models/{key}", s.handleModel)
	r.Get("/live/{key}", s.handleLive)
	return r
}

// snapshot is the JSON shape of one model.
type snapshot struct {
	Key    string       `json:"key"`
	Schema string       `json:"schema"`
	State  pyro.Changes `json:"state"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"models": s.store.Keys()})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	m, err := s.store.Lookup(key)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snapshot{Key: key, Schema: m.Schema().Name(), State: m.ToMap()})
}

// handleLive upgrades to WebSocket and forwards every change set the
// model emits. The first frame is a full snapshot. Slow readers drop
// frames rather than stall the model's subscribers.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	m, err := s.store.Lookup(key)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("inspect: upgrade failed", "key", key, "error", err)
		return
	}

	s.metrics.watchers.Inc()
	s.log.Info("inspect: watcher attached", "key", key, "remote", conn.RemoteAddr())

	frames := make(chan pyro.Changes, s.buffer)
	unsubscribe := m.Subscribe(func(changes pyro.Changes) {
		select {
		case frames <- changes:
			s.metrics.changeSets.WithLabelValues(key).Inc()
		default:
			s.metrics.framesDropped.WithLabelValues(key).Inc()
		}
	})

	// Reader goroutine: its only job is to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		unsubscribe()
		conn.Close()
		s.metrics.watchers.Dec()
		s.log.Info("inspect: watcher detached", "key", key)
	}()

	if err := conn.WriteJSON(snapshot{Key: key, Schema: m.Schema().Name(), State: m.ToMap()}); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case changes := <-frames:
			if err := conn.WriteJSON(changes); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

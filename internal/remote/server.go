// Package remote exposes the presenter over HTTP so a phone, clicker bridge
// or second screen can drive the deck:
//
//	GET  /health          liveness and uptime
//	GET  /state           current presenter snapshot
//	GET  /slides          deck index
//	POST /next            "next" intent
//	POST /previous        "previous" intent
//	POST /reset           session reset
//	POST /slides/{id}     jump to a slide
//	GET  /ws              websocket stream of snapshots; accepts command frames
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/kingrea/deckhand/internal/catalog"
	"github.com/kingrea/deckhand/internal/navigation"
	"github.com/kingrea/deckhand/internal/presenter"
)

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// ErrDisabled is returned by Start when the remote is switched off.
var ErrDisabled = errors.New("remote: server disabled")

// Deck is the presenter surface the remote drives.
type Deck interface {
	Next() (navigation.Result, error)
	Previous() (navigation.Result, error)
	ResetSession()
	Jump(id string) (*presenter.Page, error)
	Snapshot() presenter.Snapshot
	Observe(fn func(presenter.Snapshot)) func()
	Catalog() *catalog.Catalog
}

// Logger receives server diagnostics.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

// Server wraps the HTTP listener and handlers backing the remote.
type Server struct {
	settings Settings
	deck     Deck
	logger   Logger
	hub      *hub

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
	stopObs   func()
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer prepares a remote server for deck.
func NewServer(settings Settings, deck Deck, opts ...Option) *Server {
	settings.normalize()
	s := &Server{
		settings: settings,
		deck:     deck,
		logger:   nopLogger{},
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.hub = newHub(s.settings, s.logger)
	return s
}

// Handler builds the router. It is exported for httptest-based callers.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/slides", s.handleSlides).Methods(http.MethodGet)
	r.HandleFunc("/slides/{id}", s.handleJump).Methods(http.MethodPost)
	r.HandleFunc("/next", s.handleIntent(s.deck.Next)).Methods(http.MethodPost)
	r.HandleFunc("/previous", s.handleIntent(s.deck.Previous)).Methods(http.MethodPost)
	r.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	return r
}

// Start binds the listener and serves in the background. The presenter's
// observer feed is attached to the websocket hub for the server's lifetime.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("remote: server is nil")
	}
	if !s.settings.Enabled {
		return ErrDisabled
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return fmt.Errorf("remote: server already started")
	}
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.settings.Address())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("remote: listen %s: %w", s.settings.Address(), err)
	}
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.listener, s.server = listener, server
	s.startTime = time.Now()
	s.stopObs = s.deck.Observe(s.hub.broadcast)
	s.status = StatusReady
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("remote: serve error: %v", err)
		}
	}()
	s.logger.Info("Remote control listening on %s", listener.Addr().String())
	return nil
}

// Shutdown detaches from the presenter, drops websocket clients and waits
// for in-flight requests. The lock is released first because handlers read
// server state while draining.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	server, stopObs := s.server, s.stopObs
	if server == nil {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusDraining
	s.server, s.listener, s.stopObs = nil, nil, nil
	s.mu.Unlock()

	if stopObs != nil {
		stopObs()
	}
	s.hub.closeAll()
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	return server.Shutdown(ctx)
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(time.Since(s.startTime).Seconds())
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Clients       int    `json:"clients"`
}

type intentResponse struct {
	Result string             `json:"result"`
	Error  string             `json:"error,omitempty"`
	State  presenter.Snapshot `json:"state"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		UptimeSeconds: s.uptimeSeconds(),
		Clients:       s.hub.count(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deck.Snapshot())
}

func (s *Server) handleSlides(w http.ResponseWriter, _ *http.Request) {
	slides := s.deck.Catalog().All()
	if slides == nil {
		slides = []catalog.IndexedSlide{}
	}
	writeJSON(w, http.StatusOK, slides)
}

func (s *Server) handleIntent(intent func() (navigation.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := intent()
		resp := intentResponse{Result: result.String(), State: s.deck.Snapshot()}
		status := http.StatusOK
		if err != nil {
			resp.Error = err.Error()
			status = http.StatusConflict
			s.logger.Warn("remote: %s failed: %v", r.URL.Path, err)
		}
		writeJSON(w, status, resp)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.deck.ResetSession()
	writeJSON(w, http.StatusOK, intentResponse{Result: "reset", State: s.deck.Snapshot()})
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.deck.Jump(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, presenter.ErrUnknownSlide) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, intentResponse{Result: "error", Error: err.Error(), State: s.deck.Snapshot()})
		return
	}
	writeJSON(w, http.StatusOK, intentResponse{Result: "jumped", State: s.deck.Snapshot()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

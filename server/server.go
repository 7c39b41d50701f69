package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/smallnest/pixelgraph/arcade"
	"github.com/smallnest/pixelgraph/graph"
	"github.com/smallnest/pixelgraph/log"
	"github.com/smallnest/pixelgraph/schemas"
	"github.com/smallnest/pixelgraph/store"
	"github.com/smallnest/pixelgraph/store/memory"
)

// Server modes announced in SYSTEM_READY.
const (
	ModeGraph = "graph"
	ModeDemo  = "demo"
)

const (
	// DefaultDemoDelay paces demo events so the animations can keep up.
	DefaultDemoDelay = 800 * time.Millisecond

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// defaultHistory is the number of runs kept by the default store.
	defaultHistory = 100
)

// ErrSimulationRunning is reported when a client starts a simulation while
// its previous one is still running.
var ErrSimulationRunning = errors.New("simulation already running")

// GraphDescriber describes a graph for /api/graph. *graph.Exporter
// implements it.
type GraphDescriber interface {
	DrawMermaid() string
	Topology() graph.Topology
}

// GameServer streams simulations to browsers over WebSocket.
type GameServer struct {
	runner arcade.Runner
	mode   string
	config schemas.VisualConfig

	title           string
	logger          log.Logger
	store           store.EventStore
	staticDir       string
	demoDelay       time.Duration
	graph           GraphDescriber
	allowedOrigins  []string
	shutdownTimeout time.Duration

	upgrader websocket.Upgrader
	handler  http.Handler

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	runs    sync.WaitGroup
	writers sync.WaitGroup

	closeOnce sync.Once
}

// NewGameServer creates a server for runner. A nil runner selects demo mode,
// which plays a scripted simulation for the configured agents. The server
// keeps its own copy of config.
func NewGameServer(runner arcade.Runner, config schemas.VisualConfig, opts ...Option) *GameServer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &GameServer{
		runner:          runner,
		mode:            ModeGraph,
		config:          config.Clone(),
		logger:          log.GetDefaultLogger(),
		demoDelay:       DefaultDemoDelay,
		shutdownTimeout: DefaultShutdownTimeout,
		ctx:             ctx,
		cancel:          cancel,
		clients:         make(map[*client]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.config.Validate(); err != nil {
		s.logger.Warn("visual config: %v", err)
	}
	if s.runner == nil {
		s.mode = ModeDemo
		s.runner = arcade.NewDemoRunner(s.config, s.demoDelay)
	}
	if s.store == nil {
		s.store = memory.NewMemoryEventStore(defaultHistory)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.handler = s.routes()
	return s
}

// Mode returns ModeGraph or ModeDemo.
func (s *GameServer) Mode() string {
	return s.mode
}

// Title returns the announced title: the WithTitle option, else the config title.
func (s *GameServer) Title() string {
	if s.title != "" {
		return s.title
	}
	return s.config.Title
}

// Config returns a copy of the visual configuration.
func (s *GameServer) Config() schemas.VisualConfig {
	return s.config.Clone()
}

// Handler returns the HTTP handler of the server.
func (s *GameServer) Handler() http.Handler {
	return s.handler
}

// Serve listens on host:port until SIGINT or SIGTERM, then shuts down
// gracefully.
func (s *GameServer) Serve(host string, port int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.ListenAndServe(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
}

// ListenAndServe listens on addr until ctx is done. Shutdown cancels
// running simulations and closes every connection.
func (s *GameServer) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is ListenAndServe on an existing listener.
func (s *GameServer) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("game server listening on %s (%s mode)", ln.Addr(), s.mode)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down game server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close cancels every simulation and closes every connection. It waits for
// the closing events to be written, up to the shutdown timeout.
func (s *GameServer) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		if !waitTimeout(&s.runs, s.shutdownTimeout) {
			s.logger.Warn("simulations still running after %v", s.shutdownTimeout)
		}

		s.mu.Lock()
		for c := range s.clients {
			c.close()
		}
		s.mu.Unlock()

		if !waitTimeout(&s.writers, s.shutdownTimeout) {
			s.logger.Warn("connections still open after %v", s.shutdownTimeout)
		}
	})
}

func waitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}

func (s *GameServer) checkOrigin(r *http.Request) bool {
	if len(s.allowedOrigins) == 0 || slices.Contains(s.allowedOrigins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return slices.Contains(s.allowedOrigins, u.Scheme+"://"+u.Host)
}

func (s *GameServer) register(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	s.writers.Add(1)
	connectionsActive.Add(1)
	connectionsTotal.Add(1)
	return true
}

func (s *GameServer) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		connectionsActive.Add(-1)
	}
}

// readyEvent describes the server to a newly connected client.
func (s *GameServer) readyEvent() schemas.GameEvent {
	return schemas.NewGameEvent(schemas.EventSystemReady, schemas.SystemAgentID, map[string]any{
		schemas.DataTitle: s.Title(),
		schemas.DataTheme: string(s.config.EffectiveTheme()),
		schemas.DataMode:  s.mode,
		schemas.DataNodes: s.agents(),
	})
}

// agents resolves every configured node with defaults applied.
func (s *GameServer) agents() map[string]schemas.AgentConfig {
	agents := make(map[string]schemas.AgentConfig, len(s.config.Nodes))
	for id := range s.config.Nodes {
		agents[id] = s.config.Agent(id)
	}
	return agents
}

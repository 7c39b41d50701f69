package server

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"net/http"

	"github.com/smallnest/pixelgraph/arcade"
	"github.com/smallnest/pixelgraph/graph"
	"github.com/smallnest/pixelgraph/schemas"
	"github.com/smallnest/pixelgraph/store"
)

func (s *GameServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/game", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/runs/{id}/events", s.handleRunEvents)
	mux.HandleFunc("DELETE /api/runs/{id}", s.handleDeleteRun)
	mux.Handle("GET /debug/vars", expvar.Handler())
	mux.HandleFunc("GET /metrics", handleMetrics)
	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}
	return mux
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied with an HTTP error
		s.logger.Warn("websocket upgrade failed: %v", err)
		return
	}

	c := newClient(s, conn)
	if !s.register(c) {
		conn.Close()
		return
	}
	defer s.unregister(c)
	s.logger.Info("client %s connected from %s", c.id, r.RemoteAddr)

	go func() {
		defer s.writers.Done()
		c.writePump()
	}()

	if err := c.Publish(s.ctx, s.readyEvent()); err != nil {
		c.close()
		return
	}
	c.readPump()
	s.logger.Info("client %s disconnected", c.id)
}

// handleMessage dispatches one client message. Every failure is reported to
// the client as an ERROR event.
func (s *GameServer) handleMessage(c *client, data []byte) {
	msg, err := schemas.ParseClientMessage(data)
	if err != nil {
		s.sendError(c, err)
		return
	}

	switch msg.Type {
	case schemas.MessageStartSimulation:
		if err := s.startSimulation(c, msg.Input); err != nil {
			s.sendError(c, err)
		}
	case schemas.MessageStopSimulation:
		if !c.stopRun() {
			s.logger.Debug("client %s: no simulation to stop", c.id)
		}
	case schemas.MessagePing:
		s.logger.Debug("client %s: ping", c.id)
	}
}

func (s *GameServer) sendError(c *client, err error) {
	ctx, cancel := context.WithTimeout(s.ctx, writeWait)
	defer cancel()
	event := schemas.NewGameEvent(schemas.EventError, schemas.SystemAgentID, map[string]any{
		schemas.DataError: err.Error(),
	})
	if perr := c.Publish(ctx, event); perr != nil {
		s.logger.Debug("client %s: error event dropped: %v", c.id, perr)
		return
	}
	eventsTotal.Add(string(schemas.EventError), 1)
}

// startSimulation runs the server's runner for c in the background.
func (s *GameServer) startSimulation(c *client, input string) error {
	ctx, runID, err := c.beginRun(s.ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		c.endRun(runID)
		return errors.New("server is shutting down")
	}

	em := arcade.NewEmitter(&runSink{server: s, client: c, runID: runID}, runID)
	s.logger.Info("client %s: simulation %s started", c.id, runID)

	graph.SafeGo(&s.runs, func() {
		defer c.endRun(runID)

		err := arcade.Simulate(ctx, s.runner, input, em)
		status := runStatus(err)
		runsTotal.Add(status, 1)
		if status == arcade.StatusFailed {
			s.logger.Warn("client %s: simulation %s failed: %v", c.id, runID, err)
			return
		}
		s.logger.Info("client %s: simulation %s %s", c.id, runID, status)
	}, func(p any) {
		runsTotal.Add(arcade.StatusFailed, 1)
		s.logger.Error("client %s: simulation %s panicked: %v", c.id, runID, p)
		s.sendError(c, fmt.Errorf("simulation crashed: %v", p))
	})
	return nil
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return arcade.StatusCompleted
	case errors.Is(err, context.Canceled):
		return arcade.StatusCancelled
	default:
		return arcade.StatusFailed
	}
}

// runSink records run events in the store and delivers them to a client.
// Events are stored even when the client is gone, so a replay always ends
// with the run's SIMULATION_END.
type runSink struct {
	server *GameServer
	client *client
	runID  string
}

func (r *runSink) Publish(ctx context.Context, event schemas.GameEvent) error {
	if err := r.server.store.Append(context.WithoutCancel(ctx), r.runID, event); err != nil {
		r.server.logger.Warn("run %s: store append failed: %v", r.runID, err)
	}

	if err := r.client.Publish(ctx, event); err != nil {
		return err
	}
	eventsTotal.Add(string(event.Type), 1)
	return nil
}

type configResponse struct {
	Title string                         `json:"title"`
	Theme schemas.Theme                  `json:"theme"`
	Mode  string                         `json:"mode"`
	Nodes map[string]schemas.AgentConfig `json:"nodes"`
}

type graphResponse struct {
	Mermaid  string         `json:"mermaid"`
	Topology graph.Topology `json:"topology"`
}

type runsResponse struct {
	Runs []store.RunSummary `json:"runs"`
}

type eventsResponse struct {
	RunID  string              `json:"run_id"`
	Events []schemas.GameEvent `json:"events"`
}

func (s *GameServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": s.mode})
}

func (s *GameServer) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		Title: s.Title(),
		Theme: s.config.EffectiveTheme(),
		Mode:  s.mode,
		Nodes: s.agents(),
	})
}

func (s *GameServer) handleGraph(w http.ResponseWriter, _ *http.Request) {
	if s.graph == nil {
		writeError(w, http.StatusNotFound, errors.New("no graph attached"))
		return
	}
	writeJSON(w, http.StatusOK, graphResponse{
		Mermaid:  s.graph.DrawMermaid(),
		Topology: s.graph.Topology(),
	})
}

func (s *GameServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.Runs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runsResponse{Runs: runs})
}

func (s *GameServer) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	events, err := s.store.List(r.Context(), runID)
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{RunID: runID, Events: events})
}

func (s *GameServer) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/smallnest/pixelgraph/graph"
	"github.com/smallnest/pixelgraph/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameServer_Health(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ModeDemo, body["mode"])
}

func TestGameServer_ConfigEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil, WithTitle("Arcade"))

	resp, err := http.Get(ts.URL + "/api/config")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body configResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "Arcade", body.Title)
	assert.Equal(t, schemas.ThemeDungeon, body.Theme)
	assert.Equal(t, ModeDemo, body.Mode)
	assert.Equal(t, schemas.AgentConfig{Sprite: "wizard", Color: "purple", DisplayName: "Wise Wizard"}, body.Nodes["wizard"])
}

func TestGameServer_GraphEndpoint(t *testing.T) {
	t.Run("no graph", func(t *testing.T) {
		_, ts := newTestServer(t, nil)
		resp, err := http.Get(ts.URL + "/api/graph")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("with graph", func(t *testing.T) {
		g := graph.NewStateGraph[graph.MessagesState]()
		g.AddNode("chatbot", "talks", func(ctx context.Context, s graph.MessagesState) (graph.MessagesState, error) {
			return s, nil
		})
		g.AddEdge(graph.START, "chatbot")
		g.AddEdge("chatbot", graph.END)
		app, err := g.Compile()
		require.NoError(t, err)

		_, ts := newTestServer(t, nil, WithGraph(app.GetGraph()))
		resp, err := http.Get(ts.URL + "/api/graph")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body graphResponse
		decodeBody(t, resp, &body)
		assert.Contains(t, body.Mermaid, "flowchart TD")
		assert.Equal(t, "chatbot", body.Topology.EntryPoint)
		require.Len(t, body.Topology.Nodes, 1)
		assert.Equal(t, "talks", body.Topology.Nodes[0].Description)
	})
}

func TestGameServer_RunsEndpoints(t *testing.T) {
	s, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	var empty runsResponse
	decodeBody(t, resp, &empty)
	assert.Empty(t, empty.Runs)

	resp, err = http.Get(ts.URL + "/api/runs/missing/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ctx := context.Background()
	ev := schemas.NewGameEvent(schemas.EventSimulationStart, schemas.SystemAgentID, map[string]any{schemas.DataInput: "hi"})
	require.NoError(t, s.store.Append(ctx, "run-1", ev))

	resp, err = http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	var runs runsResponse
	decodeBody(t, resp, &runs)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, "run-1", runs.Runs[0].RunID)

	resp, err = http.Get(ts.URL + "/api/runs/run-1/events")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events eventsResponse
	decodeBody(t, resp, &events)
	assert.Equal(t, "run-1", events.RunID)
	require.Len(t, events.Events, 1)
	assert.Equal(t, ev.EventID, events.Events[0].EventID)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/runs/run-1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = s.store.List(ctx, "run-1")
	assert.Error(t, err)
}

func TestGameServer_Metrics(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, string(body), "# TYPE pixelgraph_connections_active gauge")
	assert.Contains(t, string(body), "# TYPE pixelgraph_events_total counter")

	vars, err := http.Get(ts.URL + "/debug/vars")
	require.NoError(t, err)
	defer vars.Body.Close()
	raw, err := io.ReadAll(vars.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "pixelgraph_runs_total")
}

func TestGameServer_StaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>arcade</h1>"), 0o644))

	_, ts := newTestServer(t, nil, WithStaticDir(dir))
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "arcade")
}

func TestEscapeLabel(t *testing.T) {
	assert.Equal(t, `a\"b\\c\n`, escapeLabel("a\"b\\c\n"))
}

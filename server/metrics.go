package server

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	connectionsActive = expvar.NewInt("pixelgraph_connections_active")
	connectionsTotal  = expvar.NewInt("pixelgraph_connections_total")
	runsTotal         = expvar.NewMap("pixelgraph_runs_total")
	eventsTotal       = expvar.NewMap("pixelgraph_events_total")
)

type metricMeta struct {
	typ, help, label string
}

var metricMetas = map[string]metricMeta{
	"pixelgraph_connections_active": {typ: "gauge", help: "Open game WebSocket connections"},
	"pixelgraph_connections_total":  {typ: "counter", help: "Game WebSocket connections accepted"},
	"pixelgraph_runs_total":         {typ: "counter", help: "Simulations finished", label: "status"},
	"pixelgraph_events_total":       {typ: "counter", help: "Game events published", label: "type"},
}

// handleMetrics renders the server metrics in Prometheus text format.
func handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	names := make([]string, 0, len(metricMetas))
	for name := range metricMetas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := metricMetas[name]
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, m.help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, m.typ)

		switch v := expvar.Get(name).(type) {
		case *expvar.Int:
			_, _ = fmt.Fprintf(w, "%s %d\n", name, v.Value())
		case *expvar.Map:
			var sub []expvar.KeyValue
			v.Do(func(kv expvar.KeyValue) { sub = append(sub, kv) })
			sort.Slice(sub, func(i, j int) bool { return sub[i].Key < sub[j].Key })
			for _, kv := range sub {
				_, _ = fmt.Fprintf(w, "%s{%s=\"%s\"} %s\n", name, m.label, escapeLabel(kv.Key), kv.Value.String())
			}
		}
	}
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

package server

import (
	"time"

	"github.com/smallnest/pixelgraph/log"
	"github.com/smallnest/pixelgraph/store"
)

// Option configures a GameServer.
type Option func(*GameServer)

// WithTitle overrides the title announced to clients.
func WithTitle(title string) Option {
	return func(s *GameServer) {
		s.title = title
	}
}

// WithLogger sets the server logger.
func WithLogger(logger log.Logger) Option {
	return func(s *GameServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore records every run in es. The caller keeps ownership and
// closes it after the server stops.
func WithStore(es store.EventStore) Option {
	return func(s *GameServer) {
		if es != nil {
			s.store = es
		}
	}
}

// WithStaticDir serves the built front end from dir at /.
func WithStaticDir(dir string) Option {
	return func(s *GameServer) {
		s.staticDir = dir
	}
}

// WithDemoDelay sets the pause between demo events. Zero disables pacing.
func WithDemoDelay(d time.Duration) Option {
	return func(s *GameServer) {
		if d >= 0 {
			s.demoDelay = d
		}
	}
}

// WithGraph publishes the structure of the graph at /api/graph.
func WithGraph(g GraphDescriber) Option {
	return func(s *GameServer) {
		s.graph = g
	}
}

// WithAllowedOrigins restricts WebSocket upgrades to the given origins
// ("https://host:port"). By default every origin is accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *GameServer) {
		s.allowedOrigins = append(s.allowedOrigins, origins...)
	}
}

// WithShutdownTimeout bounds how long ListenAndServe waits for running
// simulations and connections on shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *GameServer) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

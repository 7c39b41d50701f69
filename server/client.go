package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/smallnest/pixelgraph/schemas"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024

	// Events queued per connection before publishers block.
	sendBuffer = 64

	// How long a new run waits for a stopped one to wind down.
	stopGrace = 2 * time.Second
)

// ErrClientClosed is returned when publishing to a closed connection.
var ErrClientClosed = errors.New("client connection closed")

// client is one game WebSocket connection. The writer goroutine is the only
// one writing to conn.
type client struct {
	id     string
	server *GameServer
	conn   *websocket.Conn
	send   chan schemas.GameEvent

	done      chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	runID     string
	cancelRun context.CancelFunc
	runDone   chan struct{}
	stopping  bool
}

func newClient(s *GameServer, conn *websocket.Conn) *client {
	return &client{
		id:     uuid.NewString(),
		server: s,
		conn:   conn,
		send:   make(chan schemas.GameEvent, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Publish queues an event for the writer. It blocks while the queue is full.
func (c *client) Publish(ctx context.Context, event schemas.GameEvent) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- event:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops the connection and cancels its simulation. Safe to call
// more than once.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.stopRun()
	})
}

// beginRun reserves the connection for a new simulation. A run that was
// asked to stop gets up to stopGrace to finish before the slot counts as busy.
func (c *client) beginRun(parent context.Context) (context.Context, string, error) {
	c.mu.Lock()
	if c.cancelRun != nil && c.stopping {
		finished := c.runDone
		c.mu.Unlock()
		timer := time.NewTimer(stopGrace)
		select {
		case <-finished:
		case <-c.done:
		case <-timer.C:
		}
		timer.Stop()
		c.mu.Lock()
	}
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return nil, "", ErrClientClosed
	default:
	}
	if c.cancelRun != nil {
		return nil, "", ErrSimulationRunning
	}

	ctx, cancel := context.WithCancel(parent)
	c.runID = uuid.NewString()
	c.cancelRun = cancel
	c.runDone = make(chan struct{})
	c.stopping = false
	return ctx, c.runID, nil
}

func (c *client) endRun(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runID == runID {
		c.cancelRun()
		close(c.runDone)
		c.runID = ""
		c.cancelRun = nil
		c.runDone = nil
		c.stopping = false
	}
}

// stopRun cancels the running simulation, if any.
func (c *client) stopRun() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelRun == nil {
		return false
	}
	c.stopping = true
	c.cancelRun()
	return true
}

// writePump sends queued events and keep-alive pings until the client is
// closed, then flushes what is left and says goodbye.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			if err := c.write(event); err != nil {
				c.server.logger.Debug("client %s: write failed: %v", c.id, err)
				c.close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.done:
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *client) write(event schemas.GameEvent) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(event)
}

func (c *client) flush() {
	for {
		select {
		case event := <-c.send:
			if err := c.write(event); err != nil {
				return
			}
		default:
			return
		}
	}
}

// readPump reads client messages until the connection fails.
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.server.logger.Warn("client %s: read failed: %v", c.id, err)
			}
			return
		}
		c.server.handleMessage(c, data)
	}
}

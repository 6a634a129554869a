// Package gateway bridges orchestration progress to the editor over
// WebSocket. The desktop shell subscribes once and renders each stage as the
// run advances.
package gateway

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mrodz/fieldz/internal/orchestrator"
)

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	SendBuffer      int
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		SendBuffer:      16,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// the desktop shell connects from a local origin
			return true
		},
	}
}

// connection is one subscribed client.
type connection struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Bridge fans orchestrator events out to every subscribed client. It
// implements orchestrator.EventSink.
type Bridge struct {
	config   ConnectionConfig
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[*connection]bool
}

var _ orchestrator.EventSink = (*Bridge)(nil)

func NewBridge(config ConnectionConfig) *Bridge {
	return &Bridge{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		connections: make(map[*connection]bool),
	}
}

// Publish broadcasts one progress event. Slow clients are skipped rather
// than blocking the run.
func (b *Bridge) Publish(event orchestrator.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode progress event")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.connections {
		select {
		case c.send <- payload:
		default:
			log.Warn().Str("connection_id", c.id).Msg("dropping progress event for slow client")
		}
	}
}

// HandleProgress upgrades an HTTP request into a progress subscription.
func (b *Bridge) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	c := &connection{
		id:   uuid.NewString(),
		conn: ws,
		send: make(chan []byte, b.config.SendBuffer),
	}

	b.mu.Lock()
	b.connections[c] = true
	b.mu.Unlock()

	log.Info().Str("connection_id", c.id).Msg("progress client connected")

	go b.writeLoop(c)
	go b.readLoop(c)
}

func (b *Bridge) remove(c *connection) {
	b.mu.Lock()
	if b.connections[c] {
		delete(b.connections, c)
		close(c.send)
	}
	b.mu.Unlock()
	_ = c.conn.Close()
}

// readLoop discards inbound frames; the subscription is one-way. It exists
// to notice the peer going away.
func (b *Bridge) readLoop(c *connection) {
	defer b.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			log.Debug().Str("connection_id", c.id).Err(err).Msg("progress client disconnected")
			return
		}
	}
}

func (b *Bridge) writeLoop(c *connection) {
	ping := time.NewTicker(b.config.PingInterval)
	defer ping.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(b.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Str("connection_id", c.id).Err(err).Msg("write failed")
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(b.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ConnectionCount reports how many clients are subscribed.
func (b *Bridge) ConnectionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connections)
}

// Package stream pushes surfaced candidates to WebSocket clients.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/observability"
)

// Default configuration values.
const (
	DefaultSendBuffer   = 32
	DefaultWriteTimeout = 10 * time.Second
	DefaultPingInterval = 30 * time.Second
)

// MessageTypeCandidate tags candidate messages.
const MessageTypeCandidate = "candidate"

// Message is the envelope written to clients.
type Message struct {
	Type string           `json:"type"`
	Data domain.Candidate `json:"data"`
}

// Options configures a Hub.
type Options struct {
	SendBuffer   int // messages queued per client before it is dropped
	WriteTimeout time.Duration
	PingInterval time.Duration
	Logger       zerolog.Logger
}

// DefaultOptions returns default hub options.
func DefaultOptions() Options {
	return Options{
		SendBuffer:   DefaultSendBuffer,
		WriteTimeout: DefaultWriteTimeout,
		PingInterval: DefaultPingInterval,
		Logger:       zerolog.Nop(),
	}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub fans candidates out to connected clients. A client that cannot keep
// up with its send buffer is disconnected rather than blocking the others.
type Hub struct {
	opts     Options
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

// NewHub creates a hub.
func NewHub(opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}

	return &Hub{
		opts: opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.opts.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.opts.SendBuffer),
	}
	h.register(c)

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast queues a candidate for every connected client.
func (h *Hub) Broadcast(c domain.Candidate) {
	msg, err := json.Marshal(Message{Type: MessageTypeCandidate, Data: c})
	if err != nil {
		h.opts.Logger.Error().Err(err).Str("mint", c.Pair.Mint()).Msg("marshal candidate")
		return
	}

	h.mu.Lock()
	var slow []*client
	for _, cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.Unlock()

	for _, cl := range slow {
		h.opts.Logger.Warn().Str("client", cl.id).Msg("client too slow, disconnecting")
		h.unregister(cl)
	}
	observability.RecordCandidatePushed()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	observability.UpdateStreamClients(n)
	h.opts.Logger.Info().Str("client", c.id).Int("clients", n).Msg("stream client connected")
}

func (h *Hub) unregister(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		n := len(h.clients)
		h.mu.Unlock()

		close(c.send)
		observability.UpdateStreamClients(n)
		h.opts.Logger.Info().Str("client", c.id).Int("clients", n).Msg("stream client disconnected")
	})
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readLoop discards client messages and notices disconnects.
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

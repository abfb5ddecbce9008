// Package ws pushes lot events (check-ins, check-outs) to connected
// operator dashboards over WebSocket.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"parkinglot/backend/services/parking-service/internal/metrics"
)

// Event names published on the feed.
const (
	EventEntryCreated = "entry.created"
	EventEntryExited  = "entry.exited"
)

// Event is the envelope written to clients.
type Event struct {
	Type string    `json:"event"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}

// Options tunes the hub. Zero values use defaults.
type Options struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
	// AllowedOrigins limits browser origins; empty allows any.
	AllowedOrigins []string
}

// Hub tracks feed clients and fans events out to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	opts     Options
	upgrader websocket.Upgrader
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewHub builds a hub.
func NewHub(opts Options, logger *zap.Logger, m *metrics.Metrics) *Hub {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients: make(map[string]*client),
		opts:    opts,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// Handler returns HandleWS as an http.Handler.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(h.HandleWS)
}

// HandleWS upgrades GET /ws/feed to a feed subscription.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(uuid.NewString(), conn, h)
	h.add(c)
	h.logger.Info("feed client connected", zap.String("client_id", c.id), zap.String("remote", r.RemoteAddr))

	go c.writePump()
	go c.readPump()
}

// Publish sends an event to every connected client without blocking.
func (h *Hub) Publish(eventType string, payload any) {
	msg, err := json.Marshal(Event{Type: eventType, Data: payload, At: h.now().UTC()})
	if err != nil {
		h.logger.Error("failed to encode feed event", zap.String("event", eventType), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(msg)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
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
		c.close()
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.metrics.FeedClientConnected()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		h.metrics.FeedClientDisconnected()
		h.logger.Info("feed client disconnected", zap.String("client_id", id))
	}
}

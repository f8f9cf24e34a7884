package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/ayusman/handrunner/internal/game"
)

// DefaultBroadcastInterval limits dashboard updates to about 15 per second.
const DefaultBroadcastInterval = 66 * time.Millisecond

const (
	writeWait  = 2 * time.Second
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts tick updates to WebSocket clients and accepts key presses
// from them as {"key": "a"} messages.
type Hub struct {
	interval time.Duration
	logger   *log.Logger

	mu       sync.RWMutex
	clients  map[*client]struct{}
	lastSent time.Time
	onKey    func(game.Key) bool
}

// NewHub creates a Hub that sends at most one update per interval.
// A zero interval uses DefaultBroadcastInterval.
func NewHub(interval time.Duration, logger *log.Logger) *Hub {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		interval: interval,
		logger:   logger,
		clients:  make(map[*client]struct{}),
	}
}

// HandleKeys sets the function key messages are passed to.
func (h *Hub) HandleKeys(fn func(game.Key) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onKey = fn
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends v as JSON to every client. Updates arriving faster than the
// interval are dropped, as are updates for clients whose buffer is full.
func (h *Hub) Publish(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}
	now := time.Now()
	if now.Sub(h.lastSent) < h.interval {
		return
	}
	h.lastSent = now

	msg, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn("failed to encode update", "err", err)
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("dashboard client connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		close(c.send)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		var msg keyRequest
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				continue
			}
			return
		}
		h.key(msg.Key)
	}
}

func (h *Hub) key(name string) {
	h.mu.RLock()
	fn := h.onKey
	h.mu.RUnlock()
	if fn == nil {
		return
	}

	k, ok := game.ParseKey(name)
	if !ok {
		h.logger.Debug("ignoring unknown key", "key", name)
		return
	}
	fn(k)
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.conn.Close()
	}
}

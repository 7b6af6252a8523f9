package realtime

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// message is the frame written to plain WebSocket clients
type message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub keeps every WebSocket connection of every user
type Hub struct {
	tokens   TokenParser
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]map[*client]struct{}
}

// NewHub returns a hub authenticating connections with tokens
func NewHub(tokens TokenParser, allowedOrigins []string) *Hub {
	return &Hub{
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		clients: make(map[string]map[*client]struct{}),
	}
}

// ServeHTTP upgrades an authenticated request and keeps the connection until the peer leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.ParseToken(requestToken(r))
	if err != nil {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "userId", userID, "error", err)
		return
	}

	c := &client{conn: conn}
	h.add(userID, c)
	zap.S().Debugw("websocket client connected", "userId", userID)

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.remove(userID, c)
	zap.S().Debugw("websocket client disconnected", "userId", userID)
}

// SendToUser implements notify.Broadcaster. A connection that fails to take the write is
// dropped; the user's other connections are unaffected.
func (h *Hub) SendToUser(userID, event string, payload interface{}) error {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	var errs []error
	for _, c := range targets {
		if err := c.write(message{Event: event, Data: payload}); err != nil {
			h.remove(userID, c)
			errs = append(errs, fmt.Errorf("websocket write to %s: %w", userID, err))
		}
	}
	return errors.Join(errs...)
}

// Connections returns how many connections userID has open
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for c := range conns {
			_ = c.conn.Close()
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) add(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
}

func (h *Hub) remove(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID][c]; !ok {
		return
	}
	_ = c.conn.Close()
	delete(h.clients[userID], c)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

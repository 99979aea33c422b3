package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna/model"
)

const writeWait = 200 * time.Millisecond

// client serialises writes to one websocket connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(msgType int, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(msgType, b)
}

// Hub fans readings of one session out to its websocket subscribers.
type Hub struct {
	mu    sync.Mutex
	conns map[*client]bool
}

func newHub() *Hub {
	return &Hub{conns: make(map[*client]bool)}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*client {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

func (h *Hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) broadcastText(b []byte) {
	for _, c := range h.snapshot() {
		if err := c.write(websocket.TextMessage, b); err != nil {
			_ = c.conn.Close()
			h.remove(c)
		}
	}
}

// Publish implements pulsedna.ReadingSink.
func (h *Hub) Publish(sessionID string, r model.Reading) error {
	b, err := json.Marshal(StreamMessage{Type: "reading", SessionID: sessionID, Reading: &r})
	if err != nil {
		return err
	}
	h.broadcastText(b)
	return nil
}

// closeAll sends a close frame to every subscriber and drops them.
func (h *Hub) closeAll(reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	for _, c := range h.snapshot() {
		_ = c.write(websocket.CloseMessage, msg)
		_ = c.conn.Close()
		h.remove(c)
	}
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(allowedOrigins, r.Header.Get("Origin"))
		},
	}
}

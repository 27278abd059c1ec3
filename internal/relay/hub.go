// Package relay bridges the database's change feed to WebSocket clients.
// The hub tracks per-channel subscriptions; the feed LISTENs on the
// database's notification channels and republishes each event. No replay,
// no ordering beyond what the upstream feed provides.
package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/vrno/tokenmarket/internal/metrics"
)

// Event is one change pushed to subscribers.
type Event struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"` // INSERT, UPDATE or DELETE
	Data    json.RawMessage `json:"data"`
}

// command is what clients send over the socket.
type command struct {
	Action  string `json:"action"` // "subscribe" or "unsubscribe"
	Channel string `json:"channel"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes to the connection
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub fans change events out to subscribed WebSocket clients.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	channels map[string]map[*client]struct{}
	clients  map[*client][]string
}

// NewHub creates a hub. checkOrigin guards the WebSocket upgrade.
func NewHub(log zerolog.Logger, checkOrigin func(*http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		channels: make(map[string]map[*client]struct{}),
		clients:  make(map[*client][]string),
	}
}

// ServeHTTP upgrades the connection and runs the client's read loop:
// connect, subscribe, relay until disconnect.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = nil
	h.mu.Unlock()
	metrics.ClientConnected()

	defer func() {
		h.drop(c)
		conn.Close()
		metrics.ClientDisconnected()
	}()

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		switch cmd.Action {
		case "subscribe":
			if cmd.Channel == "" {
				continue
			}
			h.subscribe(c, cmd.Channel)
			_ = c.send(map[string]string{"channel": cmd.Channel, "event": "subscribed"})
		case "unsubscribe":
			h.unsubscribe(c, cmd.Channel)
		}
	}
}

// Publish pushes an event to every subscriber of its channel. Clients that
// fail the write are dropped.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	subs := make([]*client, 0, len(h.channels[ev.Channel]))
	for c := range h.channels[ev.Channel] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		return
	}
	metrics.RecordRelayEvent(ev.Channel)

	for _, c := range subs {
		if err := c.send(ev); err != nil {
			h.log.Debug().Err(err).Str("channel", ev.Channel).Msg("dropping client")
			h.drop(c)
			c.conn.Close()
		}
	}
}

func (h *Hub) subscribe(c *client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*client]struct{})
	}
	h.channels[channel][c] = struct{}{}
	h.clients[c] = append(h.clients[c], channel)
}

func (h *Hub) unsubscribe(c *client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.channels[channel], c)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, channel := range h.clients[c] {
		delete(h.channels[channel], c)
	}
	delete(h.clients, c)
}

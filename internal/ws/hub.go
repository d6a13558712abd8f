package ws

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/observability"
)

const writeWait = 10 * time.Second

// client serializes writes to one connection.
type client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub tracks the open websocket connections of each user.
type Hub struct {
	clients map[string]map[*websocket.Conn]*client
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]*client)}
}

// AddClient registers a connection for username. A user may hold several.
func (h *Hub) AddClient(username string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[username]; !ok {
		h.clients[username] = make(map[*websocket.Conn]*client)
	}
	h.clients[username][conn] = &client{conn: conn, info: info}
}

// RemoveClient forgets a connection. It reports whether the connection was registered.
func (h *Hub) RemoveClient(username string, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[username]
	if !ok {
		return false
	}
	if _, ok := conns[conn]; !ok {
		return false
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, username)
	}
	return true
}

// Connected lists the users with at least one open connection.
func (h *Hub) Connected() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]string, 0, len(h.clients))
	for username := range h.clients {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

func (h *Hub) IsOnline(username string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[username]) > 0
}

// SendTo writes v as JSON to every connection of username and returns how many writes succeeded.
func (h *Hub) SendTo(username string, v any) int {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("websocket encode error: %v", err)
		return 0
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[username]))
	for _, c := range h.clients[username] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.write(payload); err != nil {
			log.Printf("websocket write error username=%s: %v", username, err)
			c.conn.Close()
			if h.RemoveClient(username, c.conn) {
				observability.DecWSActive()
			}
			h.publishWSError(c.info, err)
			continue
		}
		sent++
	}
	return sent
}

// Deliver pushes a bus message to its recipient. It is meant to be subscribed to the bus.
func (h *Hub) Deliver(_ context.Context, msg bus.Message) {
	if msg.To == "" {
		return
	}
	h.SendTo(msg.To, msg)
}

func (h *Hub) publishWSError(info ConnInfo, err error) {
	observability.IncWSEvent("ws_error")
	_ = observability.PublishEvent(context.Background(), wsRoutingKey, wsEvent("ws_error", info, err.Error()))
}

const wsRoutingKey = "ws_events.calendar"

func wsEvent(name string, info ConnInfo, reason string) observability.WSEvent {
	var duration int64
	if !info.ConnectedAt.IsZero() {
		duration = time.Since(info.ConnectedAt).Milliseconds()
	}
	return observability.WSEvent{
		EventType:  "ws_events",
		EventName:  name,
		ConnID:     info.ConnID,
		Username:   info.Username,
		DeviceID:   info.DeviceID,
		IP:         info.IP,
		RequestID:  info.RequestID,
		TraceID:    info.TraceID,
		DurationMS: duration,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

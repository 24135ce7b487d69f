package realtime

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the wire envelope pushed to subscribers.
type Event struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Hub is an in-process fan-out of booking events to websocket subscribers,
// keyed by channel name. Publishing is best-effort: dead connections are
// dropped, errors never reach the publisher.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func TelescopeChannel(id int64) string { return fmt.Sprintf("telescope-%d", id) }
func UserChannel(id int64) string      { return fmt.Sprintf("user-%d", id) }

func (h *Hub) Subscribe(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[*websocket.Conn]struct{})
		h.channels[channel] = subs
	}
	subs[conn] = struct{}{}
}

// Unsubscribe removes the connection from every channel and closes it.
func (h *Hub) Unsubscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, subs := range h.channels {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	_ = conn.Close()
}

// Publish sends the event to every subscriber of the channel. Write failures
// evict the subscriber.
func (h *Hub) Publish(channel, event string, payload any) {
	msg := Event{Channel: channel, Event: event, Payload: payload}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.channels[channel]))
	for conn := range h.channels[channel] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			h.Unsubscribe(conn)
		}
	}
}

func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.channels[channel])
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, subs := range h.channels {
		for conn := range subs {
			_ = conn.Close()
		}
		delete(h.channels, channel)
	}
}

package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a live change notification sent to a household's clients.
type Message struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     int64  `json:"id,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
	}
}

// Hub tracks connected clients grouped by household.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.householdID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.householdID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.householdID]; ok {
		if _, ok := room[c]; ok {
			delete(room, c)
			close(c.send)
			if len(room) == 0 {
				delete(h.rooms, c.householdID)
			}
		}
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client of the household.
func (h *Hub) Broadcast(householdID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[householdID] {
		select {
		case c.send <- data:
		default:
			// Slow client; drop rather than block.
		}
	}
}

// Publish adapts Broadcast to the services' event hook.
func (h *Hub) Publish(householdID int64, entity, action string, id int64) {
	h.Broadcast(householdID, NewMessage(entity, action, id))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

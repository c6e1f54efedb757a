package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/scythe504/wordbomb-backend/internal"
)

// =============================================================================
// BROADCASTING & MESSAGING
// =============================================================================

// Hub tracks the live connection of every player, per room. It is the engine's
// outbound side: sends never block on a slow socket.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client
	log   zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[string]*Client),
		log:   log,
	}
}

// register makes c the connection for its player, returning the one it replaced.
func (h *Hub) register(c *Client) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[c.roomID]
	if !ok {
		clients = make(map[string]*Client)
		h.rooms[c.roomID] = clients
	}
	prev := clients[c.playerID]
	clients[c.playerID] = c
	return prev
}

// unregister forgets c if it is still the player's current connection.
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.rooms[c.roomID]
	if clients[c.playerID] != c {
		return false
	}
	delete(clients, c.playerID)
	if len(clients) == 0 {
		delete(h.rooms, c.roomID)
	}
	return true
}

func (h *Hub) Broadcast(roomID string, msg internal.Message[any]) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Str("type", msg.Type).Msg("marshal broadcast")
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for _, c := range h.rooms[roomID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(data)
	}
	h.log.Debug().Str("room", roomID).Str("type", msg.Type).Int("clients", len(targets)).Msg("broadcast")
}

func (h *Hub) SendTo(roomID, playerID string, msg internal.Message[any]) {
	h.mu.RLock()
	c := h.rooms[roomID][playerID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	c.send(msg)
}

// Clients is the number of open connections in a room.
func (h *Hub) Clients(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*Client
	for roomID, clients := range h.rooms {
		for _, c := range clients {
			all = append(all, c)
		}
		delete(h.rooms, roomID)
	}
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}

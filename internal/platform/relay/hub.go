// Package relay fans chat and presence events out to connected clients. It is
// a cache-invalidation signal, not a source of truth: delivery is at-most-once
// and a disconnected client reconciles by re-reading the store when it comes
// back.
package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Server-emitted event types.
const (
	EventReceiveMessage = "receive_message"
	EventStatusChange   = "status_change"
)

// Event is a single message pushed to connected clients.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// StatusChange is the payload of a status_change event.
type StatusChange struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// Client represents one connected socket. A client belongs to exactly one
// user room (its own user id) and one organization.
type Client struct {
	ID     string
	UserID uuid.UUID
	OrgID  uuid.UUID
	Send   chan []byte

	joined bool
}

// Hub tracks connected clients by user room and by organization. All
// operations are safe for concurrent use.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Client]struct{} // user id -> clients
	orgs  map[uuid.UUID]map[*Client]struct{} // org id -> clients
	all   map[*Client]struct{}

	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Client]struct{}),
		orgs:   make(map[uuid.UUID]map[*Client]struct{}),
		all:    make(map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a connected client. The client receives nothing until it
// joins its room.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	if h.orgs[client.OrgID] == nil {
		h.orgs[client.OrgID] = make(map[*Client]struct{})
	}
	h.orgs[client.OrgID][client] = struct{}{}
}

// JoinRoom subscribes the client to its own user room. A client may only join
// the room of the user it authenticated as; join requests for other rooms are
// ignored.
func (h *Hub) JoinRoom(client *Client, userID uuid.UUID) {
	if userID != client.UserID {
		h.logger.Warn().
			Str("client_id", client.ID).
			Str("requested_room", userID.String()).
			Msg("join_room for foreign user ignored")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if client.joined {
		return
	}
	if h.rooms[userID] == nil {
		h.rooms[userID] = make(map[*Client]struct{})
	}
	h.rooms[userID][client] = struct{}{}
	client.joined = true
}

// Unregister removes a client from its room and organization set and closes
// its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	if client.joined {
		if room, ok := h.rooms[client.UserID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, client.UserID)
			}
		}
	}
	if org, ok := h.orgs[client.OrgID]; ok {
		delete(org, client)
		if len(org) == 0 {
			delete(h.orgs, client.OrgID)
		}
	}

	delete(h.all, client)
	close(client.Send)
}

// SendToUser delivers an event to every connection in the user's room.
// Best-effort: clients whose buffers are full are skipped rather than
// blocking the sender.
func (h *Hub) SendToUser(userID uuid.UUID, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("marshal relay event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[userID] {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// BroadcastStatus sends a status_change event to every client of the user's
// organization.
func (h *Hub) BroadcastStatus(orgID, userID uuid.UUID, status string) {
	event := Event{
		Type:      EventStatusChange,
		Timestamp: time.Now().UTC(),
		Data:      StatusChange{UserID: userID.String(), Status: status},
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal status_change event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.orgs[orgID] {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// RoomCount returns the number of connections in a user's room.
func (h *Hub) RoomCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

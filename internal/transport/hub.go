package transport

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/carebridge-health/televisit-signaling/internal/models"
)

var errUnknownConnection = errors.New("connection not registered")
var errSendBufferFull = errors.New("send buffer full")

// Hub tracks live websocket connections and their room broadcast groups.
// It implements signaling.Transport; all sends are fire-and-forget onto the
// client's buffered channel so a slow reader never stalls a handler.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Client
	groups map[string]map[string]*Client
	log    zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]*Client),
		groups: make(map[string]map[string]*Client),
		log:    log.With().Str("component", "ws-hub").Logger(),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c.ID)
	for roomID, members := range h.groups {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.groups, roomID)
		}
	}
}

// JoinGroup subscribes a connection to a room's broadcasts.
func (h *Hub) JoinGroup(connectionID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, exists := h.conns[connectionID]
	if !exists {
		return
	}
	if h.groups[roomID] == nil {
		h.groups[roomID] = make(map[string]*Client)
	}
	h.groups[roomID][connectionID] = c
}

// LeaveGroup unsubscribes a connection from a room's broadcasts.
func (h *Hub) LeaveGroup(connectionID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.groups[roomID]
	if members == nil {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(h.groups, roomID)
	}
}

// SendToConnection delivers one event to one connection. Returns an error
// if the connection is gone or its buffer is full; callers treat delivery
// as best-effort.
func (h *Hub) SendToConnection(connectionID string, event models.EventType, payload any) error {
	h.mu.RLock()
	c, exists := h.conns[connectionID]
	h.mu.RUnlock()
	if !exists {
		return errUnknownConnection
	}
	return c.enqueue(event, "", payload)
}

// BroadcastToGroup sends an event to every member of a room.
func (h *Hub) BroadcastToGroup(roomID string, event models.EventType, payload any) {
	h.BroadcastToGroupExcept("", roomID, event, payload)
}

// BroadcastToGroupExcept sends an event to every room member except one.
func (h *Hub) BroadcastToGroupExcept(connectionID, roomID string, event models.EventType, payload any) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.groups[roomID]))
	for id, c := range h.groups[roomID] {
		if id != connectionID {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range members {
		if err := c.enqueue(event, "", payload); err != nil {
			h.log.Warn().
				Err(err).
				Str("event", string(event)).
				Str("connection_id", c.ID).
				Msg("dropped broadcast message")
		}
	}
}

func marshalEnvelope(event models.EventType, id string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.Envelope{Type: event, ID: id, Data: data})
}

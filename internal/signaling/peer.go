package signaling

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role of a participant in a visit call.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func ValidRole(r string) bool {
	return Role(r) == RoleDoctor || Role(r) == RolePatient
}

// Peer is one participant's live membership in a room, tied to a single
// transport connection for its whole lifetime.
type Peer struct {
	ID           string
	ConnectionID string
	UserID       string
	Role         Role
	RoomID       string
	JoinedAt     time.Time
}

// PeerRegistry is the authoritative map from connection id to peer. A
// connection maps to at most one peer; room occupancy is re-checked under
// the registry's own lock so a check-then-insert race cannot overfill a
// room.
type PeerRegistry struct {
	mu         sync.RWMutex
	byConn     map[string]*Peer
	byPeerID   map[string]*Peer
	byRoom     map[string]map[string]*Peer
	maxPerRoom int
	now        func() time.Time
}

func NewPeerRegistry(maxPerRoom int) *PeerRegistry {
	return &PeerRegistry{
		byConn:     make(map[string]*Peer),
		byPeerID:   make(map[string]*Peer),
		byRoom:     make(map[string]map[string]*Peer),
		maxPerRoom: maxPerRoom,
		now:        time.Now,
	}
}

// AddPeer registers a new peer in roomID. It returns nil if the connection
// already has a peer or the room is at capacity.
func (r *PeerRegistry) AddPeer(roomID, connectionID, userID string, role Role) *Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConn[connectionID]; exists {
		return nil
	}
	if len(r.byRoom[roomID]) >= r.maxPerRoom {
		return nil
	}

	peer := &Peer{
		ID:           uuid.New().String(),
		ConnectionID: connectionID,
		UserID:       userID,
		Role:         role,
		RoomID:       roomID,
		JoinedAt:     r.now(),
	}

	r.byConn[connectionID] = peer
	r.byPeerID[peer.ID] = peer
	if r.byRoom[roomID] == nil {
		r.byRoom[roomID] = make(map[string]*Peer)
	}
	r.byRoom[roomID][peer.ID] = peer
	return peer
}

// PeerByConnection returns the peer registered for a connection, or nil.
func (r *PeerRegistry) PeerByConnection(connectionID string) *Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConn[connectionID]
}

// RemovePeer drops all indexes for the connection's peer. Idempotent: a
// second call for the same connection reports ok=false.
func (r *PeerRegistry) RemovePeer(connectionID string) (peer Peer, roomID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.byConn[connectionID]
	if !exists {
		return Peer{}, "", false
	}

	delete(r.byConn, connectionID)
	delete(r.byPeerID, p.ID)
	if members := r.byRoom[p.RoomID]; members != nil {
		delete(members, p.ID)
		if len(members) == 0 {
			delete(r.byRoom, p.RoomID)
		}
	}
	return *p, p.RoomID, true
}

// PeersInRoom returns a snapshot of the room's members, safe to iterate
// while joins and leaves continue.
func (r *PeerRegistry) PeersInRoom(roomID string) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.byRoom[roomID]
	peers := make([]Peer, 0, len(members))
	for _, p := range members {
		peers = append(peers, *p)
	}
	return peers
}

// CountInRoom returns the room's current occupancy.
func (r *PeerRegistry) CountInRoom(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byRoom[roomID])
}

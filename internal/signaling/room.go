package signaling

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Namespace for deriving room ids from visit ids. Fixed so every replica,
// and every recreation after a reap, maps the same visit to the same room.
var visitRoomNamespace = uuid.MustParse("8f1a43be-6a10-4c2b-9d6f-31f0c5a7e302")

// RoomIDForVisit derives the room id for a visit. Pure function: no state,
// no randomness.
func RoomIDForVisit(visitID string) string {
	return uuid.NewSHA1(visitRoomNamespace, []byte(visitID)).String()
}

// Room is the server-side coordination record for one call. EmptySince is
// the zero time while any peer is present.
type Room struct {
	ID             string
	VisitID        string
	CreatedAt      time.Time
	LastActivityAt time.Time
	EmptySince     time.Time
}

// RoomRegistry tracks room metadata and cleanup eligibility. Membership
// itself lives in PeerRegistry; the record here only carries timestamps, so
// a reap racing a rejoin loses nothing.
type RoomRegistry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	capacity int
	now      func() time.Time
}

func NewRoomRegistry(capacity int) *RoomRegistry {
	return &RoomRegistry{
		rooms:    make(map[string]*Room),
		capacity: capacity,
		now:      time.Now,
	}
}

// RoomForVisit resolves the room id for a visit, creating the record on
// first use. Idempotent across the room's lifetime and across reaps.
func (r *RoomRegistry) RoomForVisit(visitID string) string {
	roomID := RoomIDForVisit(visitID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[roomID]; !exists {
		now := r.now()
		r.rooms[roomID] = &Room{
			ID:             roomID,
			VisitID:        visitID,
			CreatedAt:      now,
			LastActivityAt: now,
		}
	}
	return roomID
}

// Get returns a copy of the room record, or nil if unknown.
func (r *RoomRegistry) Get(roomID string) *Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return nil
	}
	cp := *room
	return &cp
}

// Touch records activity and clears any pending emptiness mark.
func (r *RoomRegistry) Touch(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return
	}
	room.LastActivityAt = r.now()
	room.EmptySince = time.Time{}
}

// MarkEmptyIfIdle starts the grace clock once the room has drained.
func (r *RoomRegistry) MarkEmptyIfIdle(roomID string, peerCount int) {
	if peerCount > 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return
	}
	if room.EmptySince.IsZero() {
		room.EmptySince = r.now()
	}
}

// AtCapacity reports whether a join would exceed the configured occupancy.
func (r *RoomRegistry) AtCapacity(roomID string, currentPeerCount int) bool {
	return currentPeerCount >= r.capacity
}

// Capacity returns the configured maximum occupancy.
func (r *RoomRegistry) Capacity() int {
	return r.capacity
}

// Delete drops the room record. Used when the grace period is zero and the
// last peer has left.
func (r *RoomRegistry) Delete(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}

// Len returns the number of tracked rooms.
func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// ReapStale removes rooms that have been empty for longer than grace and
// returns their ids. Rooms with peers never have EmptySince set, so an
// active call is never reaped no matter how old it is.
func (r *RoomRegistry) ReapStale(grace time.Duration, now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reaped []string
	for id, room := range r.rooms {
		if room.EmptySince.IsZero() {
			continue
		}
		if now.Sub(room.EmptySince) > grace {
			delete(r.rooms, id)
			reaped = append(reaped, id)
		}
	}
	return reaped
}

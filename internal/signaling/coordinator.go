package signaling

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge-health/televisit-signaling/internal/metrics"
	"github.com/carebridge-health/televisit-signaling/internal/models"
)

// Transport is the outbound capability the coordinator consumes. The
// websocket layer implements it; tests use a recording fake.
type Transport interface {
	JoinGroup(connectionID, roomID string)
	LeaveGroup(connectionID, roomID string)
	SendToConnection(connectionID string, event models.EventType, payload any) error
	BroadcastToGroupExcept(connectionID, roomID string, event models.EventType, payload any)
}

// Coordinator orchestrates the call lifecycle: it is the only component
// that mutates the registries or produces outbound messages. One mutex
// serializes every handler so each read-modify-write plus its broadcasts
// runs to completion before the next event, which is what keeps
// peer-joined/peer-left ordering consistent per room.
type Coordinator struct {
	mu        sync.Mutex
	peers     *PeerRegistry
	rooms     *RoomRegistry
	transport Transport
	grace     time.Duration
	log       zerolog.Logger
}

func NewCoordinator(peers *PeerRegistry, rooms *RoomRegistry, transport Transport, grace time.Duration, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		peers:     peers,
		rooms:     rooms,
		transport: transport,
		grace:     grace,
		log:       log.With().Str("component", "coordinator").Logger(),
	}
}

// JoinRoom resolves the visit's room, registers the peer, and announces it.
// The returned ack carries the assigned peer id and the peers already
// present; on failure it carries only an error and nothing is broadcast.
func (c *Coordinator) JoinRoom(connectionID, userID string, req models.JoinRoomRequest) models.Ack {
	if req.VisitID == "" || !ValidRole(req.Role) {
		return models.ErrorAck(ErrBadJoin.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Pure derivation: the room record is only created once the join is
	// accepted, so a rejected join never leaves a zero-peer record behind
	// for the reaper to miss.
	roomID := RoomIDForVisit(req.VisitID)

	// Pre-checks pick the error message; AddPeer below is the authoritative
	// atomic check-and-insert.
	if c.peers.PeerByConnection(connectionID) != nil {
		metrics.JoinFailuresTotal.WithLabelValues("duplicate").Inc()
		return models.ErrorAck(ErrAlreadyJoined.Error())
	}
	if c.rooms.AtCapacity(roomID, c.peers.CountInRoom(roomID)) {
		metrics.JoinFailuresTotal.WithLabelValues("capacity").Inc()
		c.log.Warn().
			Str("visit_id", req.VisitID).
			Str("room_id", roomID).
			Str("user_id", userID).
			Msg("join rejected, room at capacity")
		return models.ErrorAck(ErrRoomFull.Error())
	}

	peer := c.peers.AddPeer(roomID, connectionID, userID, Role(req.Role))
	if peer == nil {
		metrics.JoinFailuresTotal.WithLabelValues("capacity").Inc()
		return models.ErrorAck(ErrRoomFull.Error())
	}

	c.rooms.RoomForVisit(req.VisitID)
	c.transport.JoinGroup(connectionID, roomID)
	c.rooms.Touch(roomID)

	others := make([]models.PeerInfo, 0, c.rooms.Capacity()-1)
	for _, p := range c.peers.PeersInRoom(roomID) {
		if p.ID == peer.ID {
			continue
		}
		others = append(others, peerInfo(p))
	}

	c.transport.BroadcastToGroupExcept(connectionID, roomID, models.EventPeerJoined, models.PeerJoinedEvent{
		Peer: peerInfo(*peer),
	})

	metrics.JoinsTotal.Inc()
	metrics.ActivePeers.Inc()
	metrics.ActiveRooms.Set(float64(c.rooms.Len()))
	c.log.Info().
		Str("room_id", roomID).
		Str("peer_id", peer.ID).
		Str("user_id", userID).
		Str("role", req.Role).
		Int("peer_count", c.peers.CountInRoom(roomID)).
		Msg("peer joined room")

	return models.Ack{
		Success:    true,
		RoomID:     roomID,
		PeerID:     peer.ID,
		OtherPeers: others,
	}
}

// LeaveRoom detaches the connection's peer. Leaving twice, or leaving a
// room the connection never joined, acks success with no broadcast; client
// retries and duplicate leave calls are expected.
func (c *Coordinator) LeaveRoom(connectionID string, req models.LeaveRoomRequest) models.Ack {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.detachPeer(connectionID, "leave")
	return models.OkAck()
}

// Disconnect handles the transport-level connection drop. Same cleanup as
// an explicit leave, minus the ack.
func (c *Coordinator) Disconnect(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.detachPeer(connectionID, "disconnect")
}

// detachPeer is the single removal path for both leave-room and disconnect.
// Caller holds c.mu.
func (c *Coordinator) detachPeer(connectionID, cause string) {
	peer, roomID, ok := c.peers.RemovePeer(connectionID)
	if !ok {
		return
	}

	c.transport.LeaveGroup(connectionID, roomID)
	c.transport.BroadcastToGroupExcept(connectionID, roomID, models.EventPeerLeft, models.PeerLeftEvent{
		PeerID: peer.ID,
		UserID: peer.UserID,
	})

	remaining := c.peers.CountInRoom(roomID)
	c.rooms.MarkEmptyIfIdle(roomID, remaining)
	if remaining == 0 && c.grace <= 0 {
		c.rooms.Delete(roomID)
	}

	metrics.ActivePeers.Dec()
	metrics.ActiveRooms.Set(float64(c.rooms.Len()))
	c.log.Info().
		Str("room_id", roomID).
		Str("peer_id", peer.ID).
		Str("user_id", peer.UserID).
		Str("cause", cause).
		Int("peer_count", remaining).
		Msg("peer left room")
}

// Relay forwards an offer, answer, or ICE candidate to the target
// connection without touching the signal payload. The sender must be a
// registered peer; delivery itself is best-effort and a failed send never
// fails the sender's ack.
func (c *Coordinator) Relay(event models.EventType, connectionID string, req models.SignalRequest) models.Ack {
	if req.To == "" || len(req.Signal) == 0 {
		return models.ErrorAck(ErrBadSignal.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sender := c.peers.PeerByConnection(connectionID)
	if sender == nil {
		return models.ErrorAck(ErrUnknownPeer.Error())
	}

	c.rooms.Touch(sender.RoomID)

	err := c.transport.SendToConnection(req.To, event, models.SignalEvent{
		From:   connectionID,
		Signal: req.Signal,
	})
	if err != nil {
		metrics.RelayFailures.Inc()
		c.log.Warn().
			Err(err).
			Str("event", string(event)).
			Str("from", connectionID).
			Str("to", req.To).
			Msg("signal relay failed")
		return models.OkAck()
	}

	metrics.SignalsRelayed.Inc()
	return models.OkAck()
}

// ReapStale evicts rooms empty past the grace period. Called by the reap
// scheduler; exposed here so the sweep shares the coordinator's lock with
// the event handlers.
func (c *Coordinator) ReapStale(now time.Time) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	reaped := c.rooms.ReapStale(c.grace, now)
	if len(reaped) > 0 {
		metrics.RoomsReaped.Add(float64(len(reaped)))
		metrics.ActiveRooms.Set(float64(c.rooms.Len()))
		c.log.Info().
			Int("count", len(reaped)).
			Strs("room_ids", reaped).
			Msg("reaped stale rooms")
	}
	return reaped
}

func peerInfo(p Peer) models.PeerInfo {
	return models.PeerInfo{
		ID:       p.ID,
		UserID:   p.UserID,
		SocketID: p.ConnectionID,
		Role:     string(p.Role),
	}
}

package models

import "encoding/json"

// EventType identifies a signaling event on the wire.
type EventType string

const (
	EventJoinRoom     EventType = "join-room"
	EventLeaveRoom    EventType = "leave-room"
	EventOffer        EventType = "webrtc-offer"
	EventAnswer       EventType = "webrtc-answer"
	EventICECandidate EventType = "ice-candidate"

	EventPeerJoined EventType = "peer-joined"
	EventPeerLeft   EventType = "peer-left"
	EventAck        EventType = "ack"
)

// Envelope is the framing for every message in either direction. ID, when
// set on an inbound event, correlates the matching ack.
type Envelope struct {
	Type EventType       `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinRoomRequest asks to join the call room for a visit.
type JoinRoomRequest struct {
	VisitID string `json:"visitId"`
	Role    string `json:"role"`
}

// LeaveRoomRequest asks to leave a previously joined room.
type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
}

// SignalRequest carries an SDP description or ICE candidate to relay. The
// Signal payload is opaque to the server and forwarded untouched.
type SignalRequest struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

// PeerInfo is the public identity of a peer as shown to other room members.
type PeerInfo struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	SocketID string `json:"socketId"`
	Role     string `json:"role"`
}

// Ack is the reply to any inbound event carrying a correlation id.
type Ack struct {
	Success    bool       `json:"success,omitempty"`
	Error      string     `json:"error,omitempty"`
	RoomID     string     `json:"roomId,omitempty"`
	PeerID     string     `json:"peerId,omitempty"`
	OtherPeers []PeerInfo `json:"otherPeers,omitempty"`
}

// PeerJoinedEvent notifies existing room members about a new peer.
type PeerJoinedEvent struct {
	Peer PeerInfo `json:"peer"`
}

// PeerLeftEvent notifies remaining room members that a peer is gone.
type PeerLeftEvent struct {
	PeerID string `json:"peerId"`
	UserID string `json:"userId"`
}

// SignalEvent is the relayed form of an offer/answer/candidate, delivered to
// the target connection with the sender's connection id attached.
type SignalEvent struct {
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

func OkAck() Ack {
	return Ack{Success: true}
}

func ErrorAck(msg string) Ack {
	return Ack{Error: msg}
}

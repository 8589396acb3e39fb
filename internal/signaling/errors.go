package signaling

import "errors"

// Coordinator errors surfaced to clients as ack payloads. The text is what
// the client sees; none of these crash a handler.
var (
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyJoined = errors.New("already connected to a room")
	ErrUnknownPeer   = errors.New("not connected to a room")
	ErrBadSignal     = errors.New("to and signal are required")
	ErrBadJoin       = errors.New("visitId and a valid role are required")
)

package models

import "time"

// RoomInfo is the REST representation of a visit's call room.
type RoomInfo struct {
	RoomID         string    `json:"roomId"`
	VisitID        string    `json:"visitId"`
	PeerCount      int       `json:"peerCount"`
	MaxPeers       int       `json:"maxPeers"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

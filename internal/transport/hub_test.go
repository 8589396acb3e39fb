package transport

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/carebridge-health/televisit-signaling/internal/models"
)

func addTestClient(hub *Hub, id string) *Client {
	c := newClient(id, "user-"+id, hub, nil, nil, zerolog.Nop())
	hub.register(c)
	return c
}

func receive(t *testing.T, c *Client) models.Envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("invalid envelope on the wire: %v", err)
		}
		return env
	default:
		t.Fatal("no message queued")
		return models.Envelope{}
	}
}

func TestSendToConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := addTestClient(hub, "conn-1")

	err := hub.SendToConnection("conn-1", models.EventPeerLeft, models.PeerLeftEvent{PeerID: "p1", UserID: "u1"})
	if err != nil {
		t.Fatalf("SendToConnection() error: %v", err)
	}

	env := receive(t, c)
	if env.Type != models.EventPeerLeft {
		t.Errorf("envelope type = %s, want peer-left", env.Type)
	}
	var evt models.PeerLeftEvent
	if err := json.Unmarshal(env.Data, &evt); err != nil || evt.PeerID != "p1" {
		t.Errorf("envelope data = %s, want peer p1", env.Data)
	}
}

func TestSendToUnknownConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	if err := hub.SendToConnection("conn-ghost", models.EventPeerLeft, nil); err == nil {
		t.Error("send to unknown connection did not error")
	}
}

func TestBroadcastToGroupExcept(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := addTestClient(hub, "conn-a")
	b := addTestClient(hub, "conn-b")
	c := addTestClient(hub, "conn-c")

	hub.JoinGroup("conn-a", "room-1")
	hub.JoinGroup("conn-b", "room-1")
	// conn-c never joins the group.

	hub.BroadcastToGroupExcept("conn-a", "room-1", models.EventPeerJoined, models.PeerJoinedEvent{})

	if len(a.send) != 0 {
		t.Error("excluded connection received the broadcast")
	}
	if env := receive(t, b); env.Type != models.EventPeerJoined {
		t.Errorf("group member got %s, want peer-joined", env.Type)
	}
	if len(c.send) != 0 {
		t.Error("non-member received the broadcast")
	}
}

func TestLeaveGroupStopsBroadcasts(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	addTestClient(hub, "conn-a")
	b := addTestClient(hub, "conn-b")

	hub.JoinGroup("conn-a", "room-1")
	hub.JoinGroup("conn-b", "room-1")
	hub.LeaveGroup("conn-b", "room-1")

	hub.BroadcastToGroupExcept("conn-a", "room-1", models.EventPeerJoined, models.PeerJoinedEvent{})
	if len(b.send) != 0 {
		t.Error("departed member received the broadcast")
	}
}

func TestUnregisterClearsGroups(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := addTestClient(hub, "conn-a")

	hub.JoinGroup("conn-a", "room-1")
	hub.unregister(a)

	if err := hub.SendToConnection("conn-a", models.EventPeerLeft, nil); err == nil {
		t.Error("unregistered connection still reachable")
	}
	if len(hub.groups) != 0 {
		t.Error("group membership leaked after unregister")
	}
}

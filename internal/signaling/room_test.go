package signaling

import (
	"testing"
	"time"
)

func TestRoomIDForVisitDeterministic(t *testing.T) {
	a := RoomIDForVisit("visit-1")
	b := RoomIDForVisit("visit-1")
	if a != b {
		t.Errorf("RoomIDForVisit() not stable: %s vs %s", a, b)
	}
	if RoomIDForVisit("visit-2") == a {
		t.Error("different visits derived the same room id")
	}
}

func TestRoomForVisitIdempotent(t *testing.T) {
	reg := NewRoomRegistry(2)

	roomID := reg.RoomForVisit("visit-1")
	for i := 0; i < 5; i++ {
		if got := reg.RoomForVisit("visit-1"); got != roomID {
			t.Fatalf("RoomForVisit() call %d = %s, want %s", i, got, roomID)
		}
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d after repeated resolution, want 1", reg.Len())
	}
}

func TestRoomForVisitSurvivesReap(t *testing.T) {
	reg := NewRoomRegistry(2)

	roomID := reg.RoomForVisit("visit-1")
	reg.MarkEmptyIfIdle(roomID, 0)
	reaped := reg.ReapStale(0, time.Now().Add(time.Second))
	if len(reaped) != 1 || reaped[0] != roomID {
		t.Fatalf("ReapStale() = %v, want [%s]", reaped, roomID)
	}

	// Recreation converges on the same id.
	if got := reg.RoomForVisit("visit-1"); got != roomID {
		t.Errorf("RoomForVisit() after reap = %s, want %s", got, roomID)
	}
	room := reg.Get(roomID)
	if room == nil {
		t.Fatal("Get() returned nil for recreated room")
	}
	if !room.EmptySince.IsZero() {
		t.Error("recreated room inherited an EmptySince mark")
	}
}

func TestTouchClearsEmptySince(t *testing.T) {
	reg := NewRoomRegistry(2)
	roomID := reg.RoomForVisit("visit-1")

	reg.MarkEmptyIfIdle(roomID, 0)
	if reg.Get(roomID).EmptySince.IsZero() {
		t.Fatal("MarkEmptyIfIdle() did not set EmptySince")
	}

	reg.Touch(roomID)
	room := reg.Get(roomID)
	if !room.EmptySince.IsZero() {
		t.Error("Touch() did not clear EmptySince")
	}
	if room.LastActivityAt.Before(room.CreatedAt) {
		t.Error("Touch() did not advance LastActivityAt")
	}
}

func TestMarkEmptyIfIdle(t *testing.T) {
	reg := NewRoomRegistry(2)
	roomID := reg.RoomForVisit("visit-1")

	// One peer still present: not marked.
	reg.MarkEmptyIfIdle(roomID, 1)
	if !reg.Get(roomID).EmptySince.IsZero() {
		t.Error("MarkEmptyIfIdle() marked a room with peers")
	}

	reg.MarkEmptyIfIdle(roomID, 0)
	first := reg.Get(roomID).EmptySince
	if first.IsZero() {
		t.Fatal("MarkEmptyIfIdle() did not mark a drained room")
	}

	// A second drain does not reset the clock.
	reg.MarkEmptyIfIdle(roomID, 0)
	if !reg.Get(roomID).EmptySince.Equal(first) {
		t.Error("MarkEmptyIfIdle() reset an existing mark")
	}
}

func TestAtCapacity(t *testing.T) {
	reg := NewRoomRegistry(2)
	roomID := reg.RoomForVisit("visit-1")

	if reg.AtCapacity(roomID, 0) || reg.AtCapacity(roomID, 1) {
		t.Error("AtCapacity() true below the limit")
	}
	if !reg.AtCapacity(roomID, 2) {
		t.Error("AtCapacity() false at the limit")
	}
}

func TestReapStaleThreshold(t *testing.T) {
	reg := NewRoomRegistry(2)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return base }

	grace := 30 * time.Minute
	roomID := reg.RoomForVisit("visit-1")
	reg.MarkEmptyIfIdle(roomID, 0)

	// Empty for just under the grace period: kept.
	if reaped := reg.ReapStale(grace, base.Add(grace-time.Second)); len(reaped) != 0 {
		t.Errorf("ReapStale() before threshold reaped %v", reaped)
	}
	// Exactly at the grace period: still kept.
	if reaped := reg.ReapStale(grace, base.Add(grace)); len(reaped) != 0 {
		t.Errorf("ReapStale() at threshold reaped %v", reaped)
	}
	// Past the grace period: reaped.
	reaped := reg.ReapStale(grace, base.Add(grace+time.Second))
	if len(reaped) != 1 || reaped[0] != roomID {
		t.Errorf("ReapStale() past threshold = %v, want [%s]", reaped, roomID)
	}
	if reg.Get(roomID) != nil {
		t.Error("reaped room still resolvable")
	}
}

func TestReapStaleIgnoresOccupiedRooms(t *testing.T) {
	reg := NewRoomRegistry(2)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return base }

	roomID := reg.RoomForVisit("visit-1")
	// Never marked empty: an active call, however old, is not stale.
	if reaped := reg.ReapStale(30*time.Minute, base.Add(48*time.Hour)); len(reaped) != 0 {
		t.Errorf("ReapStale() evicted an occupied room: %v", reaped)
	}
	if reg.Get(roomID) == nil {
		t.Error("occupied room disappeared")
	}
}

func TestDelete(t *testing.T) {
	reg := NewRoomRegistry(2)
	roomID := reg.RoomForVisit("visit-1")

	reg.Delete(roomID)
	if reg.Get(roomID) != nil {
		t.Error("Get() returned a deleted room")
	}
	reg.Delete(roomID) // deleting twice is a no-op
}

package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFirstDelivery(t *testing.T) {
	d := NewDeduper(nil, time.Hour, zerolog.Nop())

	if !d.FirstDelivery(context.Background(), "evt_1") {
		t.Error("first delivery reported as duplicate")
	}
	if d.FirstDelivery(context.Background(), "evt_1") {
		t.Error("second delivery reported as first")
	}
	if !d.FirstDelivery(context.Background(), "evt_2") {
		t.Error("unrelated event reported as duplicate")
	}
}

func TestFirstDeliveryTTLExpiry(t *testing.T) {
	d := NewDeduper(nil, time.Hour, zerolog.Nop())
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return base }

	d.FirstDelivery(context.Background(), "evt_1")

	// Still inside the TTL: duplicate.
	d.now = func() time.Time { return base.Add(59 * time.Minute) }
	if d.FirstDelivery(context.Background(), "evt_1") {
		t.Error("delivery within TTL reported as first")
	}

	// Past the TTL the id may be seen again.
	d.now = func() time.Time { return base.Add(2 * time.Hour) }
	if !d.FirstDelivery(context.Background(), "evt_1") {
		t.Error("delivery past TTL reported as duplicate")
	}
}

package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Deduper answers whether a webhook delivery id has been seen before.
// Providers retry deliveries aggressively, so the first-delivery check must
// hold across replicas; Redis SET NX with a TTL gives that. Without Redis
// it degrades to a process-local map with the same TTL semantics.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
	now func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Deduper {
	return &Deduper{
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "webhook-dedupe").Logger(),
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

// FirstDelivery records eventID and reports whether this is the first time
// it has been seen within the TTL.
func (d *Deduper) FirstDelivery(ctx context.Context, eventID string) bool {
	if d.rdb != nil {
		first, err := d.rdb.SetNX(ctx, "webhook:event:"+eventID, "1", d.ttl).Result()
		if err == nil {
			return first
		}
		d.log.Warn().Err(err).Msg("redis dedupe check failed, using in-memory fallback")
	}
	return d.firstLocal(eventID)
}

func (d *Deduper) firstLocal(eventID string) bool {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()

	// Expire old entries inline; the map stays small at webhook volumes.
	for id, at := range d.seen {
		if now.Sub(at) > d.ttl {
			delete(d.seen, id)
		}
	}

	if at, exists := d.seen[eventID]; exists && now.Sub(at) <= d.ttl {
		return false
	}
	d.seen[eventID] = now
	return true
}

package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/carebridge-health/televisit-signaling/internal/metrics"
)

// Config for one limit class.
type Config struct {
	Max    int           // requests allowed per window
	Window time.Duration // fixed window length
	Block  time.Duration // how long a key stays blocked after exceeding; 0 disables blocking
}

// Limiter enforces per-key request limits. With a Redis client it uses
// fixed-window counters shared across replicas; without one it degrades to
// process-local token buckets.
type Limiter struct {
	rdb *redis.Client
	cfg Config
	log zerolog.Logger
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*localBucket
}

type localBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func New(rdb *redis.Client, cfg Config, log zerolog.Logger) *Limiter {
	l := &Limiter{
		rdb:     rdb,
		cfg:     cfg,
		log:     log.With().Str("component", "ratelimit").Logger(),
		now:     time.Now,
		buckets: make(map[string]*localBucket),
	}
	go l.gc()
	return l
}

// Allow reports whether the request identified by key may proceed.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l.rdb != nil {
		allowed, err := l.allowRedis(ctx, key)
		if err == nil {
			return allowed
		}
		l.log.Warn().Err(err).Msg("redis rate limit check failed, using in-memory fallback")
	}
	return l.allowLocal(key)
}

func (l *Limiter) allowRedis(ctx context.Context, key string) (bool, error) {
	blockKey := "ratelimit:block:" + key
	blocked, err := l.rdb.Exists(ctx, blockKey).Result()
	if err != nil {
		return false, err
	}
	if blocked > 0 {
		return false, nil
	}

	windowStart := l.now().Unix() / int64(l.cfg.Window.Seconds())
	countKey := fmt.Sprintf("ratelimit:%s:%d", key, windowStart)

	count, err := l.rdb.Incr(ctx, countKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		l.rdb.Expire(ctx, countKey, l.cfg.Window)
	}
	if count > int64(l.cfg.Max) {
		if l.cfg.Block > 0 {
			l.rdb.Set(ctx, blockKey, "1", l.cfg.Block)
			l.log.Warn().Str("key", key).Dur("block", l.cfg.Block).Msg("rate limit exceeded, key blocked")
		}
		return false, nil
	}
	return true, nil
}

func (l *Limiter) allowLocal(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		perSecond := rate.Limit(float64(l.cfg.Max) / l.cfg.Window.Seconds())
		b = &localBucket{lim: rate.NewLimiter(perSecond, l.cfg.Max)}
		l.buckets[key] = b
	}
	b.lastSeen = l.now()
	return b.lim.Allow()
}

func (l *Limiter) gc() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := l.now().Add(-2 * l.cfg.Window)
		l.mu.Lock()
		for key, b := range l.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware rejects over-limit requests with 429, keyed by client IP and
// route. class labels the rejection metric.
func Middleware(l *Limiter, class string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := class + "|" + clientIP(c.Request.RemoteAddr) + "|" + c.FullPath()
		if !l.Allow(c.Request.Context(), key) {
			metrics.RateLimited.WithLabelValues(class).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			return
		}
		c.Next()
	}
}

func clientIP(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}

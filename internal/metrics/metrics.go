package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActivePeers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signaling_active_peers",
		Help: "Current number of peers connected to a room",
	})
	ActiveRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signaling_active_rooms",
		Help: "Current number of tracked rooms",
	})
	JoinsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signaling_joins_total",
		Help: "Total number of successful room joins",
	})
	JoinFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signaling_join_failures_total",
		Help: "Total number of rejected room joins",
	}, []string{"reason"})
	SignalsRelayed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signaling_messages_relayed_total",
		Help: "Total number of offer/answer/candidate messages relayed",
	})
	RelayFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signaling_relay_failures_total",
		Help: "Total number of relays that could not be delivered",
	})
	RoomsReaped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signaling_rooms_reaped_total",
		Help: "Total number of stale rooms evicted by the reaper",
	})
	WebhookDuplicates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_duplicate_deliveries_total",
		Help: "Total number of webhook deliveries dropped as duplicates",
	})
	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_rejections_total",
		Help: "Total number of requests rejected by the rate limiter",
	}, []string{"class"})
)

func init() {
	prometheus.MustRegister(
		ActivePeers, ActiveRooms, JoinsTotal, JoinFailuresTotal,
		SignalsRelayed, RelayFailures, RoomsReaped,
		WebhookDuplicates, RateLimited,
	)
}

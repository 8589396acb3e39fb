package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/carebridge-health/televisit-signaling/internal/metrics"
)

type delivery struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Receive is the inbound webhook endpoint. It only guards idempotency:
// duplicates are acknowledged without reprocessing so the provider stops
// retrying, and first deliveries are handed off for processing downstream.
// Both cases return 200; webhook providers treat anything else as a failed
// delivery and retry.
func Receive(d *Deduper, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "webhook").Logger()
	return func(c *gin.Context) {
		source := c.Param("source")

		var ev delivery
		if err := c.ShouldBindJSON(&ev); err != nil || ev.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event id is required"})
			return
		}

		if !d.FirstDelivery(c.Request.Context(), ev.ID) {
			metrics.WebhookDuplicates.Inc()
			log.Info().
				Str("source", source).
				Str("event_id", ev.ID).
				Str("event_type", ev.Type).
				Msg("duplicate webhook delivery ignored")
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}

		log.Info().
			Str("source", source).
			Str("event_id", ev.ID).
			Str("event_type", ev.Type).
			Msg("webhook delivery accepted")
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

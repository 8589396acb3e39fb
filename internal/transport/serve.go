package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/carebridge-health/televisit-signaling/internal/signaling"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

// Serve upgrades an authenticated request to a websocket connection and
// starts its pumps. JWT middleware must have run first; the user id comes
// from the gin context.
func Serve(hub *Hub, coord *signaling.Coordinator, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("failed to upgrade connection")
			return
		}

		client := newClient(uuid.New().String(), userID.(string), hub, coord, conn, log)
		hub.register(client)
		client.log.Info().Msg("websocket connected")

		go client.writePump()
		go client.readPump()
	}
}

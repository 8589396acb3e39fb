package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carebridge-health/televisit-signaling/internal/models"
	"github.com/carebridge-health/televisit-signaling/internal/signaling"
)

// GetVisitRoom reports the call room for a visit: its derived id and live
// occupancy. Rooms are created lazily on join, so an unknown room simply
// means no one has joined yet.
func GetVisitRoom(rooms *signaling.RoomRegistry, peers *signaling.PeerRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitID := c.Param("visitId")
		if visitID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "visitId is required"})
			return
		}

		roomID := signaling.RoomIDForVisit(visitID)
		room := rooms.Get(roomID)
		if room == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active room for visit"})
			return
		}

		c.JSON(http.StatusOK, models.RoomInfo{
			RoomID:         room.ID,
			VisitID:        room.VisitID,
			PeerCount:      peers.CountInRoom(room.ID),
			MaxPeers:       rooms.Capacity(),
			CreatedAt:      room.CreatedAt,
			LastActivityAt: room.LastActivityAt,
		})
	}
}

package transport

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/carebridge-health/televisit-signaling/internal/models"
	"github.com/carebridge-health/televisit-signaling/internal/signaling"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // enough for any SDP payload
)

// Client wraps one websocket connection. ID doubles as the connection id
// the coordinator routes by.
type Client struct {
	ID     string
	UserID string

	hub   *Hub
	coord *signaling.Coordinator
	conn  *websocket.Conn
	send  chan []byte
	log   zerolog.Logger
}

func newClient(id, userID string, hub *Hub, coord *signaling.Coordinator, conn *websocket.Conn, log zerolog.Logger) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		hub:    hub,
		coord:  coord,
		conn:   conn,
		send:   make(chan []byte, 256),
		log:    log.With().Str("connection_id", id).Str("user_id", userID).Logger(),
	}
}

func (c *Client) enqueue(event models.EventType, id string, payload any) error {
	data, err := marshalEnvelope(event, id, payload)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

// readPump reads inbound envelopes and dispatches them to the coordinator.
// Teardown funnels through the coordinator's disconnect path so a dropped
// socket cleans up exactly like an explicit leave.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		c.coord.Disconnect(c.ID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.log.Warn().Err(err).Msg("failed to parse message")
			continue
		}

		ack := c.dispatch(env)
		if env.ID != "" {
			if err := c.enqueue(models.EventAck, env.ID, ack); err != nil {
				c.log.Warn().Err(err).Str("event", string(env.Type)).Msg("failed to deliver ack")
			}
		}
	}
}

// dispatch routes one inbound event. Every path produces exactly one ack
// value; a panicking handler is converted to a generic error ack so the
// client's pending request never hangs.
func (c *Client) dispatch(env models.Envelope) (ack models.Ack) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error().
				Interface("panic", rec).
				Str("event", string(env.Type)).
				Msg("handler panicked")
			ack = models.ErrorAck("internal error")
		}
	}()

	switch env.Type {
	case models.EventJoinRoom:
		var req models.JoinRoomRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return models.ErrorAck("invalid join-room payload")
		}
		return c.coord.JoinRoom(c.ID, c.UserID, req)

	case models.EventLeaveRoom:
		var req models.LeaveRoomRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return models.ErrorAck("invalid leave-room payload")
		}
		return c.coord.LeaveRoom(c.ID, req)

	case models.EventOffer, models.EventAnswer, models.EventICECandidate:
		var req models.SignalRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return models.ErrorAck("invalid signal payload")
		}
		return c.coord.Relay(env.Type, c.ID, req)

	default:
		return models.ErrorAck("unknown event type")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Warn().Err(err).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

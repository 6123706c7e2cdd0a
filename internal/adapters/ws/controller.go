// Package ws carries the streaming side of the relay: admission of a
// websocket into a room and the per-connection read loop that feeds
// the broadcast paths.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"voicerelay/internal/auth"
	"voicerelay/internal/core"
	"voicerelay/internal/domain"
	"voicerelay/internal/users"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Manager      *core.Manager
	Verifier     *auth.Verifier
	Users        *users.Directory
	ReadLimit    int64
	WriteTimeout time.Duration
}

// HandleVoice upgrades the connection, authenticates it, admits it
// into the room and runs the read loop until disconnection. The
// manager performs no authentication of its own; everything it is told
// about the caller's identity is established here first.
func (ctl *Controller) HandleVoice(c *gin.Context) {
	roomID := domain.RoomID(c.Param("room_id"))

	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("websocket upgrade failed")
		return
	}
	conn := newConn(raw, ctl.WriteTimeout)

	user, err := ctl.authenticate(c.Query("token"))
	if err != nil {
		log.Warn().Str("module", "ws").Str("room", string(roomID)).Msg("websocket authentication failed")
		conn.closeWith(websocket.ClosePolicyViolation, "Authentication required")
		return
	}

	name := user.DisplayName()
	if err := ctl.Manager.Connect(conn, roomID, user.ID, name); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("room", string(roomID)).Int64("user", int64(user.ID)).Msg("join refused")
		conn.closeWith(websocket.CloseInternalServerErr, err.Error())
		return
	}

	raw.SetReadLimit(ctl.ReadLimit)
	ctl.readLoop(conn, roomID, user.ID)
}

// authenticate resolves the query token to a known user. A valid token
// whose subject has no user record is refused the same as a bad token.
func (ctl *Controller) authenticate(token string) (*domain.User, error) {
	userID, err := ctl.Verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	user, ok := ctl.Users.Lookup(userID)
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return user, nil
}

// readLoop classifies each inbound frame: binary is media and fans out
// to the rest of the room, text is a control message. It runs until
// the transport reports disconnection, then cleans up membership and
// announces the leave.
func (ctl *Controller) readLoop(conn *conn, roomID domain.RoomID, userID domain.UserID) {
	defer conn.Close()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "ws").Str("room", string(roomID)).Int64("user", int64(userID)).Msg("connection dropped")
			} else {
				log.Info().Str("module", "ws").Str("room", string(roomID)).Int64("user", int64(userID)).Msg("connection closed")
			}
			// Scoped to this connection: if the user already re-joined
			// on a new socket, this cleanup must not touch the fresh
			// registration, and there is no leave to announce.
			if ctl.Manager.DisconnectConn(conn, userID, roomID) {
				if _, ok := ctl.Manager.GetRoomStatus(roomID); ok {
					ctl.Manager.BroadcastStatus(roomID, userID, core.EventUserLeft)
				}
			}
			return
		}

		switch mt {
		case websocket.BinaryMessage:
			ctl.Manager.Broadcast(core.Frame(data), roomID, userID)
		case websocket.TextMessage:
			ctl.handleControl(conn, roomID, userID, data)
		}
	}
}

type controlMessage struct {
	Type string `json:"type"`
}

type statusReply struct {
	Event string          `json:"event"`
	Room  core.RoomStatus `json:"room"`
}

// handleControl dispatches a text frame. A status_request gets a
// direct reply to the requester only, never a broadcast.
func (ctl *Controller) handleControl(conn *conn, roomID domain.RoomID, userID domain.UserID, data []byte) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("module", "ws").Int64("user", int64(userID)).Msg("bad control message")
		return
	}

	switch msg.Type {
	case "status_request":
		status, ok := ctl.Manager.GetRoomStatus(roomID)
		if !ok {
			return
		}
		reply, err := json.Marshal(statusReply{Event: core.EventStatus, Room: status})
		if err != nil {
			log.Error().Err(err).Str("module", "ws").Msg("marshal status reply")
			return
		}
		if err := conn.SendText(reply); err != nil {
			log.Warn().Err(err).Str("module", "ws").Int64("user", int64(userID)).Msg("status reply failed")
		}
	default:
		log.Debug().Str("module", "ws").Str("type", msg.Type).Msg("ignoring unknown control message")
	}
}

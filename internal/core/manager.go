package core

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"voicerelay/internal/domain"
)

// Manager owns every room in the process and is the single writer of
// room membership and the user->room table, so the two can never
// diverge. All mutation funnels through Connect/Disconnect.
type Manager struct {
	mu        sync.RWMutex
	rooms     map[domain.RoomID]*Room
	userRooms map[domain.UserID]domain.RoomID
	// order preserves room creation order for listings.
	order []domain.RoomID
}

func NewManager() *Manager {
	return &Manager{
		rooms:     make(map[domain.RoomID]*Room),
		userRooms: make(map[domain.UserID]domain.RoomID),
	}
}

// CreateRoom allocates a new room. It cannot fail: ids are generated
// collision-free.
func (m *Manager) CreateRoom(createdBy domain.UserID, name string) domain.RoomID {
	id := domain.RoomID(uuid.NewString())
	room := NewRoom(id, createdBy, name)
	m.mu.Lock()
	m.rooms[id] = room
	m.order = append(m.order, id)
	m.mu.Unlock()
	log.Info().Str("module", "core.manager").Str("room", string(id)).Int64("user", int64(createdBy)).Msg("room created")
	return id
}

// Connect admits a participant into a room and announces the join.
// This is the sole point where a participant becomes visible to others.
// A connection superseded by a re-join, or left behind in a previous
// room, is closed here rather than leaked.
func (m *Manager) Connect(conn Conn, roomID domain.RoomID, userID domain.UserID, name string) error {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return ErrRoomNotFound
	}
	if !room.IsActive() {
		m.mu.Unlock()
		return ErrRoomInactive
	}

	// A user occupies at most one room at a time: pull them out of the
	// previous room before registering the new membership.
	var stale Conn
	if prevID, ok := m.userRooms[userID]; ok && prevID != roomID {
		if prev, ok := m.rooms[prevID]; ok {
			if c, removed := prev.RemoveParticipant(userID); removed {
				stale = c
			}
			if prev.ParticipantCount() == 0 && prev.IsActive() {
				prev.setInactive()
				log.Info().Str("module", "core.manager").Str("room", string(prevID)).Msg("room empty, closed")
			}
		}
	}

	superseded := room.AddParticipant(userID, name, conn)
	m.userRooms[userID] = roomID
	m.mu.Unlock()

	if stale != nil {
		_ = stale.Close()
	}
	if superseded != nil {
		log.Info().Str("module", "core.manager").Str("room", string(roomID)).Int64("user", int64(userID)).Msg("closing superseded connection")
		_ = superseded.Close()
	}

	log.Info().Str("module", "core.manager").Str("room", string(roomID)).Int64("user", int64(userID)).Str("name", name).Msg("user joined room")
	m.BroadcastStatus(roomID, userID, EventUserJoined)
	return nil
}

// Disconnect removes the participant and flips the room inactive when
// it empties. Calling it twice for the same pair is a no-op the second
// time. It does not announce the leave; that is the caller's call,
// depending on whether the disconnect was graceful.
func (m *Manager) Disconnect(userID domain.UserID, roomID domain.RoomID) {
	m.disconnect(userID, roomID, nil)
}

// DisconnectConn is Disconnect scoped to one specific connection: the
// record is removed only if conn is still the registered connection
// for userID, so the cleanup of a superseded read loop cannot evict a
// fresh re-join. Reports whether the participant was removed.
func (m *Manager) DisconnectConn(conn Conn, userID domain.UserID, roomID domain.RoomID) bool {
	return m.disconnect(userID, roomID, conn)
}

func (m *Manager) disconnect(userID domain.UserID, roomID domain.RoomID, only Conn) bool {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	_, removed := room.removeParticipantIf(userID, only)
	if removed {
		if cur, ok := m.userRooms[userID]; ok && cur == roomID {
			delete(m.userRooms, userID)
		}
	}
	emptied := removed && room.ParticipantCount() == 0 && room.IsActive()
	if emptied {
		room.setInactive()
	}
	m.mu.Unlock()

	if removed {
		log.Info().Str("module", "core.manager").Str("room", string(roomID)).Int64("user", int64(userID)).Msg("user left room")
	}
	if emptied {
		log.Info().Str("module", "core.manager").Str("room", string(roomID)).Msg("room empty, closed")
	}
	return removed
}

// Broadcast delivers a media frame to every participant except the
// sender. Fire-and-forget: each send is attempted independently and a
// failing recipient never aborts delivery to the others.
func (m *Manager) Broadcast(data Frame, roomID domain.RoomID, senderID domain.UserID) {
	room := m.room(roomID)
	if room == nil || !room.IsActive() {
		return
	}
	m.fanOut(room.recipientsExcept(senderID), roomID, func(c Conn) error {
		return c.SendBinary(data)
	})
}

// BroadcastStatus pushes a status envelope to every current member of
// the room, including the trigger.
func (m *Manager) BroadcastStatus(roomID domain.RoomID, triggerID domain.UserID, event string) {
	room := m.room(roomID)
	if room == nil || !room.IsActive() {
		return
	}
	msg, err := json.Marshal(StatusEvent{
		Event:         event,
		Timestamp:     time.Now(),
		Room:          room.Status(),
		TriggerUserID: triggerID,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "core.manager").Str("room", string(roomID)).Msg("marshal status event")
		return
	}
	m.fanOut(room.allRecipients(), roomID, func(c Conn) error {
		return c.SendText(msg)
	})
}

// fanOut attempts delivery to each target on its own goroutine and
// joins before returning. Failures are logged per recipient, never
// propagated.
func (m *Manager) fanOut(targets []delivery, roomID domain.RoomID, send func(Conn) error) {
	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(t delivery) {
			defer wg.Done()
			if err := send(t.conn); err != nil {
				log.Warn().Err(err).Str("module", "core.manager").Str("room", string(roomID)).Int64("user", int64(t.user)).Msg("delivery failed")
			}
		}(t)
	}
	wg.Wait()
}

// EndRoom flips the room inactive. Only the creator may end a room.
// Takes the manager lock so the flip cannot interleave with a
// concurrent Connect's active check.
func (m *Manager) EndRoom(roomID domain.RoomID, byUser domain.UserID) error {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return ErrRoomNotFound
	}
	if room.Meta().CreatedBy != byUser {
		m.mu.Unlock()
		return ErrNotCreator
	}
	room.setInactive()
	m.mu.Unlock()
	log.Info().Str("module", "core.manager").Str("room", string(roomID)).Int64("user", int64(byUser)).Msg("room ended")
	return nil
}

func (m *Manager) GetRoomStatus(roomID domain.RoomID) (RoomStatus, bool) {
	room := m.room(roomID)
	if room == nil {
		return RoomStatus{}, false
	}
	return room.Status(), true
}

// ListActiveRooms returns the status of every active room, in creation
// order.
func (m *Manager) ListActiveRooms() []RoomStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomStatus, 0, len(m.rooms))
	for _, id := range m.order {
		room := m.rooms[id]
		if room.IsActive() {
			out = append(out, room.Status())
		}
	}
	return out
}

func (m *Manager) GetUserRoom(userID domain.UserID) (domain.RoomID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.userRooms[userID]
	return id, ok
}

func (m *Manager) room(roomID domain.RoomID) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID]
}

package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"voicerelay/internal/domain"
)

type participant struct {
	name     string
	conn     Conn
	joinedAt time.Time
}

// Room is a threadsafe in-memory call room. It holds membership but
// never closes adapter-owned connections; superseded connections are
// handed back to the caller to deal with.
type Room struct {
	meta domain.Room

	mu      sync.RWMutex
	active  bool
	members map[domain.UserID]*participant
	// order preserves insertion order for status snapshots.
	order []domain.UserID
}

func NewRoom(id domain.RoomID, createdBy domain.UserID, name string) *Room {
	if name == "" {
		short := string(id)
		if len(short) > 8 {
			short = short[:8]
		}
		name = "Room " + short
	}
	return &Room{
		meta: domain.Room{
			ID:        id,
			Name:      name,
			CreatedBy: createdBy,
			CreatedAt: time.Now(),
		},
		active:  true,
		members: make(map[domain.UserID]*participant),
	}
}

func (r *Room) Meta() domain.Room { return r.meta }

func (r *Room) IsActive() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// setInactive is one-way: an inactive room is never reactivated.
func (r *Room) setInactive() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
}

func (r *Room) ParticipantCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// AddParticipant inserts or replaces the record for id. When the same
// identity re-joins, the superseded connection is returned so the
// caller can close it instead of leaking it.
func (r *Room) AddParticipant(id domain.UserID, name string, conn Conn) (superseded Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.members[id]; ok {
		superseded = prev.conn
	} else {
		r.order = append(r.order, id)
	}
	r.members[id] = &participant{name: name, conn: conn, joinedAt: time.Now()}
	log.Info().Str("module", "core.room").Str("room", string(r.meta.ID)).Int64("user", int64(id)).Msg("participant added")
	return superseded
}

// RemoveParticipant removes the record if present, returning its
// connection; a no-op otherwise.
func (r *Room) RemoveParticipant(id domain.UserID) (Conn, bool) {
	return r.removeParticipantIf(id, nil)
}

// removeParticipantIf removes the record only when only is nil or is
// the currently registered connection. A stale cleanup from a
// superseded connection must not evict a fresh re-join.
func (r *Room) removeParticipantIf(id domain.UserID, only Conn) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.members[id]
	if !ok {
		return nil, false
	}
	if only != nil && p.conn != only {
		return nil, false
	}
	delete(r.members, id)
	for i, uid := range r.order {
		if uid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "core.room").Str("room", string(r.meta.ID)).Int64("user", int64(id)).Msg("participant removed")
	return p.conn, true
}

// Status produces the snapshot used by every status-bearing response.
// Participants come back in insertion order.
func (r *Room) Status() RoomStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	participants := make([]ParticipantStatus, 0, len(r.members))
	for _, id := range r.order {
		p := r.members[id]
		participants = append(participants, ParticipantStatus{
			UserID:   id,
			Name:     p.name,
			JoinedAt: p.joinedAt,
		})
	}
	return RoomStatus{
		RoomID:           r.meta.ID,
		RoomName:         r.meta.Name,
		CreatedBy:        r.meta.CreatedBy,
		CreatedAt:        r.meta.CreatedAt,
		IsActive:         r.active,
		ParticipantCount: len(r.members),
		Participants:     participants,
		RecordingEnabled: r.meta.RecordingEnabled,
	}
}

type delivery struct {
	user domain.UserID
	conn Conn
}

// recipientsExcept snapshots the current member connections, skipping
// the given identity.
func (r *Room) recipientsExcept(skip domain.UserID) []delivery {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]delivery, 0, len(r.members))
	for id, p := range r.members {
		if id == skip {
			continue
		}
		out = append(out, delivery{user: id, conn: p.conn})
	}
	return out
}

// allRecipients snapshots every member connection.
func (r *Room) allRecipients() []delivery {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]delivery, 0, len(r.members))
	for id, p := range r.members {
		out = append(out, delivery{user: id, conn: p.conn})
	}
	return out
}

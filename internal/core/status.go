package core

import (
	"time"

	"voicerelay/internal/domain"
)

// Status event types pushed to room members as text frames.
const (
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
	EventStatus     = "status"
)

// ParticipantStatus is the read-only view of one member (no transport fields).
type ParticipantStatus struct {
	UserID   domain.UserID `json:"user_id"`
	Name     string        `json:"name"`
	JoinedAt time.Time     `json:"joined_at"`
}

// RoomStatus is the wire representation of a room used by every
// status-bearing response and broadcast event.
type RoomStatus struct {
	RoomID           domain.RoomID       `json:"room_id"`
	RoomName         string              `json:"room_name"`
	CreatedBy        domain.UserID       `json:"created_by"`
	CreatedAt        time.Time           `json:"created_at"`
	IsActive         bool                `json:"is_active"`
	ParticipantCount int                 `json:"participant_count"`
	Participants     []ParticipantStatus `json:"participants"`
	RecordingEnabled bool                `json:"recording_enabled"`
}

// StatusEvent is the envelope broadcast to all members on join/leave.
type StatusEvent struct {
	Event         string        `json:"event"`
	Timestamp     time.Time     `json:"timestamp"`
	Room          RoomStatus    `json:"room"`
	TriggerUserID domain.UserID `json:"trigger_user_id"`
}

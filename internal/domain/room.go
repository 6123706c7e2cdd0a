package domain

import "time"

type RoomID string

// Room is the immutable identity of a call. Membership and the active
// flag are runtime state and live in core.
type Room struct {
	ID               RoomID
	Name             string
	CreatedBy        UserID
	CreatedAt        time.Time
	RecordingEnabled bool
}

package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerelay/internal/core"
	"voicerelay/internal/domain"
)

func TestNewRoomDefaultsNameFromID(t *testing.T) {
	room := core.NewRoom("a1b2c3d4-0000-0000-0000-000000000000", 1, "")
	assert.Equal(t, "Room a1b2c3d4", room.Meta().Name)

	named := core.NewRoom("whatever", 1, "Standup")
	assert.Equal(t, "Standup", named.Meta().Name)

	short := core.NewRoom("abc", 1, "")
	assert.Equal(t, "Room abc", short.Meta().Name)
}

func TestAddParticipantReplacesAndReportsSuperseded(t *testing.T) {
	room := core.NewRoom("r", 1, "")

	old := &fakeConn{}
	assert.Nil(t, room.AddParticipant(2, "Bob", old))
	assert.Equal(t, 1, room.ParticipantCount())

	fresh := &fakeConn{}
	superseded := room.AddParticipant(2, "Bobby", fresh)
	assert.Same(t, core.Conn(old), superseded)
	assert.Equal(t, 1, room.ParticipantCount())

	status := room.Status()
	require.Len(t, status.Participants, 1)
	assert.Equal(t, "Bobby", status.Participants[0].Name)
}

func TestRemoveParticipantNoop(t *testing.T) {
	room := core.NewRoom("r", 1, "")
	_, ok := room.RemoveParticipant(99)
	assert.False(t, ok)

	c := &fakeConn{}
	room.AddParticipant(2, "Bob", c)
	got, ok := room.RemoveParticipant(2)
	require.True(t, ok)
	assert.Same(t, core.Conn(c), got)
	assert.Equal(t, 0, room.ParticipantCount())
}

func TestStatusKeepsInsertionOrder(t *testing.T) {
	room := core.NewRoom("r", 1, "")
	room.AddParticipant(10, "A", &fakeConn{})
	room.AddParticipant(11, "B", &fakeConn{})
	room.AddParticipant(12, "C", &fakeConn{})

	ids := func() []domain.UserID {
		var out []domain.UserID
		for _, p := range room.Status().Participants {
			out = append(out, p.UserID)
		}
		return out
	}
	assert.Equal(t, []domain.UserID{10, 11, 12}, ids())

	room.RemoveParticipant(11)
	room.AddParticipant(13, "D", &fakeConn{})
	assert.Equal(t, []domain.UserID{10, 12, 13}, ids())
}

func TestStatusSnapshot(t *testing.T) {
	room := core.NewRoom("room-1", 7, "Planning")
	room.AddParticipant(2, "Bob", &fakeConn{})

	status := room.Status()
	assert.Equal(t, domain.RoomID("room-1"), status.RoomID)
	assert.Equal(t, "Planning", status.RoomName)
	assert.Equal(t, domain.UserID(7), status.CreatedBy)
	assert.False(t, status.CreatedAt.IsZero())
	assert.True(t, status.IsActive)
	assert.Equal(t, 1, status.ParticipantCount)
	assert.False(t, status.RecordingEnabled)
	assert.False(t, status.Participants[0].JoinedAt.IsZero())
}

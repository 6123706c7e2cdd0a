package core

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomInactive = errors.New("room is not active")
	ErrNotCreator   = errors.New("only the room creator may end the room")
)

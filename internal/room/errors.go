package room

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotInRoom     = errors.New("connection is not in a room")
	ErrAlreadyInRoom = errors.New("connection is already in a room")
	// ErrConnectionGone is returned when a connection asks to enter a room
	// after its departure has already run.
	ErrConnectionGone = errors.New("connection is no longer registered")
	// ErrSnapshotUndelivered means the joiner never received the room
	// snapshot, so the join was not applied.
	ErrSnapshotUndelivered = errors.New("room snapshot could not be delivered")
)

package signaling

import "errors"

var (
	// ErrRoomNotFound is returned when joining an unknown or closed room.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomFull is returned when joining a room with all four slots occupied.
	ErrRoomFull = errors.New("room is full")

	// ErrCodesExhausted is returned by Allocate when every possible code is
	// live. Not expected outside of misconfiguration.
	ErrCodesExhausted = errors.New("room codes exhausted")
)

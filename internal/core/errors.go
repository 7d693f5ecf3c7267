package core

import "errors"

// Error codes for registry failures, used in logs and transport replies.
const (
	ErrCodeCapacityExceeded  = "capacity_exceeded"
	ErrCodeAlreadyExists     = "already_exists"
	ErrCodeUnknownClient     = "unknown_client"
	ErrCodeUnknownRoom       = "unknown_room"
	ErrCodeRoomFull          = "room_full"
	ErrCodeAlreadyInRoom     = "already_in_room"
	ErrCodeNotInRoom         = "not_in_room"
	ErrCodeRoomQuotaExceeded = "room_quota_exceeded"
)

var (
	// ErrCapacityExceeded means the global client table is full.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrAlreadyExists means a client id is already registered.
	ErrAlreadyExists = errors.New("client already exists")
	// ErrUnknownClient means the client id is not registered.
	ErrUnknownClient = errors.New("unknown client")
	// ErrUnknownRoom means the room id does not exist.
	ErrUnknownRoom = errors.New("unknown room")
	// ErrRoomFull means both seats are taken, or the requested seat is.
	ErrRoomFull = errors.New("room full")
	// ErrAlreadyInRoom means the client already occupies a seat in the room.
	ErrAlreadyInRoom = errors.New("already in room")
	// ErrNotInRoom means the client occupies no seat in the room.
	ErrNotInRoom = errors.New("not in room")
	// ErrRoomQuotaExceeded means the client hit its created-room cap.
	ErrRoomQuotaExceeded = errors.New("room quota exceeded")
)

// ErrCode maps a registry error to its code, or "unknown" for anything else.
func ErrCode(err error) string {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		return ErrCodeCapacityExceeded
	case errors.Is(err, ErrAlreadyExists):
		return ErrCodeAlreadyExists
	case errors.Is(err, ErrUnknownClient):
		return ErrCodeUnknownClient
	case errors.Is(err, ErrUnknownRoom):
		return ErrCodeUnknownRoom
	case errors.Is(err, ErrRoomFull):
		return ErrCodeRoomFull
	case errors.Is(err, ErrAlreadyInRoom):
		return ErrCodeAlreadyInRoom
	case errors.Is(err, ErrNotInRoom):
		return ErrCodeNotInRoom
	case errors.Is(err, ErrRoomQuotaExceeded):
		return ErrCodeRoomQuotaExceeded
	default:
		return "unknown"
	}
}

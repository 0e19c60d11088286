package core

import "errors"

// Error codes for domain errors. These travel verbatim in error events.
const (
	ErrCodeRoomNotFound      = "room_not_found"
	ErrCodeNotInRoom         = "not_in_room"
	ErrCodePasswordRequired  = "room_password_required"
	ErrCodePasswordIncorrect = "room_password_incorrect"
	ErrCodeParticipantBanned = "participant_banned"
	ErrCodeUnknownSession    = "unknown_session"
	ErrCodeObjectNotFound    = "object_not_found"
	ErrCodeLockConflict      = "lock_conflict"
	ErrCodeInsufficientRole  = "insufficient_role"
	ErrCodeBadRequest        = "bad_request"
	ErrCodePersistence       = "persistence_unavailable"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotInRoom         = errors.New("not in room")
	ErrPasswordRequired  = errors.New("room password required")
	ErrPasswordIncorrect = errors.New("room password incorrect")
	ErrUnknownSession    = errors.New("unknown session")
	ErrObjectNotFound    = errors.New("object not found")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

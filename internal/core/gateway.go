package core

import "context"

// Directory resolves a user id to its display identity and any role
// pre-assigned for a room. Implemented by the auth/store layer.
type Directory interface {
	// ResolveUser returns the display name for a user id.
	ResolveUser(ctx context.Context, userID string) (string, error)

	// RoomRole returns the role pre-assigned to userID in roomID, or ""
	// when none exists.
	RoomRole(ctx context.Context, roomID, userID string) (Role, error)
}

// PasswordVerifier checks a supplied room password. It returns
// ErrPasswordRequired when the room is protected and no password was
// supplied, ErrPasswordIncorrect on mismatch, and nil when the room is
// open or the password matches.
type PasswordVerifier interface {
	VerifyRoomPassword(ctx context.Context, roomID, supplied string) error

	// Protected reports whether the room requires a password at all.
	Protected(ctx context.Context, roomID string) bool
}

// PersistenceGateway is the durable store the core hands room state to at
// checkpoints. SaveSnapshot and SaveBan are fire-and-forget: a failing
// store must never stall or reject live collaboration.
type PersistenceGateway interface {
	// SaveSnapshot enqueues the room's element list for durable storage.
	SaveSnapshot(roomID string, elements []Element)

	// LoadSnapshot restores a previously persisted element list. A room
	// that was never persisted yields an empty list and no error.
	LoadSnapshot(ctx context.Context, roomID string) ([]Element, error)

	// SaveBan enqueues a ban record.
	SaveBan(roomID, userID string)

	// LoadBans restores the persisted ban list for a room.
	LoadBans(ctx context.Context, roomID string) ([]string, error)
}

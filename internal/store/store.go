package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a user in the system. Guests are created on the fly
// when a client requests a token without an account.
type User struct {
	ID          string
	DisplayName string
	IsGuest     bool
	CreatedAt   time.Time
}

// Room represents durable room metadata. PasswordHash is empty for open
// rooms. Live room state (roster, locks) is never persisted here; only
// metadata, bans and canvas snapshots are.
type Room struct {
	ID           string
	Name         string
	PasswordHash string
	OwnerID      string
	CreatedAt    time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateGuestUser creates a temporary guest user.
	CreateGuestUser(ctx context.Context, id, displayName string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// RoomStore handles room metadata persistence.
type RoomStore interface {
	// CreateRoom creates room metadata. passwordHash may be empty.
	CreateRoom(ctx context.Context, id, name, passwordHash, ownerID string) (*Room, error)

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id string) (*Room, error)

	// ListRooms lists all rooms.
	ListRooms(ctx context.Context) ([]*Room, error)

	// DeleteRoom removes room metadata, its roles, bans and snapshot.
	DeleteRoom(ctx context.Context, id string) error

	// SetRoomRole records a pre-assigned role for a user in a room.
	SetRoomRole(ctx context.Context, roomID, userID, role string) error

	// GetRoomRole returns the pre-assigned role, or "" when none exists.
	GetRoomRole(ctx context.Context, roomID, userID string) (string, error)

	// AddBan records that a user is banned from a room.
	AddBan(ctx context.Context, roomID, userID string) error

	// ListBans returns the banned user ids for a room.
	ListBans(ctx context.Context, roomID string) ([]string, error)
}

// CanvasStore handles drawing-element snapshot persistence. Snapshots
// are opaque JSON documents produced by the core.
type CanvasStore interface {
	// SaveCanvas upserts the snapshot for a room.
	SaveCanvas(ctx context.Context, roomID string, data []byte) error

	// LoadCanvas returns the last saved snapshot, or (nil, nil) when the
	// room was never persisted.
	LoadCanvas(ctx context.Context, roomID string) ([]byte, error)
}

// Store combines all persistence interfaces.
type Store interface {
	UserStore
	RoomStore
	CanvasStore

	// Close releases database resources.
	Close() error
}

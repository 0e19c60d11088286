package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomState delivers the full room snapshot to a joining session.
	EventRoomState EventKind = iota
	// EventUserJoined notifies members that a participant joined.
	EventUserJoined
	// EventUserLeft notifies members that a participant left.
	EventUserLeft
	// EventCursorUpdate relays a cursor position. Lossy by design.
	EventCursorUpdate
	// EventDrawingUpdate notifies members about an element upsert.
	EventDrawingUpdate
	// EventElementDeleted notifies members that an element was removed.
	EventElementDeleted
	// EventObjectLocked notifies members that an element was locked.
	EventObjectLocked
	// EventObjectUnlocked notifies members that an element was released.
	EventObjectUnlocked
	// EventLockDenied tells the requester who currently holds the lock.
	EventLockDenied
	// EventCanvasCleared notifies members that the canvas was wiped.
	EventCanvasCleared
	// EventParticipantKicked notifies members that a participant was removed.
	EventParticipantKicked
	// EventError notifies the originating session about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the room.
type Event struct {
	Kind     EventKind
	Room     string
	UserID   string
	Name     string
	Role     Role
	ObjectID string
	HolderID string // lock_denied: current holder
	X, Y     float64
	Element  *Element
	Snapshot *Snapshot // non-nil for EventRoomState
	Error    *CoreError
}

// Snapshot is the authoritative room view sent to a joining session.
type Snapshot struct {
	Room        RoomInfo
	Roster      []RosterEntry
	DrawingData []Element
	ActiveLocks map[string]string // objectId -> holder user id
}

// RoomInfo is room metadata included in a snapshot.
type RoomInfo struct {
	ID                string
	PasswordProtected bool
	CreatedAt         int64 // unix seconds
}

// RosterEntry is one participant as seen in a snapshot.
type RosterEntry struct {
	UserID string
	Name   string
	Role   Role
}

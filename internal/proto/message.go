package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom        = "join-room"
	InboundTypeLeaveRoom       = "leave-room"
	InboundTypeCursorMove      = "cursor-move"
	InboundTypeDrawingUpdate   = "drawing-update"
	InboundTypeDeleteElement   = "delete-element"
	InboundTypeRequestLock     = "request-lock"
	InboundTypeReleaseLock     = "release-lock"
	InboundTypeClearCanvas     = "clear-canvas"
	InboundTypeKickParticipant = "kick-participant"
	InboundTypeBanParticipant  = "ban-participant"

	OutboundTypeRoomState         = "room-state"
	OutboundTypeUserJoined        = "user-joined"
	OutboundTypeUserLeft          = "user-left"
	OutboundTypeCursorUpdate      = "cursor-update"
	OutboundTypeDrawingUpdate     = "drawing-update"
	OutboundTypeElementDeleted    = "element-deleted"
	OutboundTypeObjectLocked      = "object-locked"
	OutboundTypeObjectUnlocked    = "object-unlocked"
	OutboundTypeLockDenied        = "lock-denied"
	OutboundTypeCanvasCleared     = "canvas-cleared"
	OutboundTypeParticipantKicked = "participant-kicked"
	OutboundTypeError             = "error"
)

// JoinRoomData requests to join a room, optionally with a password.
type JoinRoomData struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password,omitempty"`
}

// LeaveRoomData requests to leave a room.
type LeaveRoomData struct {
	RoomID string `json:"roomId"`
}

// CursorMoveData reports a cursor position.
type CursorMoveData struct {
	RoomID string  `json:"roomId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ElementData is the wire form of a drawing element.
type ElementData struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedBy string          `json:"createdBy,omitempty"`
}

// DrawingUpdateData creates or mutates a drawing element.
type DrawingUpdateData struct {
	RoomID   string      `json:"roomId"`
	Element  ElementData `json:"element"`
	SaveToDB bool        `json:"saveToDb,omitempty"`
}

// ObjectData names a single drawing element.
type ObjectData struct {
	RoomID   string `json:"roomId"`
	ObjectID string `json:"objectId"`
}

// ClearCanvasData wipes a room's canvas.
type ClearCanvasData struct {
	RoomID string `json:"roomId"`
}

// KickParticipantData removes a participant from a room.
type KickParticipantData struct {
	RoomID       string `json:"roomId"`
	TargetUserID string `json:"targetUserId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// RoomStateData is the full snapshot sent only to a joining session.
type RoomStateData struct {
	Room        RoomData          `json:"room"`
	Users       []UserData        `json:"users"`
	DrawingData []ElementData     `json:"drawingData"`
	ActiveLocks map[string]string `json:"activeLocks"`
}

// RoomData is room metadata inside a snapshot.
type RoomData struct {
	ID                string `json:"id"`
	PasswordProtected bool   `json:"passwordProtected"`
	CreatedAt         int64  `json:"createdAt"`
}

// UserData is one roster entry.
type UserData struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// EventUserJoined notifies that a participant joined the room.
type EventUserJoined struct {
	User   UserData `json:"user"`
	UserID string   `json:"userId"`
	Role   string   `json:"role"`
}

// EventUserLeft notifies that a participant left the room.
type EventUserLeft struct {
	UserID string `json:"userId"`
}

// EventCursorUpdate relays a cursor position.
type EventCursorUpdate struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// EventDrawingUpdate notifies about an element upsert.
type EventDrawingUpdate struct {
	Element ElementData `json:"element"`
}

// EventElementDeleted notifies that an element was removed.
type EventElementDeleted struct {
	ObjectID string `json:"objectId"`
}

// EventObjectLocked notifies that an element was locked.
type EventObjectLocked struct {
	ObjectID string `json:"objectId"`
	UserID   string `json:"userId"`
}

// EventObjectUnlocked notifies that an element was released.
type EventObjectUnlocked struct {
	ObjectID string `json:"objectId"`
}

// EventLockDenied tells the requester who holds the lock.
type EventLockDenied struct {
	ObjectID string `json:"objectId"`
	LockedBy string `json:"lockedBy"`
}

// EventParticipantKicked notifies that a participant was removed.
type EventParticipantKicked struct {
	UserID string `json:"userId"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

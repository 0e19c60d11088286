package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom attaches the session to a room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom detaches the session from its room.
	CommandLeaveRoom
	// CommandCursorMove reports the client's cursor position.
	CommandCursorMove
	// CommandDrawingUpdate creates or mutates a drawing element.
	CommandDrawingUpdate
	// CommandDeleteElement removes a single drawing element.
	CommandDeleteElement
	// CommandRequestLock asks for exclusive hold on an element.
	CommandRequestLock
	// CommandReleaseLock gives up an exclusive hold.
	CommandReleaseLock
	// CommandClearCanvas wipes the element list and lock table.
	CommandClearCanvas
	// CommandKickParticipant forcibly removes another participant.
	CommandKickParticipant
	// CommandBanParticipant kicks and blocks future joins.
	CommandBanParticipant
)

// Command represents an action requested by a client session.
type Command struct {
	Kind     CommandKind
	Room     string
	Password string // join only
	ObjectID string
	TargetID string // kick/ban target user id
	Element  *Element
	Persist  bool // forward the update to the persistence gateway
	X, Y     float64
}

package core

import "encoding/json"

// Role describes what a participant may do inside a room.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleModerator Role = "moderator"
	RoleViewer    Role = "viewer"
)

// CanModerate reports whether the role may clear the canvas or remove others.
func (r Role) CanModerate() bool {
	return r == RoleOwner || r == RoleModerator
}

// Element is one drawing object on the canvas. Data is the opaque
// serialized shape/path/text/image descriptor produced by the client;
// the server never inspects it. Z-order is the element's position in the
// room's ordered list.
type Element struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedBy string          `json:"createdBy,omitempty"`
}

// Participant is a joined identity within a room. The session reference
// is the delivery target for events; LastSeen drives idle lock expiry.
type Participant struct {
	UserID   string
	Name     string
	Role     Role
	session  *Client
	lastSeen int64 // unix nanos, touched on every command from the session
}

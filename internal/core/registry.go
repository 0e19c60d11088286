package core

import "sync"

// SessionRegistry maps live sessions to their identity and current room.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	client *Client
	roomID string
}

// NewSessionRegistry constructs an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*sessionEntry)}
}

// Attach records a new session. The session starts outside any room.
func (r *SessionRegistry) Attach(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[c.SessionID] = &sessionEntry{client: c}
}

// Resolve returns the client and current room for a session id.
func (r *SessionRegistry) Resolve(sessionID string) (*Client, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil, "", ErrUnknownSession
	}
	return entry.client, entry.roomID, nil
}

// SetRoom records which room the session is attached to. An empty roomID
// marks the session as roaming.
func (r *SessionRegistry) SetRoom(sessionID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sessionID]; ok {
		entry.roomID = roomID
	}
}

// ClearRoom resets the session's room only if it still points at roomID.
// Room actors run in parallel, so a departure processed late in the old
// room must not clobber an attachment already recorded by the new one.
func (r *SessionRegistry) ClearRoom(sessionID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sessionID]; ok && entry.roomID == roomID {
		entry.roomID = ""
	}
}

// Detach removes the session and returns the room it was attached to, so
// the caller can route a departure into that room.
func (r *SessionRegistry) Detach(sessionID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return "", ErrUnknownSession
	}
	delete(r.sessions, sessionID)
	return entry.roomID, nil
}

// Len returns the number of attached sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

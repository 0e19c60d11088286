package core

import "sync"

// Client is one network session as seen by the core layer. The transport
// feeds Commands and drains Events; closing done tears the session down
// (used for kicks and shutdown).
type Client struct {
	SessionID string
	UserID    string
	Name      string
	Commands  chan *Command
	Events    chan *Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(sessionID, userID, name string) *Client {
	if name == "" {
		name = userID
	}
	return &Client{
		SessionID: sessionID,
		UserID:    userID,
		Name:      name,
		Commands:  make(chan *Command, 8),
		Events:    make(chan *Event, 32),
		done:      make(chan struct{}),
	}
}

// Done is closed when the server terminates the session.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Terminate signals the transport to close the connection. Idempotent.
func (c *Client) Terminate() {
	c.closeOnce.Do(func() { close(c.done) })
}

// send delivers an event without blocking the room actor. Slow consumers
// drop events rather than stalling the room.
func (c *Client) send(ev *Event) {
	select {
	case c.Events <- ev:
	case <-c.done:
	default:
	}
}

// sendWait delivers an event, blocking until the consumer takes it or the
// session terminates. Used for the join snapshot, which must not be lost.
func (c *Client) sendWait(ev *Event) {
	select {
	case c.Events <- ev:
	case <-c.done:
	}
}

package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// envelope pairs an inbound command with the session that issued it.
// detach marks departures injected by the hub on disconnect, which behave
// like leave-room but never produce error events.
type envelope struct {
	client *Client
	cmd    *Command
	detach bool
}

// Room is the authoritative in-memory model of one collaboration session:
// roster, ordered drawing-element list, lock table and ban list. All
// mutation happens on the room's own actor goroutine, which serializes
// every command for the room; rooms proceed fully in parallel.
type Room struct {
	ID        string
	createdAt time.Time

	participants map[string]*Participant // by user id
	bySession    map[string]*Participant // by session id
	order        []string                // element ids, insertion order = z-order
	elements     map[string]*Element
	locks        *LockTable
	banned       map[string]struct{}

	inbound   chan envelope
	closed    chan struct{}
	sendMu    sync.RWMutex // held for reading across every inbound send
	occupants atomic.Int32
	everOwned bool // an owner has been assigned at some point

	hub *Hub
	log zerolog.Logger
}

func newRoom(id string, hub *Hub) *Room {
	return &Room{
		ID:           id,
		createdAt:    time.Now(),
		participants: make(map[string]*Participant),
		bySession:    make(map[string]*Participant),
		elements:     make(map[string]*Element),
		locks:        NewLockTable(),
		banned:       make(map[string]struct{}),
		inbound:      make(chan envelope, 64),
		closed:       make(chan struct{}),
		hub:          hub,
		log:          hub.log.With().Str("room_id", id).Logger(),
	}
}

// restore seeds the room from persisted state before the actor starts.
func (r *Room) restore(elements []Element, bans []string) {
	for i := range elements {
		el := elements[i]
		r.elements[el.ID] = &el
		r.order = append(r.order, el.ID)
	}
	for _, userID := range bans {
		r.banned[userID] = struct{}{}
	}
	if len(elements) > 0 {
		// A restored room already had an owner in a previous life; new
		// joiners default to viewer.
		r.everOwned = true
	}
}

// enqueue hands a command to the room actor. Returns false if the room
// has already shut down, so the hub can report room_not_found. An
// envelope accepted here is guaranteed to be seen by the actor or by
// teardown's drain: the read lock keeps the send visible to teardown's
// barrier, and closing r.closed wakes senders blocked on a full channel.
func (r *Room) enqueue(env envelope) bool {
	r.sendMu.RLock()
	defer r.sendMu.RUnlock()

	select {
	case <-r.closed:
		return false
	default:
	}
	select {
	case r.inbound <- env:
		return true
	case <-r.closed:
		return false
	}
}

// Run consumes the inbound channel until ctx is cancelled. On exit the
// element list is flushed to the persistence gateway and any remaining
// sessions are terminated.
func (r *Room) Run(ctx context.Context) {
	sweep := time.NewTicker(r.hub.cfg.LockSweepInterval)
	defer sweep.Stop()
	defer r.teardown()

	for {
		select {
		case env := <-r.inbound:
			r.dispatch(ctx, env)
		case <-sweep.C:
			r.sweepIdleLocks(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (r *Room) teardown() {
	close(r.closed)
	// Barrier: wait out every in-flight enqueue. After this point a new
	// enqueue observes closed and returns false, so the drain below sees
	// every envelope that was accepted.
	r.sendMu.Lock()
	r.sendMu.Unlock() //nolint:staticcheck // empty critical section is the barrier itself

	r.flush()
	for _, p := range r.participants {
		r.hub.sessions.ClearRoom(p.session.SessionID, r.ID)
		p.session.Terminate()
	}
	// Reject commands that raced with shutdown so senders can retry
	// against a fresh room instance.
	for {
		select {
		case env := <-r.inbound:
			if !env.detach {
				env.client.send(&Event{Kind: EventError, Room: r.ID,
					Error: coreError(ErrCodeRoomNotFound, "room closed")})
			}
		default:
			return
		}
	}
}

// flush hands the current element list to the persistence gateway.
func (r *Room) flush() {
	r.hub.gateway.SaveSnapshot(r.ID, r.elementList())
}

func (r *Room) elementList() []Element {
	list := make([]Element, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, *r.elements[id])
	}
	return list
}

func (r *Room) dispatch(ctx context.Context, env envelope) {
	if p, ok := r.bySession[env.client.SessionID]; ok {
		p.lastSeen = time.Now().UnixNano()
	}

	switch env.cmd.Kind {
	case CommandJoinRoom:
		r.handleJoin(ctx, env.client, env.cmd)
	case CommandLeaveRoom:
		r.handleLeave(env.client, env.detach)
	case CommandCursorMove:
		r.handleCursor(env.client, env.cmd)
	case CommandDrawingUpdate:
		r.handleDrawingUpdate(env.client, env.cmd)
	case CommandDeleteElement:
		r.handleDeleteElement(env.client, env.cmd)
	case CommandRequestLock:
		r.handleRequestLock(env.client, env.cmd)
	case CommandReleaseLock:
		r.handleReleaseLock(env.client, env.cmd)
	case CommandClearCanvas:
		r.handleClearCanvas(env.client)
	case CommandKickParticipant:
		r.handleKick(env.client, env.cmd.TargetID, false)
	case CommandBanParticipant:
		r.handleKick(env.client, env.cmd.TargetID, true)
	default:
		env.client.send(&Event{Kind: EventError, Room: r.ID,
			Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

// member resolves the sender to a participant, reporting not_in_room to
// the sender when it is not part of the roster.
func (r *Room) member(c *Client) *Participant {
	p, ok := r.bySession[c.SessionID]
	if !ok {
		c.send(&Event{Kind: EventError, Room: r.ID,
			Error: coreError(ErrCodeNotInRoom, "join the room first")})
		return nil
	}
	return p
}

func (r *Room) handleJoin(ctx context.Context, c *Client, cmd *Command) {
	// The password gate runs first; the ban list is only consulted for
	// joins that pass it.
	if err := r.hub.passwords.VerifyRoomPassword(ctx, r.ID, cmd.Password); err != nil {
		code := ErrCodePasswordIncorrect
		if err == ErrPasswordRequired {
			code = ErrCodePasswordRequired
		}
		c.send(&Event{Kind: EventError, Room: r.ID, Error: coreError(code, err.Error())})
		return
	}

	if _, banned := r.banned[c.UserID]; banned {
		c.send(&Event{Kind: EventError, Room: r.ID,
			Error: coreError(ErrCodeParticipantBanned, "you are banned from this room")})
		return
	}

	name, err := r.hub.directory.ResolveUser(ctx, c.UserID)
	if err != nil || name == "" {
		name = c.Name
	}

	role, err := r.hub.directory.RoomRole(ctx, r.ID, c.UserID)
	if err != nil || role == "" {
		role = RoleViewer
		if !r.everOwned {
			role = RoleOwner
		}
	}
	if role == RoleOwner {
		r.everOwned = true
	}

	if prev, ok := r.participants[c.UserID]; ok {
		if prev.session.SessionID == c.SessionID {
			// Duplicate join from the same connection: resend the snapshot.
			c.sendWait(&Event{Kind: EventRoomState, Room: r.ID, Snapshot: r.snapshot()})
			return
		}
		// Reconnect with a fresh session: the new session supersedes the
		// old one, keeping the assigned role and held locks.
		delete(r.bySession, prev.session.SessionID)
		r.hub.sessions.ClearRoom(prev.session.SessionID, r.ID)
		prev.session.Terminate()
		role = prev.Role
		delete(r.participants, c.UserID)
	}

	p := &Participant{
		UserID:   c.UserID,
		Name:     name,
		Role:     role,
		session:  c,
		lastSeen: time.Now().UnixNano(),
	}
	r.participants[c.UserID] = p
	r.bySession[c.SessionID] = p
	r.occupants.Store(int32(len(r.participants)))
	r.hub.sessions.SetRoom(c.SessionID, r.ID)
	r.hub.noteOccupied(r.ID)

	c.sendWait(&Event{Kind: EventRoomState, Room: r.ID, Snapshot: r.snapshot()})
	r.broadcastExcept(c.SessionID, &Event{
		Kind: EventUserJoined, Room: r.ID, UserID: c.UserID, Name: name, Role: role,
	})

	r.log.Info().Str("user_id", c.UserID).Str("role", string(role)).Msg("participant joined")
}

func (r *Room) snapshot() *Snapshot {
	roster := make([]RosterEntry, 0, len(r.participants))
	for _, p := range r.participants {
		roster = append(roster, RosterEntry{UserID: p.UserID, Name: p.Name, Role: p.Role})
	}
	return &Snapshot{
		Room: RoomInfo{
			ID:                r.ID,
			PasswordProtected: r.hub.passwords.Protected(context.Background(), r.ID),
			CreatedAt:         r.createdAt.Unix(),
		},
		Roster:      roster,
		DrawingData: r.elementList(),
		ActiveLocks: r.locks.View(),
	}
}

func (r *Room) handleLeave(c *Client, detach bool) {
	p, ok := r.bySession[c.SessionID]
	if !ok {
		if !detach {
			c.send(&Event{Kind: EventError, Room: r.ID,
				Error: coreError(ErrCodeNotInRoom, "not in room")})
		}
		return
	}
	r.removeParticipant(p, &Event{Kind: EventUserLeft, Room: r.ID, UserID: p.UserID})
	r.log.Info().Str("user_id", p.UserID).Bool("disconnect", detach).Msg("participant left")
}

// removeParticipant releases the participant's locks, drops it from the
// roster, broadcasts farewell to the remaining members and kicks off
// eviction when the room empties.
func (r *Room) removeParticipant(p *Participant, farewell *Event) {
	for _, objectID := range r.locks.ReleaseAllHeldBy(p.UserID) {
		r.broadcast(&Event{Kind: EventObjectUnlocked, Room: r.ID, ObjectID: objectID})
	}
	delete(r.participants, p.UserID)
	delete(r.bySession, p.session.SessionID)
	r.occupants.Store(int32(len(r.participants)))
	r.hub.sessions.ClearRoom(p.session.SessionID, r.ID)

	r.broadcast(farewell)

	if len(r.participants) == 0 {
		r.hub.noteEmptied(r.ID)
	}
}

func (r *Room) handleCursor(c *Client, cmd *Command) {
	if _, ok := r.bySession[c.SessionID]; !ok {
		return // lossy by design, no error traffic for stray cursors
	}
	r.broadcastExcept(c.SessionID, &Event{
		Kind: EventCursorUpdate, Room: r.ID, UserID: c.UserID, X: cmd.X, Y: cmd.Y,
	})
}

func (r *Room) handleDrawingUpdate(c *Client, cmd *Command) {
	p := r.member(c)
	if p == nil {
		return
	}
	if cmd.Element == nil || cmd.Element.ID == "" {
		c.send(&Event{Kind: EventError, Room: r.ID,
			Error: coreError(ErrCodeBadRequest, "element with id is required")})
		return
	}

	el, exists := r.elements[cmd.Element.ID]
	if exists && !r.locks.HeldByOrFree(cmd.Element.ID, p.UserID) {
		holder, _ := r.locks.Holder(cmd.Element.ID)
		c.send(&Event{Kind: EventError, Room: r.ID, ObjectID: cmd.Element.ID, HolderID: holder,
			Error: coreError(ErrCodeLockConflict, "object is locked by another participant")})
		return
	}

	if exists {
		el.Data = cmd.Element.Data
	} else {
		el = &Element{ID: cmd.Element.ID, Data: cmd.Element.Data, CreatedBy: p.UserID}
		r.elements[el.ID] = el
		r.order = append(r.order, el.ID)
	}

	r.broadcastExcept(c.SessionID, &Event{
		Kind: EventDrawingUpdate, Room: r.ID, UserID: p.UserID, Element: el,
	})

	if cmd.Persist {
		r.flush()
	}
}

func (r *Room) handleDeleteElement(c *Client, cmd *Command) {
	p := r.member(c)
	if p == nil {
		return
	}
	if _, exists := r.elements[cmd.ObjectID]; !exists {
		c.send(&Event{Kind: EventError, Room: r.ID, ObjectID: cmd.ObjectID,
			Error: coreError(ErrCodeObjectNotFound, "no such element")})
		return
	}
	if !r.locks.HeldByOrFree(cmd.ObjectID, p.UserID) {
		holder, _ := r.locks.Holder(cmd.ObjectID)
		c.send(&Event{Kind: EventError, Room: r.ID, ObjectID: cmd.ObjectID, HolderID: holder,
			Error: coreError(ErrCodeLockConflict, "object is locked by another participant")})
		return
	}

	delete(r.elements, cmd.ObjectID)
	for i, id := range r.order {
		if id == cmd.ObjectID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.locks.Release(cmd.ObjectID, p.UserID) {
		r.broadcast(&Event{Kind: EventObjectUnlocked, Room: r.ID, ObjectID: cmd.ObjectID})
	}
	r.broadcastExcept(c.SessionID, &Event{
		Kind: EventElementDeleted, Room: r.ID, UserID: p.UserID, ObjectID: cmd.ObjectID,
	})
}

func (r *Room) handleRequestLock(c *Client, cmd *Command) {
	p := r.member(c)
	if p == nil {
		return
	}
	if _, exists := r.elements[cmd.ObjectID]; !exists {
		c.send(&Event{Kind: EventError, Room: r.ID, ObjectID: cmd.ObjectID,
			Error: coreError(ErrCodeObjectNotFound, "cannot lock a nonexistent element")})
		return
	}

	granted, holder := r.locks.Acquire(cmd.ObjectID, p.UserID, time.Now())
	if !granted {
		c.send(&Event{Kind: EventLockDenied, Room: r.ID, ObjectID: cmd.ObjectID, HolderID: holder})
		return
	}
	r.broadcast(&Event{Kind: EventObjectLocked, Room: r.ID, ObjectID: cmd.ObjectID, UserID: p.UserID})
}

func (r *Room) handleReleaseLock(c *Client, cmd *Command) {
	p := r.member(c)
	if p == nil {
		return
	}
	// A release from a non-holder is silently ignored so a late duplicate
	// can never evict a new holder.
	if r.locks.Release(cmd.ObjectID, p.UserID) {
		r.broadcast(&Event{Kind: EventObjectUnlocked, Room: r.ID, ObjectID: cmd.ObjectID})
	}
}

func (r *Room) handleClearCanvas(c *Client) {
	p := r.member(c)
	if p == nil {
		return
	}
	if !p.Role.CanModerate() {
		c.send(&Event{Kind: EventError, Room: r.ID,
			Error: coreError(ErrCodeInsufficientRole, "owner or moderator role required")})
		return
	}

	r.elements = make(map[string]*Element)
	r.order = nil
	r.locks.Clear()
	r.broadcast(&Event{Kind: EventCanvasCleared, Room: r.ID, UserID: p.UserID})
	r.flush()

	r.log.Info().Str("user_id", p.UserID).Msg("canvas cleared")
}

func (r *Room) handleKick(c *Client, targetID string, ban bool) {
	p := r.member(c)
	if p == nil {
		return
	}
	if !p.Role.CanModerate() {
		c.send(&Event{Kind: EventError, Room: r.ID,
			Error: coreError(ErrCodeInsufficientRole, "owner or moderator role required")})
		return
	}
	target, ok := r.participants[targetID]
	if !ok {
		c.send(&Event{Kind: EventError, Room: r.ID,
			Error: coreError(ErrCodeBadRequest, "target is not in the room")})
		return
	}
	if target.UserID == p.UserID || target.Role == RoleOwner {
		c.send(&Event{Kind: EventError, Room: r.ID,
			Error: coreError(ErrCodeBadRequest, "cannot remove this participant")})
		return
	}

	if ban {
		r.banned[targetID] = struct{}{}
		r.hub.gateway.SaveBan(r.ID, targetID)
	}

	session := target.session
	r.removeParticipant(target, &Event{Kind: EventParticipantKicked, Room: r.ID, UserID: targetID})
	session.Terminate()

	r.log.Info().Str("moderator_id", p.UserID).Str("target_id", targetID).
		Bool("ban", ban).Msg("participant removed")
}

// sweepIdleLocks expires locks whose holder has been silent beyond the
// configured idle threshold, as if the holder had released them.
func (r *Room) sweepIdleLocks(now time.Time) {
	cutoff := now.Add(-r.hub.cfg.LockIdleTimeout).UnixNano()
	for objectID, holder := range r.locks.View() {
		p, ok := r.participants[holder]
		if ok && p.lastSeen >= cutoff {
			continue
		}
		r.locks.Release(objectID, holder)
		r.broadcast(&Event{Kind: EventObjectUnlocked, Room: r.ID, ObjectID: objectID})
		r.log.Debug().Str("object_id", objectID).Str("holder_id", holder).Msg("idle lock expired")
	}
}

func (r *Room) broadcast(ev *Event) {
	for _, p := range r.participants {
		p.session.send(ev)
	}
}

func (r *Room) broadcastExcept(sessionID string, ev *Event) {
	for _, p := range r.participants {
		if p.session.SessionID == sessionID {
			continue
		}
		p.session.send(ev)
	}
}

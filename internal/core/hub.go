package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the core timing knobs.
type Config struct {
	// LockIdleTimeout is how long a lock holder's session may stay silent
	// before its locks are force-released.
	LockIdleTimeout time.Duration
	// LockSweepInterval is how often each room checks for idle holders.
	LockSweepInterval time.Duration
	// EvictionGrace is how long an empty room stays resident before it is
	// flushed and dropped, tolerating rapid reconnects.
	EvictionGrace time.Duration
}

// DefaultConfig returns the documented core defaults.
func DefaultConfig() Config {
	return Config{
		LockIdleTimeout:   90 * time.Second,
		LockSweepInterval: 15 * time.Second,
		EvictionGrace:     30 * time.Second,
	}
}

// Hub owns the room registry and the session registry. It routes commands
// from sessions into the owning room's actor and governs room lifecycle:
// race-free creation, grace-period eviction, shutdown flush.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*roomHandle

	sessions  *SessionRegistry
	directory Directory
	passwords PasswordVerifier
	gateway   PersistenceGateway

	cfg Config
	log *zerolog.Logger
	wg  sync.WaitGroup
}

type roomHandle struct {
	room   *Room
	cancel context.CancelFunc
	evict  *time.Timer
}

// NewHub constructs a hub with the given collaborators.
func NewHub(directory Directory, passwords PasswordVerifier, gateway PersistenceGateway, cfg Config, logger *zerolog.Logger) *Hub {
	if cfg.LockIdleTimeout <= 0 {
		cfg.LockIdleTimeout = DefaultConfig().LockIdleTimeout
	}
	if cfg.LockSweepInterval <= 0 {
		cfg.LockSweepInterval = DefaultConfig().LockSweepInterval
	}
	if cfg.EvictionGrace < 0 {
		cfg.EvictionGrace = DefaultConfig().EvictionGrace
	}
	return &Hub{
		rooms:     make(map[string]*roomHandle),
		sessions:  NewSessionRegistry(),
		directory: directory,
		passwords: passwords,
		gateway:   gateway,
		cfg:       cfg,
		log:       logger,
	}
}

// Sessions exposes the session registry to the transport layer.
func (h *Hub) Sessions() *SessionRegistry {
	return h.sessions
}

// Run blocks until ctx is cancelled, then stops every room actor. Room
// actors flush their element lists to the persistence gateway on exit.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	for id, handle := range h.rooms {
		if handle.evict != nil {
			handle.evict.Stop()
		}
		handle.cancel()
		delete(h.rooms, id)
	}
	h.mu.Unlock()

	h.wg.Wait()
	h.log.Info().Msg("hub stopped")
}

// RegisterClient attaches a session and starts pumping its commands into
// room actors. Commands from one session are processed in arrival order.
func (h *Hub) RegisterClient(c *Client) {
	h.sessions.Attach(c)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case cmd := <-c.Commands:
				h.route(c, cmd)
			case <-c.Done():
				return
			}
		}
	}()
}

// UnregisterClient detaches a session. If it was attached to a room, the
// departure is routed through the same path as an explicit leave-room.
func (h *Hub) UnregisterClient(c *Client) {
	roomID, err := h.sessions.Detach(c.SessionID)
	c.Terminate()
	if err != nil || roomID == "" {
		return
	}
	if handle := h.handleFor(roomID); handle != nil {
		handle.room.enqueue(envelope{client: c, cmd: &Command{Kind: CommandLeaveRoom, Room: roomID}, detach: true})
	}
}

func (h *Hub) route(c *Client, cmd *Command) {
	if cmd == nil {
		return
	}

	if cmd.Kind == CommandJoinRoom {
		if cmd.Room == "" {
			c.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "room is required")})
			return
		}
		// A participant belongs to at most one room: moving to another
		// room implies leaving the current one first.
		if _, attached, err := h.sessions.Resolve(c.SessionID); err == nil && attached != "" && attached != cmd.Room {
			if prev := h.handleFor(attached); prev != nil {
				prev.room.enqueue(envelope{client: c, cmd: &Command{Kind: CommandLeaveRoom, Room: attached}, detach: true})
			}
		}
		handle := h.getOrCreate(cmd.Room)
		if !handle.room.enqueue(envelope{client: c, cmd: cmd}) {
			c.send(&Event{Kind: EventError, Room: cmd.Room,
				Error: coreError(ErrCodeRoomNotFound, "room closed, retry")})
		}
		return
	}

	roomID := cmd.Room
	if roomID == "" {
		_, attached, err := h.sessions.Resolve(c.SessionID)
		if err != nil {
			c.send(&Event{Kind: EventError, Error: coreError(ErrCodeUnknownSession, "session not attached")})
			return
		}
		roomID = attached
	}

	handle := h.handleFor(roomID)
	if handle == nil || !handle.room.enqueue(envelope{client: c, cmd: cmd}) {
		if cmd.Kind == CommandCursorMove {
			return // cursor traffic is lossy, no error churn
		}
		c.send(&Event{Kind: EventError, Room: roomID,
			Error: coreError(ErrCodeRoomNotFound, "room not found")})
	}
}

func (h *Hub) handleFor(roomID string) *roomHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[roomID]
}

// getOrCreate resolves the room handle, instantiating the room exactly
// once per id even under concurrent first joins. The persistence load
// happens on the room's own goroutine before the actor starts consuming
// commands, so a slow store during one room's restore never blocks
// routing for other rooms. Commands enqueued meanwhile just wait in the
// room's inbound channel.
func (h *Hub) getOrCreate(roomID string) *roomHandle {
	h.mu.Lock()
	if handle, ok := h.rooms[roomID]; ok {
		h.mu.Unlock()
		return handle
	}

	room := newRoom(roomID, h)
	ctx, cancel := context.WithCancel(context.Background())
	handle := &roomHandle{room: room, cancel: cancel}
	h.rooms[roomID] = handle
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()

		loadCtx, loadCancel := context.WithTimeout(context.Background(), 5*time.Second)
		elements, err := h.gateway.LoadSnapshot(loadCtx, roomID)
		if err != nil {
			h.log.Warn().Err(err).Str("room_id", roomID).Msg("snapshot restore failed, starting empty")
		}
		bans, err := h.gateway.LoadBans(loadCtx, roomID)
		if err != nil {
			h.log.Warn().Err(err).Str("room_id", roomID).Msg("ban list restore failed")
		}
		loadCancel()
		room.restore(elements, bans)

		h.log.Info().Str("room_id", roomID).Int("restored_elements", len(elements)).Msg("room started")
		room.Run(ctx)
	}()

	return handle
}

// noteOccupied cancels a pending eviction for the room. Called by the
// room actor whenever a participant joins.
func (h *Hub) noteOccupied(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if handle, ok := h.rooms[roomID]; ok && handle.evict != nil {
		handle.evict.Stop()
		handle.evict = nil
	}
}

// noteEmptied schedules eviction after the grace window. Called by the
// room actor when the last participant leaves.
func (h *Hub) noteEmptied(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	handle, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if handle.evict != nil {
		handle.evict.Stop()
	}
	handle.evict = time.AfterFunc(h.cfg.EvictionGrace, func() {
		h.EvictIfEmpty(roomID)
	})
}

// EvictIfEmpty drops the room from memory if it has no participants.
// The actor flushes state to the persistence gateway as it exits.
func (h *Hub) EvictIfEmpty(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	handle, ok := h.rooms[roomID]
	if !ok || handle.room.occupants.Load() != 0 {
		return
	}
	handle.cancel()
	delete(h.rooms, roomID)
	h.log.Info().Str("room_id", roomID).Msg("room evicted")
}

// DropRoom tears a live room down unconditionally, terminating every
// remaining session. Used when the room is deleted over the HTTP API.
func (h *Hub) DropRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	handle, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if handle.evict != nil {
		handle.evict.Stop()
	}
	handle.cancel()
	delete(h.rooms, roomID)
	h.log.Info().Str("room_id", roomID).Msg("room dropped")
}

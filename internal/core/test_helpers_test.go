package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent asserts that no event of the given kind arrives within the
// window. Other events are drained and ignored.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, window time.Duration) {
	t.Helper()

	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

type fakeDirectory struct {
	names map[string]string
	roles map[string]Role // "roomID/userID" -> role
}

func (d *fakeDirectory) ResolveUser(_ context.Context, userID string) (string, error) {
	return d.names[userID], nil
}

func (d *fakeDirectory) RoomRole(_ context.Context, roomID, userID string) (Role, error) {
	return d.roles[roomID+"/"+userID], nil
}

type fakePasswords struct {
	passwords map[string]string // roomID -> plaintext
}

func (p *fakePasswords) VerifyRoomPassword(_ context.Context, roomID, supplied string) error {
	want, ok := p.passwords[roomID]
	if !ok || want == "" {
		return nil
	}
	if supplied == "" {
		return ErrPasswordRequired
	}
	if supplied != want {
		return ErrPasswordIncorrect
	}
	return nil
}

func (p *fakePasswords) Protected(_ context.Context, roomID string) bool {
	return p.passwords[roomID] != ""
}

type fakeGateway struct {
	mu        sync.Mutex
	seed      map[string][]Element
	seedBans  map[string][]string
	snapshots map[string][]Element
	bans      map[string][]string
	loadDelay map[string]time.Duration
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		seed:      make(map[string][]Element),
		seedBans:  make(map[string][]string),
		snapshots: make(map[string][]Element),
		bans:      make(map[string][]string),
		loadDelay: make(map[string]time.Duration),
	}
}

func (g *fakeGateway) SaveSnapshot(roomID string, elements []Element) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.snapshots[roomID] = elements
}

func (g *fakeGateway) LoadSnapshot(_ context.Context, roomID string) ([]Element, error) {
	g.mu.Lock()
	delay := g.loadDelay[roomID]
	g.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seed[roomID], nil
}

func (g *fakeGateway) SaveBan(roomID, userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bans[roomID] = append(g.bans[roomID], userID)
}

func (g *fakeGateway) LoadBans(_ context.Context, roomID string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seedBans[roomID], nil
}

func (g *fakeGateway) snapshotFor(roomID string) []Element {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshots[roomID]
}

type hubOption func(*hubSetup)

type hubSetup struct {
	directory *fakeDirectory
	passwords *fakePasswords
	gateway   *fakeGateway
	cfg       Config
}

func withPassword(roomID, password string) hubOption {
	return func(s *hubSetup) { s.passwords.passwords[roomID] = password }
}

func withSeededElements(roomID string, elements []Element) hubOption {
	return func(s *hubSetup) { s.gateway.seed[roomID] = elements }
}

func withSeededBans(roomID string, users []string) hubOption {
	return func(s *hubSetup) { s.gateway.seedBans[roomID] = users }
}

func withSlowLoad(roomID string, delay time.Duration) hubOption {
	return func(s *hubSetup) { s.gateway.loadDelay[roomID] = delay }
}

func withConfig(cfg Config) hubOption {
	return func(s *hubSetup) { s.cfg = cfg }
}

func newTestHub(t *testing.T, opts ...hubOption) (*Hub, *fakeGateway) {
	t.Helper()

	setup := &hubSetup{
		directory: &fakeDirectory{names: map[string]string{}, roles: map[string]Role{}},
		passwords: &fakePasswords{passwords: map[string]string{}},
		gateway:   newFakeGateway(),
		cfg:       DefaultConfig(),
	}
	for _, opt := range opts {
		opt(setup)
	}

	logger := zerolog.Nop()
	hub := NewHub(setup.directory, setup.passwords, setup.gateway, setup.cfg, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return hub, setup.gateway
}

// joinClient registers a fresh session and joins it to the room,
// consuming the snapshot so later assertions start clean.
func joinClient(t *testing.T, hub *Hub, sessionID, userID, room string) *Client {
	t.Helper()
	c := NewClient(sessionID, userID, userID)
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandJoinRoom, Room: room}
	mustEvent(t, c.Events, EventRoomState)
	return c
}

func rawElement(id, data string) *Element {
	return &Element{ID: id, Data: []byte(data)}
}

package persist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/boardsync/boardsync-server/internal/core"
	"github.com/boardsync/boardsync-server/internal/store"
	"github.com/boardsync/boardsync-server/internal/store/sqlite"
)

// flakyStore wraps a real store and fails SaveCanvas a fixed number of
// times before letting the write through.
type flakyStore struct {
	store.Store
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyStore) SaveCanvas(ctx context.Context, roomID string, data []byte) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("disk on fire")
	}
	return f.Store.SaveCanvas(ctx, roomID, data)
}

func newGateway(t *testing.T, st store.Store) *Gateway {
	t.Helper()
	logger := zerolog.Nop()
	g := New(st, 16, 3, &logger)
	g.Start()
	t.Cleanup(g.Close)
	return g
}

func newSQLiteStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSnapshotRoundTrip(t *testing.T) {
	st := newSQLiteStore(t)
	g := newGateway(t, st)
	ctx := context.Background()

	elements := []core.Element{
		{ID: "e1", Data: json.RawMessage(`{"kind":"rect"}`), CreatedBy: "alice"},
		{ID: "e2", Data: json.RawMessage(`{"kind":"path"}`), CreatedBy: "bob"},
	}
	g.SaveSnapshot("r-1", elements)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := g.LoadSnapshot(ctx, "r-1")
		if err != nil {
			t.Fatalf("load snapshot: %v", err)
		}
		if len(got) == 2 {
			if got[0].ID != "e1" || got[1].ID != "e2" || got[1].CreatedBy != "bob" {
				t.Fatalf("unexpected snapshot: %+v", got)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("snapshot never landed in the store")
}

func TestSnapshotAbsentRoom(t *testing.T) {
	g := newGateway(t, newSQLiteStore(t))

	got, err := g.LoadSnapshot(context.Background(), "never-saved")
	if err != nil || got != nil {
		t.Fatalf("absent snapshot should be (nil, nil): %v %v", got, err)
	}
}

func TestSaveRetriesTransientFailure(t *testing.T) {
	flaky := &flakyStore{Store: newSQLiteStore(t), failures: 2}
	g := newGateway(t, flaky)
	ctx := context.Background()

	g.SaveSnapshot("r-1", []core.Element{{ID: "e1", Data: json.RawMessage(`{}`)}})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got, _ := g.LoadSnapshot(ctx, "r-1"); len(got) == 1 {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("write never succeeded despite retries")
}

func TestBanRoundTrip(t *testing.T) {
	st := newSQLiteStore(t)
	g := newGateway(t, st)
	ctx := context.Background()

	g.SaveBan("r-1", "troll")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		bans, err := g.LoadBans(ctx, "r-1")
		if err != nil {
			t.Fatalf("load bans: %v", err)
		}
		if len(bans) == 1 && bans[0] == "troll" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("ban never landed in the store")
}

func TestCloseFlushesQueue(t *testing.T) {
	st := newSQLiteStore(t)
	logger := zerolog.Nop()
	g := New(st, 16, 3, &logger)
	g.Start()

	for i := range 8 {
		g.SaveBan("r-1", "user-"+string(rune('a'+i)))
	}
	g.Close()

	bans, err := st.ListBans(context.Background(), "r-1")
	if err != nil || len(bans) != 8 {
		t.Fatalf("close must flush pending writes: %d err=%v", len(bans), err)
	}
}

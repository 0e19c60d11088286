package persist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/boardsync/boardsync-server/internal/core"
	"github.com/boardsync/boardsync-server/internal/store"
)

// Gateway is the asynchronous bridge between live room state and the
// durable store. Writes are enqueued fire-and-forget: a slow or failing
// store never stalls collaboration. Failed writes are retried with
// backoff and eventually logged and dropped, since in-memory state is
// the source of truth for live rooms.
type Gateway struct {
	store      store.Store
	jobs       chan job
	log        zerolog.Logger
	maxRetries int

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

type job struct {
	kind   jobKind
	roomID string
	userID string
	data   []byte
}

type jobKind int

const (
	jobSnapshot jobKind = iota
	jobBan
)

// New constructs a gateway over the given store. queueSize bounds the
// number of pending writes; an overflowing queue drops the write with a
// persistence_unavailable log entry.
func New(st store.Store, queueSize, maxRetries int, logger *zerolog.Logger) *Gateway {
	if queueSize <= 0 {
		queueSize = 256
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Gateway{
		store:      st,
		jobs:       make(chan job, queueSize),
		log:        logger.With().Str("component", "persist").Logger(),
		maxRetries: maxRetries,
		stop:       make(chan struct{}),
	}
}

// Start launches the background writer. It drains the queue until Close
// is called.
func (g *Gateway) Start() {
	g.wg.Add(1)
	go g.run()
}

// Close stops accepting writes, flushes the queue and waits for the
// writer to finish.
func (g *Gateway) Close() {
	g.stopOnce.Do(func() { close(g.stop) })
	g.wg.Wait()
}

func (g *Gateway) run() {
	defer g.wg.Done()
	for {
		select {
		case j := <-g.jobs:
			g.process(j)
		case <-g.stop:
			// Flush whatever is still queued.
			for {
				select {
				case j := <-g.jobs:
					g.process(j)
				default:
					return
				}
			}
		}
	}
}

func (g *Gateway) process(j job) {
	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		switch j.kind {
		case jobSnapshot:
			lastErr = g.store.SaveCanvas(ctx, j.roomID, j.data)
		case jobBan:
			lastErr = g.store.AddBan(ctx, j.roomID, j.userID)
		}
		cancel()
		if lastErr == nil {
			return
		}
		time.Sleep(time.Duration(attempt) * 250 * time.Millisecond)
	}
	g.log.Error().Err(lastErr).Str("room_id", j.roomID).Msg("persistence write dropped after retries")
}

// enqueue inserts a job without blocking the caller.
func (g *Gateway) enqueue(j job) {
	select {
	case g.jobs <- j:
	default:
		g.log.Warn().Str("room_id", j.roomID).Msg("persistence queue full, write dropped")
	}
}

// SaveSnapshot implements core.PersistenceGateway.
func (g *Gateway) SaveSnapshot(roomID string, elements []core.Element) {
	data, err := json.Marshal(elements)
	if err != nil {
		g.log.Error().Err(err).Str("room_id", roomID).Msg("marshal snapshot")
		return
	}
	g.enqueue(job{kind: jobSnapshot, roomID: roomID, data: data})
}

// LoadSnapshot implements core.PersistenceGateway.
func (g *Gateway) LoadSnapshot(ctx context.Context, roomID string) ([]core.Element, error) {
	data, err := g.store.LoadCanvas(ctx, roomID)
	if err != nil || len(data) == 0 {
		return nil, err
	}
	var elements []core.Element
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, err
	}
	return elements, nil
}

// SaveBan implements core.PersistenceGateway.
func (g *Gateway) SaveBan(roomID, userID string) {
	g.enqueue(job{kind: jobBan, roomID: roomID, userID: userID})
}

// LoadBans implements core.PersistenceGateway.
func (g *Gateway) LoadBans(ctx context.Context, roomID string) ([]string, error) {
	return g.store.ListBans(ctx, roomID)
}

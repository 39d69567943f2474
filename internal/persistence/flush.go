package persistence

import (
	"context"
	"database/sql"

	"golang.org/x/sync/errgroup"
)

// writeFunc is one queued write, closing over whichever record it
// carries; batching them under a single *sql.Tx keeps the background
// flush cheap regardless of how many distinct record kinds arrive in a
// cycle.
type writeFunc func(ctx context.Context, tx *sql.Tx) error

// batchSize caps how many queued writes a single transaction commits,
// so a long-parked flush never holds one open indefinitely.
const batchSize = 128

// Flusher drains queued history writes on its own goroutine so that
// recording a snapshot, unit-test outcome, or monitor event from the
// engine's cycle loop never waits on a database round trip (spec §5
// "the engine's single thread must never block on I/O"). Supervised by
// golang.org/x/sync/errgroup per the DOMAIN STACK wiring (SPEC_FULL
// §11).
type Flusher struct {
	store  *Store
	queue  chan writeFunc
	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewFlusher starts the background flush goroutine, buffering up to
// queueSize pending writes before QueueX calls start reporting drops.
func NewFlusher(store *Store, queueSize int) *Flusher {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	f := &Flusher{
		store:  store,
		queue:  make(chan writeFunc, queueSize),
		group:  g,
		cancel: cancel,
	}
	g.Go(func() error { return f.run(gctx) })
	return f
}

func (f *Flusher) run(ctx context.Context) error {
	for {
		fn, ok := <-f.queue
		if !ok {
			return nil
		}
		batch := []writeFunc{fn}
	drain:
		for len(batch) < batchSize {
			select {
			case fn, ok := <-f.queue:
				if !ok {
					break drain
				}
				batch = append(batch, fn)
			default:
				break drain
			}
		}
		if err := f.commit(ctx, batch); err != nil {
			return err
		}
	}
}

func (f *Flusher) commit(ctx context.Context, batch []writeFunc) error {
	tx, err := f.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, fn := range batch {
		if err := fn(ctx, tx); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// enqueue offers fn to the queue without blocking, reporting whether it
// was accepted.
func (f *Flusher) enqueue(fn writeFunc) bool {
	select {
	case f.queue <- fn:
		return true
	default:
		return false
	}
}

// QueueSnapshot enqueues a cycle/status sample, returning false if the
// flush queue is full and the sample was dropped.
func (f *Flusher) QueueSnapshot(r SnapshotRecord) bool {
	return f.enqueue(func(ctx context.Context, tx *sql.Tx) error {
		return f.store.insertSnapshot(ctx, tx, r)
	})
}

// QueueUnitTest enqueues a unit-test outcome, returning false if the
// flush queue is full and the outcome was dropped.
func (f *Flusher) QueueUnitTest(r UnitTestRecord) bool {
	return f.enqueue(func(ctx context.Context, tx *sql.Tx) error {
		return f.store.insertUnitTest(ctx, tx, r)
	})
}

// QueueMonitor enqueues a monitor event, returning false if the flush
// queue is full and the event was dropped.
func (f *Flusher) QueueMonitor(r MonitorRecord) bool {
	return f.enqueue(func(ctx context.Context, tx *sql.Tx) error {
		return f.store.insertMonitor(ctx, tx, r)
	})
}

// Close stops accepting new writes, drains whatever is already queued,
// and waits for the flush goroutine to exit.
func (f *Flusher) Close() error {
	close(f.queue)
	err := f.group.Wait()
	f.cancel()
	return err
}

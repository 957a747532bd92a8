// Package sweeper runs the periodic cleanup of expired reservations.
// A reservation is a soft, time-boxed hold: once the pickup window
// elapses the item is assumed collected or abandoned, so the listing
// and its requests are purged rather than returned to the pool.
package sweeper

import (
	"context"
	"log"
	"time"
)

// Store is the slice of persistence the sweeper needs.  Both deletes
// are idempotent; re-running a sweep over already-purged rows matches
// nothing.
type Store interface {
	DeleteExpiredListings(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredRequests(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper deletes expired listings and requests on a fixed cadence,
// independent of request traffic.  Failures are logged and retried on
// the next tick; a sweep never takes the process down.
type Sweeper struct {
	store    Store
	interval time.Duration
	now      func() time.Time
}

// New returns a Sweeper with the given cadence.
func New(store Store, interval time.Duration) *Sweeper {
	if store == nil {
		panic("nil store passed to sweeper.New")
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{store: store, interval: interval, now: time.Now}
}

// Run blocks, sweeping every interval until ctx is cancelled.  It is
// started as a goroutine from main; the sweep shares no state with the
// request path except through the store's atomic writes, so a listing
// reserved after the sweep's query snapshot is never matched by it.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	log.Printf("sweeper: running every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped")
			return
		case <-t.C:
			if err := s.Sweep(ctx); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			}
		}
	}
}

// Sweep performs one cleanup pass: expired reserved/sold listings
// first, then expired requests of any status.  The two deletes are
// independent; a listing failure does not block the request purge.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now().UTC()

	nl, listErr := s.store.DeleteExpiredListings(ctx, now)
	if listErr == nil && nl > 0 {
		log.Printf("sweeper: deleted %d expired listings", nl)
	}

	nr, reqErr := s.store.DeleteExpiredRequests(ctx, now)
	if reqErr == nil && nr > 0 {
		log.Printf("sweeper: deleted %d expired requests", nr)
	}

	if listErr != nil {
		return listErr
	}
	return reqErr
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/giveaway-market/internal/model"
)

// ReservationStore is the MySQL-backed storage used by the lifecycle
// manager.  It composes the listing and request repositories and owns
// the acceptance transaction, which is the only multi-statement write in
// the system.
type ReservationStore struct {
	db       *sql.DB
	Listings *ListingRepo
	Requests *RequestRepo
}

// NewReservationStore returns a store sharing the given repositories.
func NewReservationStore(db *sql.DB, listings *ListingRepo, requests *RequestRepo) *ReservationStore {
	if db == nil || listings == nil || requests == nil {
		panic("nil dependency passed to NewReservationStore")
	}
	return &ReservationStore{db: db, Listings: listings, Requests: requests}
}

// GetListing fetches a listing by id.
func (s *ReservationStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	return s.Listings.GetByID(ctx, id)
}

// GetRequest fetches a request by id.
func (s *ReservationStore) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	return s.Requests.GetByID(ctx, id)
}

// PendingExists reports whether the requester already has a pending
// request on the listing.
func (s *ReservationStore) PendingExists(ctx context.Context, listingID, requesterID string) (bool, error) {
	return s.Requests.PendingExists(ctx, listingID, requesterID)
}

// CreateRequest persists a new pending request.
func (s *ReservationStore) CreateRequest(ctx context.Context, req *model.Request) error {
	return s.Requests.Create(ctx, req)
}

// RejectRequest marks a single request rejected.  Rejection has no
// listing side effects, so it needs no transaction.
func (s *ReservationStore) RejectRequest(ctx context.Context, id string) error {
	return s.Requests.MarkRejected(ctx, id)
}

// DeleteExpiredListings removes reserved and sold listings whose pickup
// window elapsed before now.
func (s *ReservationStore) DeleteExpiredListings(ctx context.Context, now time.Time) (int64, error) {
	return s.Listings.DeleteExpired(ctx, now)
}

// DeleteExpiredRequests removes requests whose pickup window elapsed
// before now, whatever their status.
func (s *ReservationStore) DeleteExpiredRequests(ctx context.Context, now time.Time) (int64, error) {
	return s.Requests.DeleteExpired(ctx, now)
}

// AcceptRequest applies the three acceptance writes atomically: reserve
// the listing, mark the request accepted, reject the other pending
// requests on the same listing.  The conditional reserve is the race
// guard; when it matches no row the listing was taken (or deleted) since
// the request was filed and the whole transaction rolls back with
// ErrConflict.
func (s *ReservationStore) AcceptRequest(ctx context.Context, req *model.Request, now, expiresAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	reserved, err := s.Listings.ReserveTx(ctx, tx, req.ListingID, req.RequesterID, now, expiresAt)
	if err != nil {
		return err
	}
	if !reserved {
		return ErrConflict
	}
	if err := s.Requests.MarkAcceptedTx(ctx, tx, req.ID, now, expiresAt); err != nil {
		return err
	}
	if _, err := s.Requests.RejectOtherPendingTx(ctx, tx, req.ListingID, req.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

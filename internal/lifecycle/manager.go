// Package lifecycle owns the reservation state machine of the
// marketplace: filing a pickup request against an available listing,
// the owner's accept/reject decision, and the invariants tying a
// reserved listing to its accepted request.  It is the only writer of a
// listing's reservation columns after creation; everything else reads.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/giveaway-market/internal/model"
	"github.com/iliyamo/giveaway-market/internal/repository"
	"github.com/iliyamo/giveaway-market/internal/utils"
)

// Decision errors.  The conflict variants wrap repository.ErrConflict so
// handlers can map both onto 400 while keeping distinct messages.
var (
	// ErrNotAvailable is returned when a request targets a listing that
	// is already reserved or sold.
	ErrNotAvailable = fmt.Errorf("item is no longer available: %w", repository.ErrConflict)

	// ErrDuplicateRequest is returned when the requester already has a
	// pending request on the listing.
	ErrDuplicateRequest = fmt.Errorf("item already requested: %w", repository.ErrConflict)

	// ErrInvalidDecision is returned when a decision is neither
	// "accepted" nor "rejected".
	ErrInvalidDecision = errors.New("decision must be accepted or rejected")
)

// Store is the persistence surface the manager needs.  The repository
// package provides the MySQL implementation; tests substitute an
// in-memory fake.  AcceptRequest must apply its three writes atomically
// and return repository.ErrConflict when the listing is no longer
// available at commit time.
type Store interface {
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	GetRequest(ctx context.Context, id string) (*model.Request, error)
	PendingExists(ctx context.Context, listingID, requesterID string) (bool, error)
	CreateRequest(ctx context.Context, req *model.Request) error
	RejectRequest(ctx context.Context, id string) error
	AcceptRequest(ctx context.Context, req *model.Request, now, expiresAt time.Time) error
}

// Manager coordinates reservation transitions on top of a Store.  It is
// safe for concurrent use; all mutual exclusion lives in the store's
// atomic writes.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// New returns a Manager granting the given pickup window on acceptance.
func New(store Store, reserveTTL time.Duration) *Manager {
	if store == nil {
		panic("nil store passed to lifecycle.New")
	}
	if reserveTTL <= 0 {
		reserveTTL = 2 * time.Hour
	}
	return &Manager{store: store, ttl: reserveTTL, now: time.Now}
}

// CreateRequestInput carries the caller-supplied fields of a new pickup
// request.  Owner fields are resolved from the listing, never trusted
// from the client.
type CreateRequestInput struct {
	ListingID     string
	RequesterID   string
	RequesterName string
	Message       string
	PickupTime    string
}

// CreateRequest files a pending pickup request against an available
// listing.  The listing itself is not touched; it only changes state
// when the owner accepts.  Returns repository.ErrListingNotFound,
// ErrNotAvailable or ErrDuplicateRequest on the guard failures.
func (m *Manager) CreateRequest(ctx context.Context, in CreateRequestInput) (*model.Request, error) {
	l, err := m.store.GetListing(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if l.Status != model.ListingAvailable {
		return nil, ErrNotAvailable
	}
	dup, err := m.store.PendingExists(ctx, in.ListingID, in.RequesterID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateRequest
	}
	req := &model.Request{
		ID:            utils.NewID(),
		ListingID:     l.ID,
		RequesterID:   in.RequesterID,
		RequesterName: in.RequesterName,
		OwnerID:       l.OwnerID,
		OwnerName:     l.OwnerName,
		Message:       in.Message,
		PickupTime:    in.PickupTime,
		Status:        model.RequestPending,
		CreatedAt:     m.now().UTC().Truncate(time.Second),
	}
	if err := m.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// DecideRequest applies the owner's decision to a request.  Only the
// listing owner may decide (repository.ErrForbidden otherwise).
//
// Rejection updates the request alone.  Acceptance reserves the listing
// for the requester with a pickup window of now+TTL, stamps the same
// window on the request, and rejects every other pending request on the
// listing, all in one atomic store operation.  The store re-checks that
// the listing is still available, so of two concurrent acceptances
// exactly one wins and the loser gets repository.ErrConflict.
func (m *Manager) DecideRequest(ctx context.Context, requestID, actingUserID, decision string) (*model.Request, error) {
	req, err := m.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != actingUserID {
		return nil, repository.ErrForbidden
	}

	switch decision {
	case model.RequestRejected:
		if err := m.store.RejectRequest(ctx, req.ID); err != nil {
			return nil, err
		}
		req.Status = model.RequestRejected
		return req, nil

	case model.RequestAccepted:
		// One now for both expiry stamps: the request and the listing
		// describe the same pickup window and must never drift apart.
		now := m.now().UTC().Truncate(time.Second)
		expiresAt := now.Add(m.ttl)
		if err := m.store.AcceptRequest(ctx, req, now, expiresAt); err != nil {
			return nil, err
		}
		req.Status = model.RequestAccepted
		req.AcceptedAt = &now
		req.ExpiresAt = &expiresAt
		return req, nil

	default:
		return nil, ErrInvalidDecision
	}
}

package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/giveaway-market/internal/model"
	"github.com/iliyamo/giveaway-market/internal/repository"
)

// fakeStore is an in-memory Store.  AcceptRequest mirrors the SQL
// implementation's guard: the listing must still be available inside
// the critical section or the whole operation fails with ErrConflict.
type fakeStore struct {
	mu       sync.Mutex
	listings map[string]*model.Listing
	requests map[string]*model.Request
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings: map[string]*model.Listing{},
		requests: map[string]*model.Request{},
	}
}

func (s *fakeStore) GetListing(_ context.Context, id string) (*model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *fakeStore) GetRequest(_ context.Context, id string) (*model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) PendingExists(_ context.Context, listingID, requesterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.ListingID == listingID && r.RequesterID == requesterID && r.Status == model.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreateRequest(_ context.Context, req *model.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *fakeStore) RejectRequest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return repository.ErrRequestNotFound
	}
	r.Status = model.RequestRejected
	return nil
}

func (s *fakeStore) AcceptRequest(_ context.Context, req *model.Request, now, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[req.ListingID]
	if !ok || l.Status != model.ListingAvailable {
		return repository.ErrConflict
	}
	l.Status = model.ListingReserved
	l.ReservedBy = &req.RequesterID
	reservedAt := now
	l.ReservedAt = &reservedAt
	exp := expiresAt
	l.ExpiresAt = &exp

	r := s.requests[req.ID]
	r.Status = model.RequestAccepted
	acceptedAt := now
	r.AcceptedAt = &acceptedAt
	rexp := expiresAt
	r.ExpiresAt = &rexp

	for _, other := range s.requests {
		if other.ListingID == req.ListingID && other.ID != req.ID && other.Status == model.RequestPending {
			other.Status = model.RequestRejected
		}
	}
	return nil
}

func (s *fakeStore) addListing(id, ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[id] = &model.Listing{
		ID: id, Title: "test item", OwnerID: ownerID, OwnerName: "Owner Name",
		Status: model.ListingAvailable,
	}
}

func (s *fakeStore) listing(t *testing.T, id string) *model.Listing {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		t.Fatalf("listing %s missing", id)
	}
	cp := *l
	return &cp
}

func (s *fakeStore) request(t *testing.T, id string) *model.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		t.Fatalf("request %s missing", id)
	}
	cp := *r
	return &cp
}

func newTestManager(store *fakeStore, at time.Time) *Manager {
	m := New(store, 2*time.Hour)
	m.now = func() time.Time { return at }
	return m
}

func TestCreateRequest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		store := newFakeStore()
		store.addListing("L1", "owner")
		m := newTestManager(store, now)

		r, err := m.CreateRequest(ctx, CreateRequestInput{
			ListingID: "L1", RequesterID: "alice", RequesterName: "Alice A",
			Message: "can I pick this up?", PickupTime: "tonight",
		})
		if err != nil {
			t.Fatalf("CreateRequest: %v", err)
		}
		if r.Status != model.RequestPending {
			t.Errorf("status = %q, want pending", r.Status)
		}
		if r.OwnerID != "owner" || r.OwnerName != "Owner Name" {
			t.Errorf("owner fields not resolved from listing: %+v", r)
		}
		if r.ExpiresAt != nil || r.AcceptedAt != nil {
			t.Errorf("new request must not carry acceptance timestamps")
		}
		// Creation never touches the listing.
		if l := store.listing(t, "L1"); l.Status != model.ListingAvailable || l.ReservedBy != nil {
			t.Errorf("listing mutated on request creation: %+v", l)
		}
	})

	t.Run("listing missing", func(t *testing.T) {
		m := newTestManager(newFakeStore(), now)
		_, err := m.CreateRequest(ctx, CreateRequestInput{ListingID: "nope", RequesterID: "alice"})
		if !errors.Is(err, repository.ErrListingNotFound) {
			t.Fatalf("err = %v, want ErrListingNotFound", err)
		}
	})

	t.Run("listing not available", func(t *testing.T) {
		store := newFakeStore()
		store.addListing("L1", "owner")
		store.listings["L1"].Status = model.ListingReserved
		m := newTestManager(store, now)

		_, err := m.CreateRequest(ctx, CreateRequestInput{ListingID: "L1", RequesterID: "alice"})
		if !errors.Is(err, ErrNotAvailable) {
			t.Fatalf("err = %v, want ErrNotAvailable", err)
		}
		if !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("ErrNotAvailable must wrap ErrConflict")
		}
	})

	t.Run("duplicate pending", func(t *testing.T) {
		store := newFakeStore()
		store.addListing("L1", "owner")
		m := newTestManager(store, now)

		if _, err := m.CreateRequest(ctx, CreateRequestInput{ListingID: "L1", RequesterID: "alice"}); err != nil {
			t.Fatalf("first request: %v", err)
		}
		_, err := m.CreateRequest(ctx, CreateRequestInput{ListingID: "L1", RequesterID: "alice"})
		if !errors.Is(err, ErrDuplicateRequest) {
			t.Fatalf("err = %v, want ErrDuplicateRequest", err)
		}
		// A different requester is still fine.
		if _, err := m.CreateRequest(ctx, CreateRequestInput{ListingID: "L1", RequesterID: "bob"}); err != nil {
			t.Fatalf("second requester: %v", err)
		}
	})
}

func TestDecideRequestAuthorization(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.addListing("L1", "owner")
	m := newTestManager(store, now)

	r, err := m.CreateRequest(ctx, CreateRequestInput{ListingID: "L1", RequesterID: "alice"})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	if _, err := m.DecideRequest(ctx, "missing", "owner", model.RequestAccepted); !errors.Is(err, repository.ErrRequestNotFound) {
		t.Errorf("missing request: err = %v, want ErrRequestNotFound", err)
	}
	if _, err := m.DecideRequest(ctx, r.ID, "alice", model.RequestAccepted); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("non-owner decide: err = %v, want ErrForbidden", err)
	}
	if _, err := m.DecideRequest(ctx, r.ID, "owner", "maybe"); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("bad decision: err = %v, want ErrInvalidDecision", err)
	}
}

func TestDecideRequestReject(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.addListing("L1", "owner")
	m := newTestManager(store, now)

	r, _ := m.CreateRequest(ctx, CreateRequestInput{ListingID: "L1", RequesterID: "alice"})
	got, err := m.DecideRequest(ctx, r.ID, "owner", model.RequestRejected)
	if err != nil {
		t.Fatalf("DecideRequest: %v", err)
	}
	if got.Status != model.RequestRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}
	if got.ExpiresAt != nil {
		t.Errorf("rejection must not set an expiry")
	}
	if l := store.listing(t, "L1"); l.Status != model.ListingAvailable {
		t.Errorf("rejection must not touch the listing, got status %q", l.Status)
	}
}

func TestDecideRequestAccept(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.addListing("L1", "owner")
	m := newTestManager(store, now)

	r1, _ := m.CreateRequest(ctx, CreateRequestInput{ListingID: "L1", RequesterID: "alice"})
	r2, _ := m.CreateRequest(ctx, CreateRequestInput{ListingID: "L1", RequesterID: "bob"})

	got, err := m.DecideRequest(ctx, r1.ID, "owner", model.RequestAccepted)
	if err != nil {
		t.Fatalf("DecideRequest: %v", err)
	}

	wantExp := now.Add(2 * time.Hour)
	if got.Status != model.RequestAccepted {
		t.Errorf("status = %q, want accepted", got.Status)
	}
	if got.AcceptedAt == nil || !got.AcceptedAt.Equal(now) {
		t.Errorf("acceptedAt = %v, want %v", got.AcceptedAt, now)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(wantExp) {
		t.Errorf("expiresAt = %v, want %v", got.ExpiresAt, wantExp)
	}

	l := store.listing(t, "L1")
	if l.Status != model.ListingReserved {
		t.Errorf("listing status = %q, want reserved", l.Status)
	}
	if l.ReservedBy == nil || *l.ReservedBy != "alice" {
		t.Errorf("reservedBy = %v, want alice", l.ReservedBy)
	}
	// Both expiry stamps describe the same pickup window.
	if l.ExpiresAt == nil || !l.ExpiresAt.Equal(wantExp) {
		t.Errorf("listing expiresAt = %v, want %v", l.ExpiresAt, wantExp)
	}
	// Reserved implies reservedBy and expiresAt are both set.
	if l.Status == model.ListingReserved && (l.ReservedBy == nil || l.ExpiresAt == nil) {
		t.Errorf("reserved listing missing reservation fields: %+v", l)
	}

	// The competing pending request was rejected in the same operation.
	if other := store.request(t, r2.ID); other.Status != model.RequestRejected {
		t.Errorf("competing request status = %q, want rejected", other.Status)
	}

	// Accepting the already-rejected competitor now fails: the listing
	// is gone from the available pool.
	if _, err := m.DecideRequest(ctx, r2.ID, "owner", model.RequestAccepted); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("accept after reserve: err = %v, want ErrConflict", err)
	}
}

func TestConcurrentAcceptanceSingleWinner(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.addListing("L1", "owner")
	m := newTestManager(store, now)

	r1, _ := m.CreateRequest(ctx, CreateRequestInput{ListingID: "L1", RequesterID: "alice"})
	r2, _ := m.CreateRequest(ctx, CreateRequestInput{ListingID: "L1", RequesterID: "bob"})

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, id := range []string{r1.ID, r2.ID} {
		wg.Add(1)
		go func(reqID string) {
			defer wg.Done()
			_, err := m.DecideRequest(ctx, reqID, "owner", model.RequestAccepted)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins = %d, conflicts = %d; want exactly one of each", wins, conflicts)
	}

	l := store.listing(t, "L1")
	if l.Status != model.ListingReserved || l.ReservedBy == nil {
		t.Fatalf("listing not reserved exactly once: %+v", l)
	}
	if *l.ReservedBy != "alice" && *l.ReservedBy != "bob" {
		t.Fatalf("reservedBy = %q, want one of the two requesters", *l.ReservedBy)
	}
}

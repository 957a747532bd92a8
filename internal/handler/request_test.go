package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/giveaway-market/internal/lifecycle"
	"github.com/iliyamo/giveaway-market/internal/model"
	"github.com/iliyamo/giveaway-market/internal/repository"
)

// fakeReservationStore is a minimal in-memory lifecycle.Store.  Like the
// SQL implementation, AcceptRequest fails with ErrConflict unless the
// listing is still available.
type fakeReservationStore struct {
	listings map[string]*model.Listing
	requests map[string]*model.Request
}

func (s *fakeReservationStore) GetListing(_ context.Context, id string) (*model.Listing, error) {
	l, ok := s.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *fakeReservationStore) GetRequest(_ context.Context, id string) (*model.Request, error) {
	r, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeReservationStore) PendingExists(_ context.Context, listingID, requesterID string) (bool, error) {
	for _, r := range s.requests {
		if r.ListingID == listingID && r.RequesterID == requesterID && r.Status == model.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeReservationStore) CreateRequest(_ context.Context, req *model.Request) error {
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *fakeReservationStore) RejectRequest(_ context.Context, id string) error {
	r, ok := s.requests[id]
	if !ok {
		return repository.ErrRequestNotFound
	}
	r.Status = model.RequestRejected
	return nil
}

func (s *fakeReservationStore) AcceptRequest(_ context.Context, req *model.Request, now, expiresAt time.Time) error {
	l, ok := s.listings[req.ListingID]
	if !ok {
		return repository.ErrListingNotFound
	}
	if l.Status != model.ListingAvailable {
		return repository.ErrConflict
	}
	l.Status = model.ListingReserved
	l.ReservedBy = &req.RequesterID
	l.ReservedAt = &now
	l.ExpiresAt = &expiresAt
	r := s.requests[req.ID]
	r.Status = model.RequestAccepted
	r.AcceptedAt = &now
	r.ExpiresAt = &expiresAt
	return nil
}

type fakeUsers struct{ users map[string]model.User }

func (f fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

type fakeRequestLister struct{ requests []model.Request }

func (f fakeRequestLister) ListByOwner(_ context.Context, _ string) ([]model.Request, error) {
	return f.requests, nil
}

func (f fakeRequestLister) ListByRequester(_ context.Context, _ string) ([]model.Request, error) {
	return f.requests, nil
}

type fakeListingResolver struct{ byID map[string]model.Listing }

func (f fakeListingResolver) GetByIDs(_ context.Context, ids []string) (map[string]model.Listing, error) {
	out := map[string]model.Listing{}
	for _, id := range ids {
		if l, ok := f.byID[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

func jsonCtx(method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
	}
	return c, rec
}

func newRequestFixture() (*fakeReservationStore, *RequestHandler) {
	store := &fakeReservationStore{
		listings: map[string]*model.Listing{
			"l1": {ID: "l1", Title: "Blue couch", OwnerID: "owner1", OwnerName: "Olga Ivanova", Status: model.ListingAvailable},
		},
		requests: map[string]*model.Request{},
	}
	users := fakeUsers{users: map[string]model.User{
		"owner1": {ID: "owner1", FirstName: "Olga", LastName: "Ivanova"},
		"req1":   {ID: "req1", FirstName: "Petr", LastName: "Smirnov"},
	}}
	h := NewRequestHandler(lifecycle.New(store, time.Hour), fakeRequestLister{}, users, fakeListingResolver{})
	return store, h
}

func TestCreateRequestStatusCodes(t *testing.T) {
	t.Run("unknown listing is 404", func(t *testing.T) {
		_, h := newRequestFixture()
		c, rec := jsonCtx(http.MethodPost, "/api/requests", `{"listingId":"nope"}`, "req1")
		if err := h.Create(c); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("reserved listing is 400", func(t *testing.T) {
		store, h := newRequestFixture()
		store.listings["l1"].Status = model.ListingReserved
		c, rec := jsonCtx(http.MethodPost, "/api/requests", `{"listingId":"l1"}`, "req1")
		if err := h.Create(c); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "no longer available") {
			t.Fatalf("body = %s, want unavailable message", rec.Body.String())
		}
	})

	t.Run("duplicate pending is 400", func(t *testing.T) {
		store, h := newRequestFixture()
		store.requests["r0"] = &model.Request{ID: "r0", ListingID: "l1", RequesterID: "req1", Status: model.RequestPending}
		c, rec := jsonCtx(http.MethodPost, "/api/requests", `{"listingId":"l1"}`, "req1")
		if err := h.Create(c); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "already requested") {
			t.Fatalf("body = %s, want duplicate message", rec.Body.String())
		}
	})

	t.Run("valid request is 201", func(t *testing.T) {
		_, h := newRequestFixture()
		c, rec := jsonCtx(http.MethodPost, "/api/requests", `{"listingId":"l1","message":"still there?"}`, "req1")
		if err := h.Create(c); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
	})
}

func TestDecideRequestStatusCodes(t *testing.T) {
	pending := func(store *fakeReservationStore) {
		store.requests["r1"] = &model.Request{
			ID: "r1", ListingID: "l1", RequesterID: "req1", OwnerID: "owner1", Status: model.RequestPending,
		}
	}
	decide := func(h *RequestHandler, id, userID, body string) *httptest.ResponseRecorder {
		c, rec := jsonCtx(http.MethodPut, "/api/requests/"+id, body, userID)
		c.SetPath("/api/requests/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		if err := h.Decide(c); err != nil {
			panic(err)
		}
		return rec
	}

	t.Run("unknown request is 404", func(t *testing.T) {
		_, h := newRequestFixture()
		if rec := decide(h, "nope", "owner1", `{"status":"rejected"}`); rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("non-owner is 403", func(t *testing.T) {
		store, h := newRequestFixture()
		pending(store)
		if rec := decide(h, "r1", "req1", `{"status":"accepted"}`); rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("acceptance race lost is 400", func(t *testing.T) {
		store, h := newRequestFixture()
		pending(store)
		store.listings["l1"].Status = model.ListingReserved
		rec := decide(h, "r1", "owner1", `{"status":"accepted"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "no longer available") {
			t.Fatalf("body = %s, want unavailable message", rec.Body.String())
		}
	})

	t.Run("bad status value is 400", func(t *testing.T) {
		store, h := newRequestFixture()
		pending(store)
		if rec := decide(h, "r1", "owner1", `{"status":"maybe"}`); rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejection is 200", func(t *testing.T) {
		store, h := newRequestFixture()
		pending(store)
		if rec := decide(h, "r1", "owner1", `{"status":"rejected"}`); rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})
}

func TestListRequestsCarryListing(t *testing.T) {
	users := fakeUsers{users: map[string]model.User{"owner1": {ID: "owner1"}}}
	lister := fakeRequestLister{requests: []model.Request{
		{ID: "r1", ListingID: "l1", RequesterID: "req1", OwnerID: "owner1", Status: model.RequestPending},
		{ID: "r2", ListingID: "gone", RequesterID: "req2", OwnerID: "owner1", Status: model.RequestPending},
	}}
	resolver := fakeListingResolver{byID: map[string]model.Listing{
		"l1": {ID: "l1", Title: "Blue couch", ImageURL: "http://img/couch.jpg", Status: model.ListingReserved},
	}}
	h := NewRequestHandler(lifecycle.New(&fakeReservationStore{listings: map[string]*model.Listing{}, requests: map[string]*model.Request{}}, time.Hour), lister, users, resolver)

	c, rec := jsonCtx(http.MethodGet, "/api/requests/received", "", "owner1")
	if err := h.Received(c); err != nil {
		t.Fatalf("Received: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out []struct {
		ID      string         `json:"id"`
		Listing *model.Listing `json:"listing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Listing == nil || out[0].Listing.Title != "Blue couch" {
		t.Fatalf("first request should carry its listing, got %+v", out[0].Listing)
	}
	// A purged listing leaves the field empty instead of failing the list.
	if out[1].Listing != nil {
		t.Fatalf("second request should have no listing, got %+v", out[1].Listing)
	}
}

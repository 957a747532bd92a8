package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/giveaway-market/internal/lifecycle"
	"github.com/iliyamo/giveaway-market/internal/model"
	"github.com/iliyamo/giveaway-market/internal/queue"
	"github.com/iliyamo/giveaway-market/internal/repository"
	queue_publisher "github.com/iliyamo/giveaway-market/internal/service"
)

// The handler reads through narrow views of the repositories so the
// endpoint behavior can be exercised against in-memory stores.
type userGetter interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

type requestLister interface {
	ListByOwner(ctx context.Context, ownerID string) ([]model.Request, error)
	ListByRequester(ctx context.Context, requesterID string) ([]model.Request, error)
}

type listingResolver interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]model.Listing, error)
}

// RequestHandler serves the pickup-request endpoints.  All state
// transitions go through the lifecycle manager; this layer only binds
// bodies, resolves the caller and translates errors to status codes.
type RequestHandler struct {
	manager  *lifecycle.Manager
	requests requestLister
	users    userGetter
	listings listingResolver
}

func NewRequestHandler(m *lifecycle.Manager, requests requestLister, users userGetter, listings listingResolver) *RequestHandler {
	if m == nil || requests == nil || users == nil || listings == nil {
		panic("nil dependency passed to NewRequestHandler")
	}
	return &RequestHandler{manager: m, requests: requests, users: users, listings: listings}
}

type createRequestReq struct {
	ListingID  string `json:"listingId"`
	Message    string `json:"message"`
	PickupTime string `json:"pickupTime"`
}

type decideRequestReq struct {
	Status string `json:"status"` // accepted | rejected
}

// requestView is a Request with its listing resolved, so the requests
// screens can render cards without a second round trip.
type requestView struct {
	model.Request
	Listing *model.Listing `json:"listing,omitempty"`
}

// Create handles POST /api/requests.
func (h *RequestHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.ListingID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "listingId is required"})
	}

	ctx := c.Request().Context()
	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	r, err := h.manager.CreateRequest(ctx, lifecycle.CreateRequestInput{
		ListingID:     req.ListingID,
		RequesterID:   u.ID,
		RequesterName: u.DisplayName(),
		Message:       req.Message,
		PickupTime:    req.PickupTime,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrListingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		case errors.Is(err, lifecycle.ErrNotAvailable):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "item is no longer available"})
		case errors.Is(err, lifecycle.ErrDuplicateRequest):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "you already requested this item"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error creating request"})
	}
	return c.JSON(http.StatusCreated, r)
}

// Received handles GET /api/requests/received: requests on the caller's
// listings, newest first.
func (h *RequestHandler) Received(c echo.Context) error {
	return h.list(c, h.requests.ListByOwner)
}

// Sent handles GET /api/requests/sent: requests the caller has made.
func (h *RequestHandler) Sent(c echo.Context) error {
	return h.list(c, h.requests.ListByRequester)
}

func (h *RequestHandler) list(c echo.Context, fetch func(context.Context, string) ([]model.Request, error)) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	requests, err := fetch(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error fetching requests"})
	}
	return c.JSON(http.StatusOK, h.withListings(ctx, requests))
}

// withListings resolves each request's listing in one batched lookup.
// A purged listing leaves the field empty rather than failing the list.
func (h *RequestHandler) withListings(ctx context.Context, requests []model.Request) []requestView {
	ids := make([]string, 0, len(requests))
	seen := map[string]struct{}{}
	for _, r := range requests {
		if _, ok := seen[r.ListingID]; !ok {
			seen[r.ListingID] = struct{}{}
			ids = append(ids, r.ListingID)
		}
	}

	var listings map[string]model.Listing
	if len(ids) > 0 {
		var err error
		listings, err = h.listings.GetByIDs(ctx, ids)
		if err != nil {
			log.Printf("requests: listing lookup failed: %v", err)
		}
	}

	out := make([]requestView, 0, len(requests))
	for _, r := range requests {
		v := requestView{Request: r}
		if l, ok := listings[r.ListingID]; ok {
			v.Listing = &l
		}
		out = append(out, v)
	}
	return out
}

// Decide handles PUT /api/requests/:id.  Only the listing owner may
// decide.  Acceptance reserves the listing and rejects the competing
// pending requests in one transaction; losing the acceptance race
// surfaces the same way an already-reserved listing does, as 400.
func (h *RequestHandler) Decide(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req decideRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	r, err := h.manager.DecideRequest(c.Request().Context(), c.Param("id"), userID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "item is no longer available"})
		case errors.Is(err, lifecycle.ErrInvalidDecision):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be accepted or rejected"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error updating request"})
	}

	if r.Status == model.RequestAccepted {
		ev := queue.ReservationAcceptedEvent{
			RequestID:     r.ID,
			ListingID:     r.ListingID,
			OwnerID:       r.OwnerID,
			OwnerName:     r.OwnerName,
			RequesterID:   r.RequesterID,
			RequesterName: r.RequesterName,
			PickupTime:    r.PickupTime,
			AcceptedAt:    r.AcceptedAt.Format(time.RFC3339),
			ExpiresAt:     r.ExpiresAt.Format(time.RFC3339),
		}
		// Best effort: the reservation is already committed, a broker
		// outage must not fail the decision.
		if err := queue_publisher.PublishReservationAccepted(c.Request().Context(), ev); err != nil {
			log.Printf("requests: publish reservation.accepted failed: %v", err)
		}
	}
	return c.JSON(http.StatusOK, r)
}

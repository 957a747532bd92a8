package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/giveaway-market/internal/model"
	"github.com/iliyamo/giveaway-market/internal/repository"
	"github.com/iliyamo/giveaway-market/internal/utils"
)

// ListingHandler serves the listing browse and creation endpoints.  The
// reservation columns of a listing are read-only here; they change only
// through the request lifecycle.
type ListingHandler struct {
	Listings *repository.ListingRepo
	Users    *repository.UserRepo
}

func NewListingHandler(listings *repository.ListingRepo, users *repository.UserRepo) *ListingHandler {
	if listings == nil || users == nil {
		panic("nil repository passed to NewListingHandler")
	}
	return &ListingHandler{Listings: listings, Users: users}
}

type createListingReq struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Quantity     string  `json:"quantity"`
	LocationName string  `json:"locationName"`
	ImageURL     string  `json:"imageUrl"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// List handles GET /api/listings.  Public; the client computes distance
// and filtering locally from the coordinates.
func (h *ListingHandler) List(c echo.Context) error {
	listings, err := h.Listings.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error fetching listings"})
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	return c.JSON(http.StatusOK, listings)
}

// Get handles GET /api/listings/:id.
func (h *ListingHandler) Get(c echo.Context) error {
	l, err := h.Listings.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error fetching listing"})
	}
	return c.JSON(http.StatusOK, l)
}

// Create handles POST /api/listings.  The owner's identity and display
// name come from the access token, never from the body.
func (h *ListingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createListingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	l := &model.Listing{
		ID:           utils.NewID(),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Category:     req.Category,
		Quantity:     req.Quantity,
		LocationName: req.LocationName,
		ImageURL:     req.ImageURL,
		OwnerID:      u.ID,
		OwnerName:    u.DisplayName(),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Status:       model.ListingAvailable,
	}
	if err := h.Listings.Create(ctx, l); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error creating listing"})
	}
	return c.JSON(http.StatusCreated, l)
}

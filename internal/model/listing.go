package model

import "time"

// Listing status values.  A listing starts out available, becomes
// reserved when the owner accepts a pickup request, and may be marked
// sold.  Reserved and sold listings carry an expiry after which the
// cleanup sweep removes them outright.
const (
	ListingAvailable = "available"
	ListingReserved  = "reserved"
	ListingSold      = "sold"
)

// Listing represents an item offered for free pickup, as stored in the
// `listings` table.  ReservedBy, ReservedAt and ExpiresAt are set
// together when a request is accepted and are null while the listing is
// available.
//
// Fields:
//  ID           – ULID primary key.
//  Title        – short item title.
//  Description  – free-form description.
//  Category     – category slug chosen by the owner.
//  Quantity     – free-form quantity text (e.g. "2 bags").
//  LocationName – human-readable pickup area.
//  ImageURL     – item photo URL or data URI.
//  OwnerID      – user who created the listing.
//  OwnerName    – denormalized display name of the owner.
//  Latitude     – pickup latitude.
//  Longitude    – pickup longitude.
//  Status       – available | reserved | sold.
//  ReservedBy   – user holding the reservation (nullable).
//  ReservedAt   – when the reservation was granted (nullable).
//  ExpiresAt    – end of the pickup window (nullable).
//  CreatedAt    – creation timestamp.
type Listing struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Quantity     string     `json:"quantity"`
	LocationName string     `json:"locationName"`
	ImageURL     string     `json:"imageUrl"`
	OwnerID      string     `json:"ownerId"`
	OwnerName    string     `json:"ownerName"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	Status       string     `json:"status"`
	ReservedBy   *string    `json:"reservedBy,omitempty"`
	ReservedAt   *time.Time `json:"reservedAt,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

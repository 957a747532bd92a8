package model

import "time"

// Request status values.  At most one request per (listing, requester)
// may be pending at a time; accepting one request rejects every other
// pending request on the same listing in the same operation.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// Request is a pickup request made against a listing, as stored in the
// `requests` table.  AcceptedAt and ExpiresAt are only set when the
// owner accepts; ExpiresAt marks the end of the pickup window after
// which the sweep deletes the row regardless of status.
//
// Fields:
//  ID            – ULID primary key.
//  ListingID     – listing being requested.
//  RequesterID   – user asking to pick the item up.
//  RequesterName – denormalized display name of the requester.
//  OwnerID       – owner of the listing (authorizes decisions).
//  OwnerName     – denormalized display name of the owner.
//  Message       – note from the requester to the owner.
//  PickupTime    – free-form proposed pickup time.
//  Status        – pending | accepted | rejected.
//  CreatedAt     – creation timestamp.
//  AcceptedAt    – when the owner accepted (nullable).
//  ExpiresAt     – end of the pickup window (nullable).
type Request struct {
	ID            string     `json:"id"`
	ListingID     string     `json:"listingId"`
	RequesterID   string     `json:"requesterId"`
	RequesterName string     `json:"requesterName"`
	OwnerID       string     `json:"ownerId"`
	OwnerName     string     `json:"ownerName"`
	Message       string     `json:"message"`
	PickupTime    string     `json:"pickupTime"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	AcceptedAt    *time.Time `json:"acceptedAt,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

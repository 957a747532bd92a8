// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// ReservationAcceptedEvent is published when an owner accepts a pickup
// request.  It carries enough information for downstream consumers to
// log or notify without querying the primary database.
type ReservationAcceptedEvent struct {
	RequestID     string `json:"request_id"`
	ListingID     string `json:"listing_id"`
	OwnerID       string `json:"owner_id"`
	OwnerName     string `json:"owner_name"`
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
	PickupTime    string `json:"pickup_time"`
	AcceptedAt    string `json:"accepted_at"`
	ExpiresAt     string `json:"expires_at"`
}

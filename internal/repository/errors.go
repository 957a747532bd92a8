// Package repository defines the MySQL data access layer along with the
// sentinel error values shared across repositories.  Handlers translate
// these sentinels into HTTP status codes: not-found errors become 404,
// ErrForbidden becomes 403 and ErrConflict becomes 400.
package repository

import "errors"

// ErrListingNotFound is returned when a listing id does not exist.
var ErrListingNotFound = errors.New("listing not found")

// ErrRequestNotFound is returned when a pickup request id does not exist.
var ErrRequestNotFound = errors.New("request not found")

// ErrUserNotFound is returned when a user id or email does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrPostNotFound is returned when a forum post id does not exist.
var ErrPostNotFound = errors.New("post not found")

// ErrEmailExists is returned when registration collides with an
// existing account.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as deciding someone else's request.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state: requesting a listing that is no longer available,
// filing a duplicate pending request, or losing the race to reserve a
// listing at acceptance time.
var ErrConflict = errors.New("conflict")

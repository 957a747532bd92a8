package model

import "time"

// User represents an application user as stored in the `users` table.
// PasswordHash is a bcrypt digest and never leaves the repository and
// auth layers; handlers expose their own response shapes.
//
// Fields:
//  ID           – ULID primary key.
//  Email        – unique, lowercased email address.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name.
//  LastName     – family name.
//  CreatedAt    – timestamp of registration.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// DisplayName returns the name shown next to listings, requests and
// messages a user touches.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// RefreshToken models an entry in the `refresh_tokens` table.  The
// plain token is never stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

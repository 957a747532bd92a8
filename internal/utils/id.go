package utils

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// NewID returns a new ULID string.  ULIDs sort lexicographically by
// creation time, which keeps the "newest first" listing queries cheap
// without a separate sequence column.
func NewID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a ULID string, used as the id for users, sessions and
// callback tokens. ULIDs sort lexicographically by creation time, so token
// rows under a user key come back in issue order.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

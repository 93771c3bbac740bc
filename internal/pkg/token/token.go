package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewRefreshToken generates the opaque 64-character hex credential a session
// holds for re-issuing bearers. Unlike callback token keys these are never
// typed by hand, so the full 256-bit keyspace is used.
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

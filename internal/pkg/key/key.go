package key

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// alphabet is the set of characters a callback token key is drawn from.
// Digits only: keys are typed by hand from an email or SMS, often on a
// phone keypad.
const alphabet = "0123456789"

// Generate returns a random key of n characters drawn uniformly from the
// alphabet. The source is crypto/rand; a guessable key would be a direct
// authentication bypass.
func Generate(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("generate token key: %w", err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}

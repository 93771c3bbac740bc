package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Length(t *testing.T) {
	for _, n := range []int{1, 6, 12} {
		k, err := Generate(n)
		require.NoError(t, err)
		assert.Len(t, k, n)
	}
}

func TestGenerate_AlphabetOnly(t *testing.T) {
	k, err := Generate(64)
	require.NoError(t, err)
	for _, c := range k {
		assert.Contains(t, alphabet, string(c))
	}
}

func TestGenerate_NotConstant(t *testing.T) {
	// 6 digits collide with probability 1e-6 per pair; 20 draws all being
	// equal would mean the random source is broken.
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		k, err := Generate(6)
		require.NoError(t, err)
		seen[k] = true
	}
	assert.Greater(t, len(seen), 1)
}

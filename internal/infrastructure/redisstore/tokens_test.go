package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-passwordless-api/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *CallbackTokenStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCallbackTokenStore(client, 30*time.Minute)
}

func newToken(userID, key string, tokenType domain.TokenType) *domain.CallbackToken {
	return &domain.CallbackToken{
		TokenID:   "tok-" + key,
		UserID:    userID,
		Type:      tokenType,
		Key:       key,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().Add(15 * time.Minute).Unix(),
	}
}

func TestCreateAndFindActive_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tok := newToken("u1", "123456", domain.TokenTypeAuth)
	require.NoError(t, s.Create(ctx, tok))

	got, err := s.FindActive(ctx, "u1", "123456", domain.TokenTypeAuth)
	require.NoError(t, err)
	assert.Equal(t, tok.TokenID, got.TokenID)
	assert.Equal(t, tok.Key, got.Key)
	assert.True(t, got.IsActive)
}

func TestFindActive_WrongType_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newToken("u1", "123456", domain.TokenTypeAuth)))

	_, err := s.FindActive(ctx, "u1", "123456", domain.TokenTypeVerify)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestActiveKeyExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exists, err := s.ActiveKeyExists(ctx, "u1", "123456", domain.TokenTypeAuth)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Create(ctx, newToken("u1", "123456", domain.TokenTypeAuth)))

	exists, err = s.ActiveKeyExists(ctx, "u1", "123456", domain.TokenTypeAuth)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestConsume_SingleUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tok := newToken("u1", "123456", domain.TokenTypeAuth)
	require.NoError(t, s.Create(ctx, tok))

	require.NoError(t, s.Consume(ctx, tok))
	assert.False(t, tok.IsActive)

	// Second consume of the same token must fail.
	err := s.Consume(ctx, tok)
	assert.True(t, errors.Is(err, domain.ErrTokenConsumed))

	// And it can no longer be found.
	_, err = s.FindActive(ctx, "u1", "123456", domain.TokenTypeAuth)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestConsume_ConcurrentCallers_ExactlyOneWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tok := newToken("u1", "123456", domain.TokenTypeAuth)
	require.NoError(t, s.Create(ctx, tok))

	const callers = 8
	errCh := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			cp := *tok
			errCh <- s.Consume(ctx, &cp)
		}()
	}

	wins := 0
	for i := 0; i < callers; i++ {
		if err := <-errCh; err == nil {
			wins++
		} else {
			assert.True(t, errors.Is(err, domain.ErrTokenConsumed))
		}
	}
	assert.Equal(t, 1, wins)
}

func TestTokensPerTypeAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	auth := newToken("u1", "111111", domain.TokenTypeAuth)
	verify := newToken("u1", "222222", domain.TokenTypeVerify)
	require.NoError(t, s.Create(ctx, auth))
	require.NoError(t, s.Create(ctx, verify))

	require.NoError(t, s.Consume(ctx, auth))

	got, err := s.FindActive(ctx, "u1", "222222", domain.TokenTypeVerify)
	require.NoError(t, err)
	assert.Equal(t, verify.TokenID, got.TokenID)
}

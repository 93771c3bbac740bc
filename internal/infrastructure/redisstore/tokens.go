package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-passwordless-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

// CallbackTokenStore keeps callback tokens in Redis as an alternative to the
// DynamoDB table. One key per (user, type, token key); an inactive token is
// simply gone, so DEL is the consume primitive. Redis executes it atomically
// and returns how many keys it removed, which gives the same exactly-one-wins
// guarantee as the DynamoDB conditional update.
//
// Unlike the DynamoDB table, consumed tokens leave no audit row behind.
// Retention is handled by the key TTL.
type CallbackTokenStore struct {
	client    *redis.Client
	retention time.Duration // key TTL; must be >= the validation TTL
}

func NewCallbackTokenStore(client *redis.Client, retention time.Duration) *CallbackTokenStore {
	return &CallbackTokenStore{client: client, retention: retention}
}

func tokenKey(userID string, tokenType domain.TokenType, key string) string {
	return fmt.Sprintf("cbtoken:%s:%s:%s", userID, tokenType, key)
}

func (s *CallbackTokenStore) Create(ctx context.Context, t *domain.CallbackToken) error {
	blob, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal callback token: %w", err)
	}
	return s.client.Set(ctx, tokenKey(t.UserID, t.Type, t.Key), blob, s.retention).Err()
}

func (s *CallbackTokenStore) FindActive(ctx context.Context, userID, key string, tokenType domain.TokenType) (*domain.CallbackToken, error) {
	blob, err := s.client.Get(ctx, tokenKey(userID, tokenType, key)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("callback token not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var t domain.CallbackToken
	if err := json.Unmarshal(blob, &t); err != nil {
		return nil, fmt.Errorf("unmarshal callback token: %w", err)
	}
	return &t, nil
}

func (s *CallbackTokenStore) ActiveKeyExists(ctx context.Context, userID, key string, tokenType domain.TokenType) (bool, error) {
	n, err := s.client.Exists(ctx, tokenKey(userID, tokenType, key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *CallbackTokenStore) Consume(ctx context.Context, t *domain.CallbackToken) error {
	n, err := s.client.Del(ctx, tokenKey(t.UserID, t.Type, t.Key)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("callback token %s: %w", t.TokenID, domain.ErrTokenConsumed)
	}
	t.IsActive = false
	return nil
}

package domain

import "time"

// TokenType distinguishes the two callback-token flows.
type TokenType string

const (
	// TokenTypeAuth tokens authenticate a login when redeemed.
	TokenTypeAuth TokenType = "AUTH"
	// TokenTypeVerify tokens confirm ownership of an alias when redeemed.
	TokenTypeVerify TokenType = "VERIFY"
)

// CallbackToken is a short-lived single-use code delivered out-of-band.
// PK: user_id, SK: token_id. Several tokens may be active at once for the
// same user and type; the key is only guaranteed unique among *active*
// tokens of that user/type. ExpiresAt is a Unix timestamp used as the
// DynamoDB TTL so dead rows are swept out of band.
type CallbackToken struct {
	TokenID   string    `json:"id" dynamodbav:"token_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Type      TokenType `json:"type" dynamodbav:"type"`
	Key       string    `json:"key" dynamodbav:"key"`
	IsActive  bool      `json:"is_active" dynamodbav:"is_active"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Expired reports whether the token has outlived the given time-to-live.
func (t *CallbackToken) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(t.CreatedAt) > ttl
}

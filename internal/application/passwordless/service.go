package passwordless

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-passwordless-api/internal/config"
	"github.com/go-passwordless-api/internal/domain"
	"github.com/go-passwordless-api/internal/metrics"
	"github.com/go-passwordless-api/internal/pkg/id"
	"github.com/go-passwordless-api/internal/pkg/key"
)

// User store field names used in partial update maps.
const (
	fieldEmailVerified  = "email_verified"
	fieldMobileVerified = "mobile_verified"
)

type Service interface {
	// Resolve maps a claimed alias to a user, creating an unverified account
	// when registration is enabled.
	Resolve(ctx context.Context, aliasType domain.AliasType, aliasValue string) (*domain.User, error)
	// User fetches a user by id; used by the verify flow, which acts on the
	// authenticated caller rather than a claimed alias.
	User(ctx context.Context, userID string) (*domain.User, error)
	// SendToken generates, persists and dispatches a callback token. The
	// returned bool is the delivery outcome; it is false without error when
	// the transport refused the message.
	SendToken(ctx context.Context, user *domain.User, aliasType domain.AliasType, tokenType domain.TokenType, msg MessageContext) (bool, error)
	// ValidateAndConsume redeems a submitted token key. On success the token
	// is deactivated forever and the owning user is returned. When
	// requiredUserID is non-empty the alias must resolve to that user.
	ValidateAndConsume(ctx context.Context, aliasType domain.AliasType, aliasValue, submittedKey string, tokenType domain.TokenType, requiredUserID string) (*domain.User, error)
	// Config exposes the immutable runtime configuration to the glue layer.
	Config() *config.Config
}

type userStore interface {
	GetByAlias(ctx context.Context, aliasType domain.AliasType, value string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type tokenStore interface {
	Create(ctx context.Context, t *domain.CallbackToken) error
	FindActive(ctx context.Context, userID, key string, tokenType domain.TokenType) (*domain.CallbackToken, error)
	ActiveKeyExists(ctx context.Context, userID, key string, tokenType domain.TokenType) (bool, error)
	Consume(ctx context.Context, t *domain.CallbackToken) error
}

// keyGenerator produces a candidate token key of the given length.
type keyGenerator func(length int) (string, error)

type service struct {
	users       userStore
	tokens      tokenStore
	dispatcher  *Dispatcher
	cfg         *config.Config
	logger      *slog.Logger
	generateKey keyGenerator
	now         func() time.Time
}

type Deps struct {
	UserRepo   userStore
	TokenRepo  tokenStore
	Dispatcher *Dispatcher
	Config     *config.Config
	Logger     *slog.Logger

	// GenerateKey and Now default to key.Generate and time.Now.
	GenerateKey keyGenerator
	Now         func() time.Time
}

func NewService(deps Deps) Service {
	s := &service{
		users:       deps.UserRepo,
		tokens:      deps.TokenRepo,
		dispatcher:  deps.Dispatcher,
		cfg:         deps.Config,
		logger:      deps.Logger,
		generateKey: deps.GenerateKey,
		now:         deps.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.generateKey == nil {
		s.generateKey = key.Generate
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Config() *config.Config { return s.cfg }

func (s *service) Resolve(ctx context.Context, aliasType domain.AliasType, aliasValue string) (*domain.User, error) {
	alias := normalizeAlias(aliasType, aliasValue)
	if alias == "" {
		return nil, fmt.Errorf("missing %s: %w", aliasType, domain.ErrInvalidAlias)
	}

	u, err := s.users.GetByAlias(ctx, aliasType, alias)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		if !s.cfg.RegisterNewUsers {
			return nil, fmt.Errorf("%s %q: %w", aliasType, alias, domain.ErrAliasNotFound)
		}
		u, err = s.register(ctx, aliasType, alias)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if u.Enable != 1 {
		return nil, fmt.Errorf("user %s: %w", u.UserID, domain.ErrAccountDisabled)
	}
	return u, nil
}

// register creates a new account holding only the claimed alias. The account
// has no usable password; a callback token is its only way in.
func (s *service) register(ctx context.Context, aliasType domain.AliasType, alias string) (*domain.User, error) {
	now := s.now().UTC()
	u := &domain.User{
		UserID:    id.New(),
		Enable:    1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if aliasType == domain.AliasMobile {
		u.Mobile = alias
	} else {
		u.Email = alias
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("registered new user from alias", "user_id", u.UserID, "alias_type", aliasType)
	return u, nil
}

func (s *service) User(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Enable != 1 {
		return nil, fmt.Errorf("user %s: %w", u.UserID, domain.ErrAccountDisabled)
	}
	return u, nil
}

func (s *service) SendToken(ctx context.Context, user *domain.User, aliasType domain.AliasType, tokenType domain.TokenType, msg MessageContext) (bool, error) {
	if staticKey, ok := s.cfg.DemoUsers[normalizeAlias(aliasType, user.Alias(aliasType))]; ok {
		// Demo accounts always receive their fixed key; nothing is persisted.
		return s.dispatcher.Send(ctx, user, aliasType, staticKey, msg), nil
	}

	tok, err := s.createToken(ctx, user, aliasType, tokenType)
	if err != nil {
		return false, err
	}

	ok := s.dispatcher.Send(ctx, user, aliasType, tok.Key, msg)
	outcome := "sent"
	if !ok {
		outcome = "delivery_failed"
	}
	metrics.TokensSentTotal.WithLabelValues(string(aliasType), string(tokenType), outcome).Inc()
	return ok, nil
}

// createToken draws candidate keys until one does not collide with an active
// token of the same user and type. Attempts are bounded; running out means
// something is badly wrong with the keyspace and nothing is persisted.
func (s *service) createToken(ctx context.Context, user *domain.User, aliasType domain.AliasType, tokenType domain.TokenType) (*domain.CallbackToken, error) {
	for attempt := 0; attempt < s.cfg.TokenGenerationAttempts; attempt++ {
		k, err := s.generateKey(s.cfg.TokenKeyLength)
		if err != nil {
			return nil, err
		}
		exists, err := s.tokens.ActiveKeyExists(ctx, user.UserID, k, tokenType)
		if err != nil {
			return nil, err
		}
		if exists {
			metrics.GenerationRetriesTotal.Inc()
			continue
		}

		now := s.now().UTC()
		tok := &domain.CallbackToken{
			TokenID:   id.New(),
			UserID:    user.UserID,
			Type:      tokenType,
			Key:       k,
			IsActive:  true,
			CreatedAt: now,
			ExpiresAt: now.Add(s.cfg.TokenTTL).Unix(),
		}
		if err := s.tokens.Create(ctx, tok); err != nil {
			return nil, err
		}
		return tok, nil
	}
	return nil, fmt.Errorf("user %s after %d attempts: %w",
		user.UserID, s.cfg.TokenGenerationAttempts, domain.ErrTokenGenerationExhausted)
}

func (s *service) ValidateAndConsume(ctx context.Context, aliasType domain.AliasType, aliasValue, submittedKey string, tokenType domain.TokenType, requiredUserID string) (*domain.User, error) {
	alias := normalizeAlias(aliasType, aliasValue)

	u, err := s.users.GetByAlias(ctx, aliasType, alias)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s lookup: %w", aliasType, domain.ErrInvalidAlias)
		}
		return nil, err
	}
	if requiredUserID != "" && u.UserID != requiredUserID {
		return nil, fmt.Errorf("alias does not belong to caller: %w", domain.ErrInvalidAlias)
	}

	if staticKey, ok := s.cfg.DemoUsers[alias]; ok {
		if submittedKey != staticKey {
			return nil, fmt.Errorf("demo key mismatch: %w", domain.ErrInvalidToken)
		}
		s.applyVerification(ctx, u, aliasType, tokenType)
		return u, nil
	}

	tok, err := s.tokens.FindActive(ctx, u.UserID, submittedKey, tokenType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.TokensConsumedTotal.WithLabelValues(string(tokenType), "not_found").Inc()
			return nil, fmt.Errorf("no active token: %w", domain.ErrInvalidToken)
		}
		return nil, err
	}

	// An expired token is reported exactly like a missing one so callers
	// cannot probe which keys ever existed. The row stays in the store
	// until the storage sweep removes it.
	if tok.Expired(s.cfg.TokenTTL, s.now()) {
		metrics.TokensConsumedTotal.WithLabelValues(string(tokenType), "expired").Inc()
		return nil, fmt.Errorf("token expired: %w", domain.ErrInvalidToken)
	}

	// Single atomic conditional write. Of concurrent redeemers exactly one
	// passes; consumption is unconditional from here on, whatever the
	// verification side effects do.
	if err := s.tokens.Consume(ctx, tok); err != nil {
		if errors.Is(err, domain.ErrTokenConsumed) {
			metrics.TokensConsumedTotal.WithLabelValues(string(tokenType), "replayed").Inc()
			return nil, fmt.Errorf("token already used: %w", domain.ErrInvalidToken)
		}
		return nil, err
	}
	metrics.TokensConsumedTotal.WithLabelValues(string(tokenType), "consumed").Inc()

	s.applyVerification(ctx, u, aliasType, tokenType)
	return u, nil
}

// applyVerification marks the alias verified when the flow requires it.
// Failures are logged and swallowed: the token is already consumed and the
// caller's authentication stands regardless.
func (s *service) applyVerification(ctx context.Context, u *domain.User, aliasType domain.AliasType, tokenType domain.TokenType) {
	if !s.shouldVerify(aliasType, tokenType) || u.AliasVerified(aliasType) {
		return
	}
	if !s.markVerified(ctx, u, aliasType) {
		s.logger.Warn("could not mark alias verified", "user_id", u.UserID, "alias_type", aliasType)
	}
}

func (s *service) shouldVerify(aliasType domain.AliasType, tokenType domain.TokenType) bool {
	if tokenType == domain.TokenTypeVerify {
		return true
	}
	if aliasType == domain.AliasMobile {
		return s.cfg.MarkMobileVerified
	}
	return s.cfg.MarkEmailVerified
}

// markVerified sets the user's verified flag for the alias type. Idempotent;
// best-effort.
func (s *service) markVerified(ctx context.Context, u *domain.User, aliasType domain.AliasType) bool {
	field := fieldEmailVerified
	if aliasType == domain.AliasMobile {
		field = fieldMobileVerified
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{field: true}); err != nil {
		return false
	}
	if aliasType == domain.AliasMobile {
		u.MobileVerified = true
	} else {
		u.EmailVerified = true
	}
	return true
}

// normalizeAlias canonicalizes an alias value before any lookup so matching
// is case-insensitive. Emails fold to lower case; mobile numbers are E.164
// and only get trimmed.
func normalizeAlias(aliasType domain.AliasType, value string) string {
	v := strings.TrimSpace(value)
	if aliasType == domain.AliasEmail {
		v = strings.ToLower(v)
	}
	return v
}

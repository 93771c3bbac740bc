package issuer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-passwordless-api/internal/domain"
	"github.com/go-passwordless-api/internal/pkg/id"
	pkgtoken "github.com/go-passwordless-api/internal/pkg/token"
)

// Service turns an authenticated user into a session credential. It sits
// outside the token engine: the engine proves who the caller is, the issuer
// decides what they get to hold afterwards.
type Service interface {
	Issue(ctx context.Context, user *domain.User) (session *domain.Session, bearer, refreshToken string, err error)
	// Refresh rotates the session's refresh token and signs a new bearer.
	Refresh(ctx context.Context, refreshToken string) (session *domain.Session, bearer, newRefreshToken string, err error)
	// Revoke disables a session so its refresh token stops working.
	Revoke(ctx context.Context, sessionID string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

type jwtSigner interface {
	Sign(userID, sessionID string) (string, error)
}

type service struct {
	sessions        sessionStore
	signer          jwtSigner
	refreshTokenDur time.Duration
}

func NewService(sessions sessionStore, signer jwtSigner, refreshTokenDur time.Duration) Service {
	return &service{sessions: sessions, signer: signer, refreshTokenDur: refreshTokenDur}
}

func (s *service) Issue(ctx context.Context, user *domain.User) (*domain.Session, string, string, error) {
	// Without a signing key no credential can be produced; bail before any
	// session row is written.
	if s.signer == nil {
		return nil, "", "", fmt.Errorf("no signing key configured: %w", domain.ErrUnauthorized)
	}
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, "", "", err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           user.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, "", "", err
	}
	bearer, err := s.signer.Sign(user.UserID, sess.SessionID)
	if err != nil {
		return nil, "", "", err
	}
	sess.User = user
	return sess, bearer, refreshToken, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*domain.Session, string, string, error) {
	if s.signer == nil {
		return nil, "", "", fmt.Errorf("no signing key configured: %w", domain.ErrUnauthorized)
	}
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		// Unknown and revoked tokens look the same to the caller.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", "", fmt.Errorf("refresh token: %w", domain.ErrUnauthorized)
		}
		return nil, "", "", err
	}
	now := time.Now().UTC()
	if sess.RefreshExpiresAt <= now.Unix() {
		return nil, "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}

	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, "", "", err
	}
	newExpiry := now.Add(s.refreshTokenDur).Unix()
	if err := s.sessions.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return nil, "", "", err
	}
	sess.RefreshToken = newToken
	sess.RefreshExpiresAt = newExpiry

	bearer, err := s.signer.Sign(sess.UserID, sess.SessionID)
	if err != nil {
		return nil, "", "", err
	}
	return sess, bearer, newToken, nil
}

func (s *service) Revoke(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

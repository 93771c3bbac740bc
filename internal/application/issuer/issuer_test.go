package issuer

import (
	"context"
	"testing"
	"time"

	"github.com/go-passwordless-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}

func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, sessionID string) (string, error) {
	args := m.Called(userID, sessionID)
	return args.String(0), args.Error(1)
}

func TestIssue_CreatesSessionAndSignsBearer(t *testing.T) {
	sessions := &mockSessionStore{}
	signer := &mockSigner{}
	user := &domain.User{UserID: "u1", Email: "a@b.com", Enable: 1}

	var stored *domain.Session
	sessions.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Session) }).Return(nil)
	signer.On("Sign", "u1", mock.AnythingOfType("string")).Return("bearer-jwt", nil)

	svc := NewService(sessions, signer, 30*24*time.Hour)
	sess, bearer, refreshToken, err := svc.Issue(context.Background(), user)

	require.NoError(t, err)
	assert.Equal(t, "bearer-jwt", bearer)
	assert.NotEmpty(t, refreshToken)
	assert.Equal(t, refreshToken, stored.RefreshToken)
	assert.Equal(t, "u1", sess.UserID)
	assert.True(t, sess.Enable)
	assert.Greater(t, sess.RefreshExpiresAt, time.Now().Unix())
	assert.Equal(t, user, sess.User)
	signer.AssertExpectations(t)
}

func TestIssue_StoreFailure_NoBearerSigned(t *testing.T) {
	sessions := &mockSessionStore{}
	signer := &mockSigner{}
	sessions.On("Put", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := NewService(sessions, signer, time.Hour)
	_, bearer, refreshToken, err := svc.Issue(context.Background(), &domain.User{UserID: "u1"})

	assert.Error(t, err)
	assert.Empty(t, bearer)
	assert.Empty(t, refreshToken)
	signer.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything)
}

func TestIssue_NoSigner_RefusesWithoutWritingSession(t *testing.T) {
	sessions := &mockSessionStore{}

	svc := NewService(sessions, nil, time.Hour)
	_, bearer, refreshToken, err := svc.Issue(context.Background(), &domain.User{UserID: "u1", Enable: 1})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, bearer)
	assert.Empty(t, refreshToken)
	sessions.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRefresh_NoSigner_Refuses(t *testing.T) {
	sessions := &mockSessionStore{}

	svc := NewService(sessions, nil, time.Hour)
	_, _, _, err := svc.Refresh(context.Background(), "some-refresh")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	sessions.AssertNotCalled(t, "GetByRefreshToken", mock.Anything, mock.Anything)
}

func TestRefresh_RotatesTokenAndSignsNewBearer(t *testing.T) {
	sessions := &mockSessionStore{}
	signer := &mockSigner{}
	sess := &domain.Session{
		SessionID: "s1", UserID: "u1", Enable: true,
		RefreshToken:     "old-refresh",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	sessions.On("GetByRefreshToken", mock.Anything, "old-refresh").Return(sess, nil)
	sessions.On("RotateRefreshToken", mock.Anything, "s1", mock.AnythingOfType("string"), mock.AnythingOfType("int64")).Return(nil)
	signer.On("Sign", "u1", "s1").Return("new-bearer", nil)

	svc := NewService(sessions, signer, 30*24*time.Hour)
	got, bearer, newToken, err := svc.Refresh(context.Background(), "old-refresh")

	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "old-refresh", newToken)
	assert.Equal(t, newToken, got.RefreshToken)
	sessions.AssertExpectations(t)
}

func TestRefresh_ExpiredToken_Rejected(t *testing.T) {
	sessions := &mockSessionStore{}
	signer := &mockSigner{}
	sess := &domain.Session{
		SessionID: "s1", UserID: "u1", Enable: true,
		RefreshToken:     "old-refresh",
		RefreshExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}
	sessions.On("GetByRefreshToken", mock.Anything, "old-refresh").Return(sess, nil)

	svc := NewService(sessions, signer, time.Hour)
	_, _, _, err := svc.Refresh(context.Background(), "old-refresh")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	sessions.AssertNotCalled(t, "RotateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRevoke_DisablesSession(t *testing.T) {
	sessions := &mockSessionStore{}
	sessions.On("Update", mock.Anything, "s1", map[string]interface{}{"enable": false}).Return(nil)

	svc := NewService(sessions, &mockSigner{}, time.Hour)
	require.NoError(t, svc.Revoke(context.Background(), "s1"))
	sessions.AssertExpectations(t)
}

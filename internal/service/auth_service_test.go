package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edu-markaz/center-api/internal/models"
	appErrors "github.com/edu-markaz/center-api/pkg/errors"
)

type mockAuthRepo struct {
	user             *models.User
	refreshTokens    map[string]*models.RefreshToken
	createRefreshErr error
	revokedAllFor    string
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user != nil && m.user.ID == id {
		return m.user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	if m.user != nil && m.user.PhoneNumber == phoneNumber {
		return m.user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.createRefreshErr != nil {
		return m.createRefreshErr
	}
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAllFor = userID
	for _, token := range m.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "center-api",
	}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{user: &models.User{ID: "u1", PhoneNumber: "+998901234567", PasswordHash: string(hash), IsActive: true, IsStaff: true}}
	svc := NewAuthService(repo, NewValidator(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{PhoneNumber: "+998 90 123 45 67", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.NotEmpty(t, repo.refreshTokens)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "+998901234567", claims.PhoneNumber)
	assert.True(t, claims.IsStaff)
	assert.False(t, claims.IsSuperuser)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{user: &models.User{ID: "u1", PhoneNumber: "+998901234567", PasswordHash: string(hash), IsActive: true}}
	svc := NewAuthService(repo, NewValidator(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{PhoneNumber: "+998901234567", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownPhone(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, NewValidator(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{PhoneNumber: "+998901234567", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{user: &models.User{ID: "u1", PhoneNumber: "+998901234567", PasswordHash: string(hash), IsActive: false}}
	svc := NewAuthService(repo, NewValidator(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{PhoneNumber: "+998901234567", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := &mockAuthRepo{
		user:          &models.User{ID: "u1", PhoneNumber: "+998901234567", PasswordHash: "hash", IsActive: true},
		refreshTokens: map[string]*models.RefreshToken{},
	}
	repo.refreshTokens["old-token"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "old-token", ExpiresAt: time.Now().UTC().Add(time.Hour)}
	svc := NewAuthService(repo, NewValidator(), zap.NewNop(), testAuthConfig())

	res, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "old-token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["old-token"].Revoked)
}

func TestAuthServiceRefreshRejectsExpired(t *testing.T) {
	repo := &mockAuthRepo{
		user:          &models.User{ID: "u1", PhoneNumber: "+998901234567", IsActive: true},
		refreshTokens: map[string]*models.RefreshToken{},
	}
	repo.refreshTokens["stale"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "stale", ExpiresAt: time.Now().UTC().Add(-time.Minute)}
	svc := NewAuthService(repo, NewValidator(), zap.NewNop(), testAuthConfig())

	_, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutRevokesAll(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		"a": {ID: "rt1", UserID: "u1", Token: "a", ExpiresAt: time.Now().Add(time.Hour)},
		"b": {ID: "rt2", UserID: "u1", Token: "b", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	svc := NewAuthService(repo, NewValidator(), zap.NewNop(), testAuthConfig())

	require.NoError(t, svc.Logout(context.Background(), "u1"))
	assert.Equal(t, "u1", repo.revokedAllFor)
	assert.True(t, repo.refreshTokens["a"].Revoked)
	assert.True(t, repo.refreshTokens["b"].Revoked)
}

func TestAuthServiceValidateTokenRejectsBadSignature(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{user: &models.User{ID: "u1", PhoneNumber: "+998901234567", PasswordHash: string(hash), IsActive: true}}
	issuer := NewAuthService(repo, NewValidator(), zap.NewNop(), testAuthConfig())

	res, err := issuer.Login(context.Background(), models.LoginRequest{PhoneNumber: "+998901234567", Password: "password"})
	require.NoError(t, err)

	other := testAuthConfig()
	other.AccessTokenSecret = "different"
	verifier := NewAuthService(repo, NewValidator(), zap.NewNop(), other)

	_, err = verifier.ValidateToken(res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

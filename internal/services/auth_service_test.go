package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arigatojournal/arigato-backend/internal/config"
	"github.com/arigatojournal/arigato-backend/internal/dto"
	"github.com/arigatojournal/arigato-backend/internal/identity"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
	}
	return NewAuthService(db, cfg, sessions)
}

func parseClaims(t *testing.T, tokenString string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		UserID:   "hanako",
		Name:     "花子",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.Equal(t, "hanako", resp.User.UserID)
	assert.Equal(t, "花子", resp.User.Name)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims := parseClaims(t, resp.AccessToken)
	assert.Equal(t, "hanako", claims["sub"])
	assert.NotEmpty(t, claims["sid"])

	// Session snapshot is live immediately after registration.
	snap, err := svc.sessions.Current(ctx, claims["sid"].(string))
	require.NoError(t, err)
	assert.Equal(t, "花子", snap.Name)

	login, err := svc.Login(ctx, &dto.LoginRequest{UserID: "hanako", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "hanako", login.User.UserID)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{UserID: "Hanako!", Name: "花子", Password: "supersecret"})
	require.Error(t, err)

	_, err = svc.Register(ctx, &dto.RegisterRequest{UserID: "hanako", Name: "", Password: "supersecret"})
	require.Error(t, err)

	_, err = svc.Register(ctx, &dto.RegisterRequest{UserID: "hanako", Name: "花子", Password: "short"})
	require.Error(t, err)
}

func TestRegisterDuplicateHandle(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{UserID: "hanako", Name: "花子", Password: "supersecret"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &dto.RegisterRequest{UserID: "hanako", Name: "偽花子", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrUserIDTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{UserID: "hanako", Name: "花子", Password: "supersecret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &dto.LoginRequest{UserID: "hanako", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown handle and wrong password are indistinguishable.
	_, err = svc.Login(ctx, &dto.LoginRequest{UserID: "ghost", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{UserID: "hanako", Name: "花子", Password: "supersecret"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	// The old refresh token is revoked on use.
	_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesTokenAndClearsSession(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{UserID: "hanako", Name: "花子", Password: "supersecret"})
	require.NoError(t, err)

	claims := parseClaims(t, resp.AccessToken)
	p := identity.Principal{UserID: "hanako", SessionID: claims["sid"].(string)}

	require.NoError(t, svc.Logout(ctx, p, &dto.LogoutRequest{RefreshToken: resp.RefreshToken}))

	_, err = svc.Refresh(ctx, &dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.sessions.Current(ctx, p.SessionID)
	assert.Error(t, err)
}

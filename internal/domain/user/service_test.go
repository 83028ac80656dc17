package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/domain/user"
	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/persistence/memory"
	"github.com/ahmedelhadi17776/streaky/pkg/config"
	"github.com/ahmedelhadi17776/streaky/pkg/security/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (user.Service, *memory.Store, *auth.TokenService) {
	t.Helper()
	store := memory.NewStore()
	tokens := auth.NewTokenService(config.AuthConfig{
		AccessSecret:  "a",
		RefreshSecret: "r",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	})
	return user.NewService(store.Users(), store.Lists(), tokens, bcrypt.MinCost), store, tokens
}

func TestRegister(t *testing.T) {
	svc, store, tokens := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "  Ada@Example.com ", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.NotEqual(t, "hunter2", session.User.PasswordHash)

	claims, err := tokens.ValidateAccess(session.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)

	overall, err := store.Lists().GetOverall(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, overall.Streak)
}

func TestRegisterRejects(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		err      error
	}{
		{"duplicate email", "ADA@example.com", "other", user.ErrEmailTaken},
		{"missing email", " ", "pw", user.ErrMissingCredentials},
		{"missing password", "bob@example.com", "", user.ErrMissingCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "Ada@example.com", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Tokens.RefreshToken)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "pw")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestRefreshAndLogoutRevocation(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, session.Tokens.RefreshToken)
	require.NoError(t, err)
	claims, err := tokens.ValidateAccess(access)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)

	_, err = svc.Refresh(ctx, session.Tokens.AccessToken)
	assert.ErrorIs(t, err, user.ErrInvalidRefresh)

	require.NoError(t, svc.Logout(ctx, session.User.ID))

	_, err = svc.Refresh(ctx, session.Tokens.RefreshToken)
	assert.ErrorIs(t, err, user.ErrTokenRevoked)

	again, err := svc.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, again.Tokens.RefreshToken)
	assert.NoError(t, err)
}

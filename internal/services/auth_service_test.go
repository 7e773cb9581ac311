package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-go/internal/auth"
)

func TestCreateUserPasswordRoundTrip(t *testing.T) {
	store := newMemoryStore()
	svc := NewAuthService(store, testAuthConfig(), nil)
	ctx := context.Background()

	pairs := map[string]string{
		"user@example.com":  "test123",
		"other@example.com": "correct horse battery staple",
		"third@example.com": "ünïcödé-pass",
	}
	for email, password := range pairs {
		created, err := svc.CreateUser(ctx, email, password, UserFields{})
		require.NoError(t, err)

		stored, err := store.Users().GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, created.ID, stored.ID)
		assert.NotEqual(t, password, stored.PasswordHash)
		assert.True(t, auth.CheckPasswordHash(password, stored.PasswordHash))
		assert.False(t, auth.CheckPasswordHash(password+"!", stored.PasswordHash))
		assert.False(t, auth.CheckPasswordHash("", stored.PasswordHash))
	}
}

func TestCreateUserRequiresEmail(t *testing.T) {
	store := newMemoryStore()
	svc := NewAuthService(store, testAuthConfig(), nil)
	ctx := context.Background()

	for _, email := range []string{"", "   "} {
		_, err := svc.CreateUser(ctx, email, "test123", UserFields{Name: "Nobody"})
		require.Error(t, err)
		assert.Contains(t, fieldErrors(t, err), "email")
	}
	_, err := svc.CreateUser(ctx, "not-an-email", "test123", UserFields{})
	assert.Contains(t, fieldErrors(t, err), "email")

	count, err := store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	store := newMemoryStore()
	svc := NewAuthService(store, testAuthConfig(), nil)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "  Test@EXAMPLE.COM ", "test123", UserFields{})
	require.NoError(t, err)
	assert.Equal(t, "Test@example.com", user.Email)

	_, err = svc.CreateUser(ctx, "Test@Example.com", "other", UserFields{})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestCreateUserFields(t *testing.T) {
	store := newMemoryStore()
	svc := NewAuthService(store, testAuthConfig(), nil)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "a@example.com", "test123", UserFields{Name: "Ann", FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.False(t, user.IsSuperuser)
	assert.Equal(t, "Lee", user.LastName)

	inactive := false
	user, err = svc.CreateUser(ctx, "b@example.com", "", UserFields{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Equal(t, auth.UnusablePassword, user.PasswordHash)
}

func TestCreateSuperuser(t *testing.T) {
	store := newMemoryStore()
	svc := NewAuthService(store, testAuthConfig(), nil)
	ctx := context.Background()

	admin, err := svc.CreateSuperuser(ctx, "admin@example.com", "test123")
	require.NoError(t, err)

	stored, err := store.Users().GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsStaff)
	assert.True(t, stored.IsSuperuser)
	assert.True(t, stored.IsActive)

	_, err = svc.CreateSuperuser(ctx, "", "test123")
	assert.Contains(t, fieldErrors(t, err), "email")
	count, err := store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLoginAuthenticateLogout(t *testing.T) {
	store := newMemoryStore()
	svc := NewAuthService(store, testAuthConfig(), auth.NewMemoryTokenBlacklist())
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, "user@example.com", "test123", UserFields{})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "user@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "missing@example.com", "test123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, user, err := svc.Login(ctx, "user@EXAMPLE.com", "test123")
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)

	caller, claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, caller.ID)

	require.NoError(t, svc.Logout(ctx, claims))
	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticateRejectsInactiveAndDeletedUsers(t *testing.T) {
	store := newMemoryStore()
	svc := NewAuthService(store, testAuthConfig(), nil)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "user@example.com", "test123", UserFields{})
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "user@example.com", "test123")
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, store.Users().Update(ctx, user))
	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = svc.Login(ctx, "user@example.com", "test123")
	assert.ErrorIs(t, err, ErrUserInactive)

	require.NoError(t, store.Users().Delete(ctx, user.ID))
	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSetPassword(t *testing.T) {
	store := newMemoryStore()
	svc := NewAuthService(store, testAuthConfig(), nil)
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, "user@example.com", "test123", UserFields{})
	require.NoError(t, err)

	require.NoError(t, svc.SetPassword(ctx, "user@example.com", "newpass1"))
	_, _, err = svc.Login(ctx, "user@example.com", "newpass1")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SetPassword(ctx, "ghost@example.com", "x"), ErrUserNotFound)
}

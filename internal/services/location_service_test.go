package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLocationRequiresStaff(t *testing.T) {
	store := newMemoryStore()
	svc := NewLocationService(store)
	ctx := context.Background()
	user := mustUser(t, store, "user@example.com")
	admin, err := NewAuthService(store, testAuthConfig(), nil).CreateSuperuser(ctx, "admin@example.com", "test123")
	require.NoError(t, err)

	_, err = svc.Create(ctx, user, LocationInput{Name: "Library"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	loc, err := svc.Create(ctx, admin, LocationInput{Name: " Library "})
	require.NoError(t, err)
	assert.Equal(t, "Library", loc.Name)

	_, err = svc.Create(ctx, admin, LocationInput{Name: "Library"})
	assert.ErrorIs(t, err, ErrLocationExists)

	_, err = svc.Create(ctx, admin, LocationInput{Name: "   "})
	assert.Contains(t, fieldErrors(t, err), "name")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, loc.ID, list[0].ID)
}

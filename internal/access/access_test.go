package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mosaic/internal/errs"
)

var (
	admin    = Caller{ID: "admin-1", IsAdmin: true}
	nonAdmin = Caller{ID: "user-1", IsAdmin: false}
)

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(admin))
	assert.ErrorIs(t, RequireAdmin(nonAdmin), errs.ErrPermission)
}

func TestCreateUser(t *testing.T) {
	a := NewAdmin(NewMemoryDirectory())
	ctx := context.Background()

	u, err := a.CreateUser(ctx, admin, "alice", "secret", false)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.False(t, u.IsAdmin)
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	a := NewAdmin(NewMemoryDirectory())

	_, err := a.CreateUser(context.Background(), nonAdmin, "alice", "secret", false)
	assert.ErrorIs(t, err, errs.ErrPermission)
}

func TestCreateUserRejectsNonAdminBeforeValidation(t *testing.T) {
	a := NewAdmin(NewMemoryDirectory())

	// A non-admin with a malformed request sees the permission failure,
	// not the validation one.
	_, err := a.CreateUser(context.Background(), nonAdmin, "", "", false)
	assert.ErrorIs(t, err, errs.ErrPermission)
	assert.NotErrorIs(t, err, errs.ErrValidation)
}

func TestCreateUserMissingFields(t *testing.T) {
	a := NewAdmin(NewMemoryDirectory())
	ctx := context.Background()

	_, err := a.CreateUser(ctx, admin, "   ", "secret", false)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = a.CreateUser(ctx, admin, "alice", "", false)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	a := NewAdmin(NewMemoryDirectory())
	ctx := context.Background()

	_, err := a.CreateUser(ctx, admin, "alice", "secret", false)
	require.NoError(t, err)

	_, err = a.CreateUser(ctx, admin, "alice", "another", true)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestDeleteUser(t *testing.T) {
	a := NewAdmin(NewMemoryDirectory())
	ctx := context.Background()

	u, err := a.CreateUser(ctx, admin, "bob", "secret", false)
	require.NoError(t, err)

	require.NoError(t, a.DeleteUser(ctx, admin, u.ID))

	// Gone now.
	err = a.DeleteUser(ctx, admin, u.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	a := NewAdmin(NewMemoryDirectory())

	err := a.DeleteUser(context.Background(), nonAdmin, "anyone")
	assert.ErrorIs(t, err, errs.ErrPermission)
}

func TestDeleteUserSelf(t *testing.T) {
	a := NewAdmin(NewMemoryDirectory())

	err := a.DeleteUser(context.Background(), admin, admin.ID)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestDeleteUserSelfCheckBeforeLookup(t *testing.T) {
	a := NewAdmin(NewMemoryDirectory())

	// Even though the caller's ID is not in the directory, the self-delete
	// rule fires before the existence check.
	err := a.DeleteUser(context.Background(), admin, admin.ID)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.NotErrorIs(t, err, errs.ErrNotFound)
}

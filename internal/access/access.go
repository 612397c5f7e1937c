// Package access evaluates administrator-only operations against a caller's
// role. The caller is an immutable value passed explicitly into every
// guarded operation; nothing here reads ambient session state.
package access

import (
	"context"
	"fmt"
	"strings"

	"mosaic/internal/errs"
)

// Caller is an authenticated principal. The credential mechanism that
// produced it lives outside this package; only the role flag matters here.
type Caller struct {
	ID      string
	IsAdmin bool
}

// User is a directory entry.
type User struct {
	ID       string
	Username string
	IsAdmin  bool
}

// Directory is the external user table. Credentials are opaque here;
// hashing and verification belong to the auth collaborator.
type Directory interface {
	CreateUser(ctx context.Context, username, credential string, isAdmin bool) (User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// RequireAdmin fails unless the caller holds the administrator role.
func RequireAdmin(caller Caller) error {
	if !caller.IsAdmin {
		return errs.Wrap("access.RequireAdmin", fmt.Errorf("%w: administrator role required", errs.ErrPermission))
	}
	return nil
}

// Admin wraps a Directory with the policy checks for user management.
type Admin struct {
	dir Directory
}

// NewAdmin creates the guarded user-management service.
func NewAdmin(dir Directory) *Admin {
	return &Admin{dir: dir}
}

// CreateUser creates a new user. Administrator only.
func (a *Admin) CreateUser(ctx context.Context, caller Caller, username, credential string, isAdmin bool) (User, error) {
	const op = "access.CreateUser"

	if err := RequireAdmin(caller); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(username) == "" || credential == "" {
		return User{}, errs.Wrap(op, fmt.Errorf("%w: missing username or credential", errs.ErrValidation))
	}

	existing, err := a.dir.FindByUsername(ctx, username)
	if err != nil {
		return User{}, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	if existing != nil {
		return User{}, errs.Wrap(op, fmt.Errorf("%w: user already exists", errs.ErrValidation))
	}

	user, err := a.dir.CreateUser(ctx, username, credential, isAdmin)
	if err != nil {
		return User{}, errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	return user, nil
}

// DeleteUser deletes the user with targetID. Administrator only, and no
// caller may delete themselves regardless of role.
func (a *Admin) DeleteUser(ctx context.Context, caller Caller, targetID string) error {
	const op = "access.DeleteUser"

	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if caller.ID == targetID {
		return errs.Wrap(op, fmt.Errorf("%w: cannot delete yourself", errs.ErrValidation))
	}

	found, err := a.dir.DeleteUser(ctx, targetID)
	if err != nil {
		return errs.Wrap(op, fmt.Errorf("%w: %v", errs.ErrStorage, err))
	}
	if !found {
		return errs.Wrap(op, fmt.Errorf("%w: user %s", errs.ErrNotFound, targetID))
	}
	return nil
}

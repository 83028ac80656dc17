package user

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

type Repository interface {
	// Create assigns user.ID. A duplicate email yields ErrEmailTaken.
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	// FindByEmail returns nil, nil when no user has the email.
	FindByEmail(ctx context.Context, email string) (*User, error)
	IncrementTokenVersion(ctx context.Context, id string) error
}

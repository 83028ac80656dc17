package lists

import (
	"context"
	"errors"
)

var (
	ErrListNotFound = errors.New("list not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Repository defines persistence for list and overall records. Every method is
// scoped to one user; a list owned by someone else is reported as not found.
type Repository interface {
	FindByUser(ctx context.Context, userID string) ([]List, error)
	// Create assigns list.ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, list *List) error
	UpdateForUser(ctx context.Context, userID, id string, input ListInput) (*List, error)
	DeleteForUser(ctx context.Context, userID, id string) error

	// GetOverall returns the user's overall record, creating a zero one if absent.
	GetOverall(ctx context.Context, userID string) (*Overall, error)
	UpsertOverall(ctx context.Context, userID string, input OverallInput) (*Overall, error)
}

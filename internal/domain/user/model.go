package user

import "time"

// User is an account holder. TokenVersion is bumped on logout, which
// invalidates every refresh token issued before.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	TokenVersion int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
	"github.com/ahmedelhadi17776/streaky/pkg/security/auth"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var log = logrus.New()

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenRevoked       = errors.New("refresh token revoked")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
	ErrMissingCredentials = errors.New("email and password required")
)

// Session is what a successful register or login returns.
type Session struct {
	User   *User
	Tokens auth.TokenPair
}

type Service interface {
	Register(ctx context.Context, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// Refresh exchanges a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID string) error
}

type service struct {
	repo       Repository
	overalls   lists.Repository
	tokens     *auth.TokenService
	bcryptCost int
}

func NewService(repo Repository, overalls lists.Repository, tokens *auth.TokenService, bcryptCost int) Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &service{
		repo:       repo,
		overalls:   overalls,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{Email: email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if _, err := s.overalls.GetOverall(ctx, user.ID); err != nil {
		// Not fatal: GET /overall creates the record on first use.
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to initialise overall record")
	}

	return s.issue(user)
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.WithField("user_id", user.ID).Info("Login failed")
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *service) issue(user *User) (*Session, error) {
	pair, err := s.tokens.GeneratePair(user.ID, user.Email, user.TokenVersion)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: pair}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return "", ErrInvalidRefresh
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidRefresh
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if claims.TokenVersion != user.TokenVersion {
		return "", ErrTokenRevoked
	}

	return s.tokens.GenerateAccessToken(user.ID, user.Email, user.TokenVersion)
}

func (s *service) Logout(ctx context.Context, userID string) error {
	if err := s.repo.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

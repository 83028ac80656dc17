package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmedelhadi17776/streaky/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is shared by access and refresh tokens. Subject carries the user id
// and TokenVersion must match the stored user for a refresh to succeed.
type Claims struct {
	TokenVersion int    `json:"tv"`
	Email        string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is what register and login hand back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService signs and checks both token kinds. Access and refresh tokens
// use different secrets so one can never stand in for the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenService creates a token service from the auth config section.
func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
}

func (s *TokenService) sign(claims Claims, ttl time.Duration, secret []byte) (string, error) {
	now := s.now()
	claims.RegisteredClaims.Issuer = s.issuer
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.NotBefore = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// GenerateAccessToken issues a short-lived token carrying the email claim.
func (s *TokenService) GenerateAccessToken(userID, email string, tokenVersion int) (string, error) {
	return s.sign(Claims{
		TokenVersion:     tokenVersion,
		Email:            email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}, s.accessTTL, s.accessSecret)
}

// GenerateRefreshToken issues the long-lived token exchanged at /auth/refresh.
func (s *TokenService) GenerateRefreshToken(userID string, tokenVersion int) (string, error) {
	return s.sign(Claims{
		TokenVersion:     tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}, s.refreshTTL, s.refreshSecret)
}

// GeneratePair issues both tokens for a user.
func (s *TokenService) GeneratePair(userID, email string, tokenVersion int) (TokenPair, error) {
	access, err := s.GenerateAccessToken(userID, email, tokenVersion)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.GenerateRefreshToken(userID, tokenVersion)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccess checks an access token and returns its claims.
func (s *TokenService) ValidateAccess(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.accessSecret)
}

// ValidateRefresh checks a refresh token and returns its claims.
func (s *TokenService) ValidateRefresh(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.refreshSecret)
}

func (s *TokenService) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

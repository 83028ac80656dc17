package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/api/dto"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// expiryLeeway refreshes an access token slightly before it expires.
const expiryLeeway = 10 * time.Second

// Session is the client identity. The access token lives only in memory; the
// refresh token is handed to OnRefreshToken whenever it changes so the caller
// can persist it.
type Session struct {
	baseURL string
	plain   *http.Client
	authed  *http.Client

	mu      sync.Mutex
	access  string
	expiry  time.Time
	refresh string

	// OnRefreshToken is called with the new refresh token, or "" when the
	// session is cleared.
	OnRefreshToken func(token string)
}

// NewSession talks to the record store at baseURL. A nil httpClient uses a
// client with a 15s timeout.
func NewSession(baseURL, refreshToken string, httpClient *http.Client) *Session {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	s := &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		plain:   httpClient,
		refresh: refreshToken,
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	s.authed = &http.Client{
		Timeout:   httpClient.Timeout,
		Transport: &oauth2.Transport{Source: s, Base: base},
	}
	return s
}

var _ oauth2.TokenSource = (*Session)(nil)

// Token returns the current access token, refreshing it first when it is
// missing or about to expire.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	access, expiry := s.access, s.expiry
	s.mu.Unlock()

	if access == "" || (!expiry.IsZero() && time.Now().Add(expiryLeeway).After(expiry)) {
		if err := s.Refresh(context.Background()); err != nil {
			return nil, err
		}
		s.mu.Lock()
		access, expiry = s.access, s.expiry
		s.mu.Unlock()
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer", Expiry: expiry}, nil
}

// LoggedIn reports whether a refresh token is held.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh != ""
}

// CurrentCallerID reads the subject of the access token, refreshing first if
// there is none. The signature is checked by the server, not here.
func (s *Session) CurrentCallerID() (string, error) {
	tok, err := s.Token()
	if err != nil {
		return "", err
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, &claims); err != nil {
		return "", fmt.Errorf("%w: malformed access token", ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: access token has no subject", ErrUnauthenticated)
	}
	return claims.Subject, nil
}

func (s *Session) setAccess(token string) {
	var expiry time.Time
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	s.access = token
	s.expiry = expiry
}

func (s *Session) setTokens(access, refresh string) {
	s.mu.Lock()
	s.setAccess(access)
	changed := s.refresh != refresh
	s.refresh = refresh
	s.mu.Unlock()

	if changed && s.OnRefreshToken != nil {
		s.OnRefreshToken(refresh)
	}
}

// Clear drops both tokens.
func (s *Session) Clear() {
	s.mu.Lock()
	had := s.refresh != ""
	s.access, s.refresh, s.expiry = "", "", time.Time{}
	s.mu.Unlock()

	if had && s.OnRefreshToken != nil {
		s.OnRefreshToken("")
	}
}

// Refresh exchanges the refresh token for a new access token. A rejected
// refresh token clears the session; network and server errors do not.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.refresh
	s.mu.Unlock()
	if refresh == "" {
		return ErrUnauthenticated
	}

	var out dto.RefreshResponse
	err := s.call(ctx, s.plain, http.MethodPost, "/auth/refresh", dto.RefreshRequest{RefreshToken: refresh}, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError && apiErr.Status != http.StatusTooManyRequests {
			s.Clear()
			return fmt.Errorf("%w: %s", ErrUnauthenticated, apiErr.Message)
		}
		return err
	}

	s.mu.Lock()
	s.setAccess(out.AccessToken)
	s.mu.Unlock()
	return nil
}

// Register creates an account and starts a session for it.
func (s *Session) Register(ctx context.Context, email, password string) (*dto.UserInfo, error) {
	return s.authenticate(ctx, "/auth/register", email, password)
}

// Login starts a session with existing credentials.
func (s *Session) Login(ctx context.Context, email, password string) (*dto.UserInfo, error) {
	return s.authenticate(ctx, "/auth/login", email, password)
}

func (s *Session) authenticate(ctx context.Context, path, email, password string) (*dto.UserInfo, error) {
	var out dto.AuthResponse
	if err := s.call(ctx, s.plain, http.MethodPost, path, dto.CredentialsRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	s.setTokens(out.AccessToken, out.RefreshToken)
	return &out.User, nil
}

// Logout revokes every refresh token on the server, then clears the session.
// The local session is cleared even if the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	defer s.Clear()
	if !s.LoggedIn() {
		return nil
	}
	return s.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Do sends an authenticated request. A 401 triggers one refresh and one retry;
// if that still fails the session is cleared and ErrUnauthenticated returned.
func (s *Session) Do(ctx context.Context, method, path string, body, out interface{}) error {
	err := s.call(ctx, s.authed, method, path, body, out)
	if !isUnauthorized(err) {
		return err
	}
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	err = s.call(ctx, s.authed, method, path, body, out)
	if isUnauthorized(err) {
		s.Clear()
		return ErrUnauthenticated
	}
	return err
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func (s *Session) call(ctx context.Context, hc *http.Client, method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		// oauth2.Transport wraps token source failures in a url.Error.
		if errors.Is(err, ErrUnauthenticated) {
			return ErrUnauthenticated
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e dto.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		apiErr := &APIError{Status: resp.StatusCode, Message: e.Error}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, apiErr)
		case http.StatusConflict:
			return fmt.Errorf("%w: %v", ErrConflict, apiErr)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

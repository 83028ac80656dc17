package handlers

import (
	"errors"
	"net/http"

	"github.com/ahmedelhadi17776/streaky/internal/api/dto"
	"github.com/ahmedelhadi17776/streaky/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService user.Service
}

func NewAuthHandler(userService user.Service) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func sessionResponse(s *user.Session) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken:  s.Tokens.AccessToken,
		RefreshToken: s.Tokens.RefreshToken,
		User:         dto.UserInfo{ID: s.User.ID, Email: s.User.Email},
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	req, ok := bind[dto.CredentialsRequest](c)
	if !ok {
		return
	}

	session, err := h.userService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, user.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Errorf("Failed to register user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, sessionResponse(session))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := bind[dto.CredentialsRequest](c)
	if !ok {
		return
	}

	session, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, user.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Errorf("Failed to log in: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session))
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	req, ok := bind[dto.RefreshRequest](c)
	if !ok {
		return
	}

	access, err := h.userService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrTokenRevoked):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token revoked"})
		case errors.Is(err, user.ErrInvalidRefresh), errors.Is(err, user.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		default:
			log.Errorf("Failed to refresh token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{AccessToken: access})
}

// Logout handles POST /auth/logout. Every outstanding refresh token of the
// caller stops working.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.userService.Logout(c.Request.Context(), userID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		log.Errorf("Failed to log out user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

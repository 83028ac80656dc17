package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ahmedelhadi17776/streaky/pkg/logger"
	"github.com/ahmedelhadi17776/streaky/pkg/security/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var log = logger.NewLogger()

const (
	bearerSchema = "Bearer "
)

// NewAuthMiddleware accepts a signed, unexpired access token. Refresh tokens
// are rejected because they are signed with a different secret.
func NewAuthMiddleware(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(authHeader[len(bearerSchema):])
		claims, err := tokens.ValidateAccess(tokenString)
		if err != nil {
			log.Debug("Token validation failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("email", claims.Email)
		c.Set("token_version", claims.TokenVersion)
		c.Next()
	}
}

// RateLimitMiddleware limits requests per client IP and route.
func RateLimitMiddleware(limiter auth.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := fmt.Sprintf("%s:%s", c.ClientIP(), path)

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Error("Rate limiter error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetAt.Unix()))

		if !decision.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":    "rate limit exceeded",
				"reset_in": time.Until(decision.ResetAt).Round(time.Second).String(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

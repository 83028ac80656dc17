package routes

import (
	"github.com/ahmedelhadi17776/streaky/internal/api/dto"
	"github.com/ahmedelhadi17776/streaky/internal/api/handlers"
	"github.com/ahmedelhadi17776/streaky/internal/api/middleware"
	"github.com/ahmedelhadi17776/streaky/pkg/security/auth"
	"github.com/gin-gonic/gin"
)

type AuthRoutes struct {
	handler     *handlers.AuthHandler
	tokens      *auth.TokenService
	rateLimiter auth.RateLimiter
}

func NewAuthRoutes(handler *handlers.AuthHandler, tokens *auth.TokenService, rateLimiter auth.RateLimiter) *AuthRoutes {
	return &AuthRoutes{
		handler:     handler,
		tokens:      tokens,
		rateLimiter: rateLimiter,
	}
}

// RegisterRoutes sets up the /auth endpoints
func (ar *AuthRoutes) RegisterRoutes(router gin.IRouter, validation *middleware.ValidationMiddleware) {
	authGroup := router.Group("/auth")
	{
		// Public routes with stricter rate limiting
		public := authGroup.Group("")
		public.Use(middleware.RateLimitMiddleware(ar.rateLimiter))
		{
			public.POST("/register", validation.ValidateRequest(&dto.CredentialsRequest{}), ar.handler.Register)
			public.POST("/login", validation.ValidateRequest(&dto.CredentialsRequest{}), ar.handler.Login)
			public.POST("/refresh", validation.ValidateRequest(&dto.RefreshRequest{}), ar.handler.Refresh)
		}

		protected := authGroup.Group("")
		protected.Use(middleware.NewAuthMiddleware(ar.tokens))
		{
			protected.POST("/logout", ar.handler.Logout)
		}
	}
}

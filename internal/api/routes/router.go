package routes

import (
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/api/handlers"
	"github.com/ahmedelhadi17776/streaky/internal/api/middleware"
	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
	"github.com/ahmedelhadi17776/streaky/internal/domain/user"
	"github.com/ahmedelhadi17776/streaky/pkg/config"
	"github.com/ahmedelhadi17776/streaky/pkg/logger"
	"github.com/ahmedelhadi17776/streaky/pkg/security/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies is everything NewRouter wires into the engine.
type Dependencies struct {
	Users       user.Service
	Lists       lists.Service
	Tokens      *auth.TokenService
	RateLimiter auth.RateLimiter
	CORS        config.CORSConfig
	Logger      *logger.Logger
	Health      map[string]Pinger
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Logger != nil {
		router.Use(middleware.RequestLogger(deps.Logger))
	}
	router.Use(middleware.CollectMetrics())
	router.Use(cors.New(corsConfig(deps.CORS)))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	SetupHealthRoutes(router, deps.Health)

	validation := middleware.NewValidationMiddleware()

	NewAuthRoutes(handlers.NewAuthHandler(deps.Users), deps.Tokens, deps.RateLimiter).
		RegisterRoutes(router, validation)
	NewListsRoutes(handlers.NewListsHandler(deps.Lists), deps.Tokens).
		RegisterRoutes(router, validation)

	return router
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods: cfg.AllowedMethods,
		AllowHeaders: append([]string{
			"Accept-Encoding",
			"Content-Type",
			"Authorization",
		}, cfg.AllowedHeaders...),
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Encoding",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return c
}

package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/api/routes"
	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
	"github.com/ahmedelhadi17776/streaky/internal/domain/user"
	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/cache"
	"github.com/ahmedelhadi17776/streaky/pkg/config"
	"github.com/ahmedelhadi17776/streaky/pkg/logger"
	"github.com/ahmedelhadi17776/streaky/pkg/security/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	log := logger.New(logger.Options{Level: cfg.Logging.Level, Encoding: cfg.Logging.Format})
	defer log.Sync()

	log.Info("Configuration loaded successfully",
		zap.String("mode", cfg.Server.Mode),
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("redis", cfg.Redis.Enabled),
	)

	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	stores, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer stores.close()

	health := map[string]routes.Pinger{"database": stores.ping}

	var rateLimiter auth.RateLimiter
	window := cfg.RateLimit.Window
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cache.NewConfig(cfg.Redis), log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		rateLimiter = auth.NewRedisRateLimiter(redisClient.GetClient(), window, int64(cfg.RateLimit.Requests))
		health["redis"] = redisClient
	} else {
		log.Warn("Redis disabled, rate limits are kept per process")
		rateLimiter = auth.NewMemoryRateLimiter(window, int64(cfg.RateLimit.Requests))
	}

	tokens := auth.NewTokenService(cfg.Auth)
	router := routes.NewRouter(routes.Dependencies{
		Users:       user.NewService(stores.users, stores.lists, tokens, cfg.Auth.BcryptCost),
		Lists:       lists.NewService(stores.lists, log.Logger),
		Tokens:      tokens,
		RateLimiter: rateLimiter,
		CORS:        cfg.CORS,
		Logger:      log,
		Health:      health,
	})

	for _, route := range router.Routes() {
		log.Debug("Route registered",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
		)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info(fmt.Sprintf("Server starting on port %d", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited properly")
}

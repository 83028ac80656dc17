package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ahmedelhadi17776/streaky/pkg/config"
	"github.com/ahmedelhadi17776/streaky/pkg/logger"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	ErrCacheConnection = errors.New("cache: connection error")
	ErrInvalidConfig   = errors.New("cache: invalid configuration")
)

// Config holds the configuration for Redis client
type Config struct {
	Addr             string
	Password         string
	DB               int
	PoolSize         int
	MinIdleConns     int
	MaxRetries       int
	ConnTimeout      time.Duration
	OperationTimeout time.Duration
	HealthInterval   time.Duration
}

// NewConfig maps the redis section of the server config.
func NewConfig(cfg config.RedisConfig) *Config {
	return &Config{
		Addr:             cfg.Addr(),
		Password:         cfg.Password,
		DB:               cfg.DB,
		PoolSize:         20,
		MinIdleConns:     2,
		MaxRetries:       3,
		ConnTimeout:      5 * time.Second,
		OperationTimeout: 2 * time.Second,
		HealthInterval:   10 * time.Second,
	}
}

// RedisClient wraps the Redis client with a background health check. The
// rate limiter uses the raw client; readiness uses Ping.
type RedisClient struct {
	client    *redis.Client
	config    *Config
	log       *logger.Logger
	stop      chan struct{}
	closeOnce sync.Once
	health    int32 // 0 = healthy, 1 = unhealthy
}

// NewRedisClient creates a new Redis client and verifies it with a ping.
func NewRedisClient(cfg *Config, log *logger.Logger) (*RedisClient, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidConfig)
	}
	if log == nil {
		log = logger.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnTimeout)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r := &RedisClient{
		client: client,
		config: cfg,
		log:    log,
		stop:   make(chan struct{}),
	}
	if cfg.HealthInterval > 0 {
		go r.healthCheckLoop()
	}
	return r, nil
}

func (r *RedisClient) healthCheckLoop() {
	ticker := time.NewTicker(r.config.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.config.OperationTimeout)
			err := r.client.Ping(ctx).Err()
			cancel()
			if err != nil {
				if atomic.SwapInt32(&r.health, 1) == 0 {
					r.log.Error("Redis health check failed", zap.Error(err))
				}
				continue
			}
			if atomic.SwapInt32(&r.health, 0) == 1 {
				r.log.Info("Redis connection recovered")
			}
		}
	}
}

// Ping checks the connection now.
func (r *RedisClient) Ping(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.OperationTimeout)
		defer cancel()
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}

// GetClient returns the underlying go-redis client.
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

func (r *RedisClient) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.stop)
		err = r.client.Close()
	})
	return err
}

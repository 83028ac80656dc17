package main

import (
	"context"
	"fmt"

	"github.com/ahmedelhadi17776/streaky/internal/api/routes"
	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
	"github.com/ahmedelhadi17776/streaky/internal/domain/user"
	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/persistence/memory"
	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/persistence/mongodb"
	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/persistence/postgres/connection"
	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/persistence/postgres/migrations"
	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/persistence/postgres/repository"
	"github.com/ahmedelhadi17776/streaky/pkg/config"
	"github.com/ahmedelhadi17776/streaky/pkg/logger"
	"go.uber.org/zap"
)

type stores struct {
	users user.Repository
	lists lists.Repository
	ping  routes.Pinger
	close func()
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		db, err := mongodb.Connect(ctx, cfg.Database.Mongo)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close(context.Background())
			return nil, err
		}
		log.Info("Connected to MongoDB", zap.String("database", cfg.Database.Mongo.Name))
		return &stores{
			users: db.Users(),
			lists: db.Lists(),
			ping:  db,
			close: func() {
				if err := db.Close(context.Background()); err != nil {
					log.Warn("Failed to disconnect from MongoDB", zap.Error(err))
				}
			},
		}, nil

	case config.DriverPostgres:
		db, err := connection.NewDatabase(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		if err := migrations.AutoMigrate(db, log.Logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		if history, err := migrations.GetMigrationHistory(db); err == nil {
			log.Info("Connected to PostgreSQL", zap.Int("migrations", len(history)))
		}
		return &stores{
			users: repository.NewUserRepository(db.DB),
			lists: repository.NewListRepository(db.DB),
			ping:  db,
			close: func() {
				if err := db.Close(); err != nil {
					log.Warn("Failed to close PostgreSQL pool", zap.Error(err))
				}
			},
		}, nil

	case config.DriverMemory:
		log.Warn("Using the in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &stores{
			users: store.Users(),
			lists: store.Lists(),
			ping:  routes.PingFunc(func(context.Context) error { return nil }),
			close: func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

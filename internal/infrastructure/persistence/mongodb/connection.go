package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmedelhadi17776/streaky/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	listsCollection    = "lists"
	overallsCollection = "overalls"
)

// Database is a connected client bound to one database.
type Database struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Connect dials the configured URI and verifies the connection with a ping.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Database, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri not set")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Database{
		client:  client,
		db:      client.Database(cfg.Name),
		timeout: timeout,
	}, nil
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func (d *Database) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		listsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		overallsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range indexes {
		if _, err := d.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Ping backs the readiness probe.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.client.Ping(ctx, readpref.Primary())
}

func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *Database) Users() *UserRepository {
	return &UserRepository{col: d.db.Collection(usersCollection)}
}

func (d *Database) Lists() *ListRepository {
	return &ListRepository{
		lists:    d.db.Collection(listsCollection),
		overalls: d.db.Collection(overallsCollection),
	}
}

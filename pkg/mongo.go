package pkg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/student-portal-service/internal/config"
	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// sharedKey is the only cache key in use. Every role resolves to one pool and
// role stays a query filter on the users collection.
const sharedKey = "default"

// Dialer opens and verifies a client for the given settings.
type Dialer func(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error)

// MongoRouter hands out database handles, connecting lazily and reusing the
// first successful connection for the life of the process.
type MongoRouter struct {
	cfg    config.MongoConfig
	dial   Dialer
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*mongo.Client
}

func NewMongoRouter(cfg config.MongoConfig, logger *slog.Logger) *MongoRouter {
	return NewMongoRouterWithDialer(cfg, DialMongo, logger)
}

func NewMongoRouterWithDialer(cfg config.MongoConfig, dial Dialer, logger *slog.Logger) *MongoRouter {
	return &MongoRouter{
		cfg:     cfg,
		dial:    dial,
		logger:  logger,
		clients: make(map[string]*mongo.Client),
	}
}

// Resolve returns the database handle for role. The role argument is accepted
// for callers that carry one; all roles share the same handle. A failed dial is
// not cached and is retried on the next call.
func (r *MongoRouter) Resolve(ctx context.Context, role string) (*mongo.Database, error) {
	client, err := r.client(ctx, r.keyFor(role))
	if err != nil {
		return nil, err
	}
	return client.Database(r.cfg.Database), nil
}

// Collection resolves the users collection.
func (r *MongoRouter) Collection(ctx context.Context) (*mongo.Collection, error) {
	db, err := r.Resolve(ctx, "")
	if err != nil {
		return nil, err
	}
	return db.Collection(r.cfg.Collection), nil
}

func (r *MongoRouter) keyFor(string) string {
	return sharedKey
}

func (r *MongoRouter) client(ctx context.Context, key string) (*mongo.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[key]; ok {
		return c, nil
	}

	if r.cfg.URI == "" {
		return nil, apperrors.NewConnectionError(errors.New("MONGODB_URI is not configured"))
	}

	c, err := r.dial(ctx, r.cfg)
	if err != nil {
		r.logger.Error("Failed to connect to MongoDB", "key", key, "error", err)
		var ce *apperrors.ConnectionError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, apperrors.NewConnectionError(err)
	}

	r.logger.Info("Connected to MongoDB", "key", key, "database", r.cfg.Database)
	r.clients[key] = c
	return c, nil
}

// Ping checks the cached connection, dialing if needed.
func (r *MongoRouter) Ping(ctx context.Context) error {
	c, err := r.client(ctx, sharedKey)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		return apperrors.NewConnectionError(err)
	}
	return nil
}

// Close disconnects every cached client.
func (r *MongoRouter) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for key, c := range r.clients {
		if c != nil {
			if err := c.Disconnect(ctx); err != nil {
				errs = append(errs, fmt.Errorf("disconnect %s: %w", key, err))
			}
		}
		delete(r.clients, key)
	}
	return errors.Join(errs...)
}

// DialMongo connects with the configured pool and timeouts and pings the primary.
func DialMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetTimeout(cfg.SocketTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, apperrors.NewConnectionError(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ServerSelectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperrors.NewConnectionError(err)
	}

	return client, nil
}

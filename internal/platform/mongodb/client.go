package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/candidate-api/internal/config"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Client owns the driver connection and the application database handle.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a connection to cfg.URL and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Client, error) {
	timeout := time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	if logger != nil {
		logger.Info("connected to document store", "database", cfg.Name)
	}

	return &Client{
		client: client,
		db:     client.Database(cfg.Name),
	}, nil
}

// NewClient wraps an existing driver client. Used by tests that manage
// their own connection.
func NewClient(client *mongo.Client, dbName string) *Client {
	return &Client{client: client, db: client.Database(dbName)}
}

// Database returns the application database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

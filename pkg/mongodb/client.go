// Package mongodb owns the driver connection shared by the order store and
// its outbox.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
)

// Config describes how to reach the order database.
type Config struct {
	URI      string
	Database string
	AppName  string

	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
}

// DefaultConfig targets a local replica set; transactions need one.
func DefaultConfig() *Config {
	return &Config{
		URI:                    "mongodb://localhost:27017/?replicaSet=rs0",
		Database:               "shop",
		AppName:                "shipping",
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		MaxPoolSize:            50,
	}
}

// Client is a connected driver client bound to one database.
type Client struct {
	driver *mongo.Client
	db     *mongo.Database
}

// NewClient connects with majority writes and fails fast if the primary
// cannot be reached. Failed commands are logged at warn level.
func NewClient(ctx context.Context, config *Config, logger *logging.Logger) (*Client, error) {
	opts := options.Client().
		ApplyURI(config.URI).
		SetAppName(config.AppName).
		SetConnectTimeout(config.ConnectTimeout).
		SetServerSelectionTimeout(config.ServerSelectionTimeout).
		SetMaxPoolSize(config.MaxPoolSize).
		SetWriteConcern(writeconcern.Majority()).
		SetRetryWrites(true).
		SetMonitor(failedCommandMonitor(logger.WithComponent("mongodb")))

	driver, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.ServerSelectionTimeout)
	defer cancel()
	if err := driver.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = driver.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping %s: %w", config.Database, err)
	}
	return NewClientFromDriver(driver, config.Database), nil
}

func failedCommandMonitor(logger *logging.Logger) *event.CommandMonitor {
	return &event.CommandMonitor{
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			logger.WarnContext(ctx, "MongoDB command failed",
				"command", evt.CommandName,
				"duration_ms", evt.Duration.Milliseconds(),
				"failure", evt.Failure,
			)
		},
	}
}

// NewClientFromDriver binds an already connected driver client, as used by
// the container-backed tests.
func NewClientFromDriver(driver *mongo.Client, database string) *Client {
	return &Client{driver: driver, db: driver.Database(database)}
}

func (c *Client) Database() *mongo.Database {
	return c.db
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Disconnect(ctx)
}

// HealthCheck pings the primary; it backs the readiness probe.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.driver.Ping(ctx, readpref.Primary())
}

// WithTransaction runs fn inside a session transaction. The driver re-runs fn
// on transient errors.
func (c *Client) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := c.driver.StartSession()
	if err != nil {
		return fmt.Errorf("mongodb start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	})
	return err
}

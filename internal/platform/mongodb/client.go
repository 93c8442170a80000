// Package mongodb connects to the MongoDB deployment that backs the Credential Store.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const retryInterval = 3 * time.Second

// ErrInvalidURI is returned when the connection string has no mongodb scheme.
var ErrInvalidURI = errors.New("MONGO_URI must start with mongodb:// or mongodb+srv://")

// Config holds the connection settings.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// ValidateURI rejects connection strings the driver would refuse later with a less helpful error.
func ValidateURI(uri string) error {
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return ErrInvalidURI
	}
	return nil
}

// Connect opens a client and pings the primary until it answers or ConnectTimeout elapses.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	if err := ValidateURI(cfg.URI); err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		return nil, errors.New("MONGO_DATABASE must not be empty")
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	deadline := time.Now().Add(cfg.ConnectTimeout)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		err = client.Ping(pingCtx, readpref.Primary())
		cancel()
		if err == nil {
			break
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo ping failed: %w", err)
		}
		slog.Warn("MongoDB not reachable, retrying...", "error", err)
		time.Sleep(retryInterval)
	}

	slog.Info("MongoDB connection successful", "database", cfg.Database)
	return client, nil
}

// Package mongo opens a MongoDB database handle for the usage counter backend.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Config struct {
	ConnectionURL  string        `env:"MONGODB_URL"`
	Database       string        `env:"MONGODB_DATABASE" envDefault:"quotekit"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize    uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"50"`
	RetryAttempts  int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"2s"`
}

var (
	ErrEmptyConnectionURL     = errors.New("empty mongo connection URL, set MONGODB_URL")
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
)

// Connect returns the configured database once the server answers a ping.
func Connect(ctx context.Context, cfg Config) (*mongo.Database, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts := options.Client().
		ApplyURI(cfg.ConnectionURL).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.Join(ErrFailedToConnectToMongo, err)
	}

	var lastErr error
	for range max(cfg.RetryAttempts, 1) {
		if lastErr = client.Ping(ctx, nil); lastErr == nil {
			return client.Database(cfg.Database), nil
		}
		select {
		case <-ctx.Done():
			_ = client.Disconnect(context.Background())
			return nil, errors.Join(ErrFailedToConnectToMongo, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	_ = client.Disconnect(context.Background())
	return nil, errors.Join(ErrFailedToConnectToMongo, lastErr)
}

func Healthcheck(db *mongo.Database) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Client().Ping(ctx, nil); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

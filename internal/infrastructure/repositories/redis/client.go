package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options selects the Redis instance backing the shared profile cache.
type Options struct {
	Address  string
	Password string
	DB       int
	PoolSize int
	// ClientName shows up in CLIENT LIST so gateway instances can be told apart.
	ClientName string
}

// Connect opens a pooled client, pings it and checks the cache schema version.
// The client is closed again on any failure.
func Connect(ctx context.Context, opts Options, logger *zap.SugaredLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		ClientName:   opts.ClientName,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", opts.Address, err)
	}
	if err := EnsureSchema(ctx, client, logger); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("profile cache schema: %w", err)
	}

	logger.Infow("Profile cache connected to Redis",
		"address", opts.Address,
		"db", opts.DB,
		"client_name", opts.ClientName,
	)
	return client, nil
}

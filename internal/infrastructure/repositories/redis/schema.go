package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix        = "forum:"
	schemaVersionKey = keyPrefix + "schema:version"

	// CurrentSchemaVersion changes whenever the cached record encoding changes.
	CurrentSchemaVersion = 1
)

// EnsureSchema drops every cached key written under a different schema version.
func EnsureSchema(ctx context.Context, client *redis.Client, logger *zap.SugaredLogger) error {
	version, err := client.Get(ctx, schemaVersionKey).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == CurrentSchemaVersion {
		return nil
	}

	removed, err := deleteByPattern(ctx, client, keyPrefix+"profile:*")
	if err != nil {
		return err
	}
	if err := client.Set(ctx, schemaVersionKey, CurrentSchemaVersion, 0).Err(); err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}

	if logger != nil {
		logger.Infow("cache schema updated",
			"from_version", version,
			"to_version", CurrentSchemaVersion,
			"removed_keys", removed,
		)
	}
	return nil
}

func deleteByPattern(ctx context.Context, client *redis.Client, pattern string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				return removed, fmt.Errorf("failed to delete keys: %w", err)
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// ProfileCache stores resolved profiles as JSON with a TTL. Clear removes
// every profile written by this process's session.
type ProfileCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewProfileCache namespaces keys by instance so two gateways sharing a redis
// never see each other's session-scoped entries.
func NewProfileCache(client *redis.Client, instance string, ttl time.Duration) ports.ProfileCache {
	return &ProfileCache{
		client: client,
		prefix: keyPrefix + "profile:" + instance + ":",
		ttl:    ttl,
	}
}

func (r *ProfileCache) key(identityID string) string {
	return r.prefix + identityID
}

func (r *ProfileCache) Get(ctx context.Context, identityID string) (*domain.UserRecord, bool, error) {
	data, err := r.client.Get(ctx, r.key(identityID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get profile from Redis: %w", err)
	}

	var rec domain.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = r.client.Del(ctx, r.key(identityID)).Err()
		return nil, false, nil
	}
	return &rec, true, nil
}

func (r *ProfileCache) Set(ctx context.Context, record *domain.UserRecord) error {
	if record == nil || record.IdentityID == "" {
		return fmt.Errorf("profile without identity id")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := r.client.Set(ctx, r.key(record.IdentityID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set profile in Redis: %w", err)
	}
	return nil
}

func (r *ProfileCache) Delete(ctx context.Context, identityID string) error {
	if err := r.client.Del(ctx, r.key(identityID)).Err(); err != nil {
		return fmt.Errorf("failed to delete profile from Redis: %w", err)
	}
	return nil
}

func (r *ProfileCache) Clear(ctx context.Context) error {
	_, err := deleteByPattern(ctx, r.client, r.prefix+"*")
	return err
}

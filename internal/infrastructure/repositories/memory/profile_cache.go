package memory

import (
	"context"
	"fmt"
	"time"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	"forumclient/pkg/cache"
)

// ProfileCache keeps profiles in process memory. Records are copied in and out
// so callers cannot mutate cached state.
type ProfileCache struct {
	entries *cache.Cache[domain.UserRecord]
}

func NewProfileCache(ttl time.Duration) *ProfileCache {
	return &ProfileCache{entries: cache.New[domain.UserRecord](ttl)}
}

var _ ports.ProfileCache = (*ProfileCache)(nil)

func (r *ProfileCache) Get(_ context.Context, identityID string) (*domain.UserRecord, bool, error) {
	rec, ok := r.entries.Get(identityID)
	if !ok {
		return nil, false, nil
	}
	return cloneRecord(&rec), true, nil
}

func (r *ProfileCache) Set(_ context.Context, record *domain.UserRecord) error {
	if record == nil || record.IdentityID == "" {
		return fmt.Errorf("profile without identity id")
	}
	r.entries.Set(record.IdentityID, *cloneRecord(record))
	return nil
}

func (r *ProfileCache) Delete(_ context.Context, identityID string) error {
	r.entries.Delete(identityID)
	return nil
}

func (r *ProfileCache) Clear(context.Context) error {
	r.entries.Clear()
	return nil
}

func (r *ProfileCache) Len() int {
	return r.entries.Len()
}

// Close stops the expiry janitor.
func (r *ProfileCache) Close() {
	r.entries.Stop()
}

func cloneRecord(rec *domain.UserRecord) *domain.UserRecord {
	out := *rec
	out.Badges = append([]domain.Badge(nil), rec.Badges...)
	return &out
}

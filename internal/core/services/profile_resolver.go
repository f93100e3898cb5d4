package services

import (
	"context"
	"fmt"
	"sync"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	apperrors "forumclient/pkg/errors"

	"go.uber.org/zap"
)

type profileResolver struct {
	users   ports.UserAPI
	cache   ports.ProfileCache
	logger  *zap.SugaredLogger
	metrics Metrics

	// fillMu orders cache fills against invalidations. generation is bumped
	// by every invalidation so that a lookup that started before it never
	// fills the cache afterwards.
	fillMu     sync.Mutex
	generation uint64
}

// ProfileResolver also exposes the session hook that clears entries owned by ended sessions.
type ProfileResolver interface {
	ports.ProfileResolver
	OnSessionChange(prev, next domain.SessionSnapshot)
}

func NewProfileResolver(
	users ports.UserAPI,
	cache ports.ProfileCache,
	logger *zap.SugaredLogger,
	metrics Metrics,
) ProfileResolver {
	return &profileResolver{
		users:   users,
		cache:   cache,
		logger:  logger,
		metrics: metricsOrNop(metrics),
	}
}

func (r *profileResolver) Resolve(ctx context.Context, identityID string) (*domain.UserRecord, error) {
	if identityID == "" {
		return nil, domain.ErrIdentityRequired
	}

	record, ok, err := r.cache.Get(ctx, identityID)
	if err != nil {
		r.logger.Warnw("Profile cache read failed", "identity_id", identityID, "error", err)
	}
	if ok && record != nil {
		r.metrics.ProfileLookup(LookupHit)
		return record, nil
	}

	gen := r.currentGeneration()
	record, err = r.users.GetUser(ctx, identityID)
	if err != nil {
		r.metrics.ProfileLookup(LookupError)
		return nil, apperrors.NewResolutionError(identityID, err)
	}
	if record == nil || (record.ID == "" && record.IdentityID == "") {
		r.metrics.ProfileLookup(LookupError)
		return nil, apperrors.NewResolutionError(identityID, fmt.Errorf("empty profile"))
	}
	r.metrics.ProfileLookup(LookupMiss)

	r.fillMu.Lock()
	defer r.fillMu.Unlock()
	if r.generation == gen {
		if err := r.cache.Set(ctx, record); err != nil {
			r.logger.Warnw("Profile cache write failed", "identity_id", identityID, "error", err)
		}
	}
	return record, nil
}

func (r *profileResolver) currentGeneration() uint64 {
	r.fillMu.Lock()
	defer r.fillMu.Unlock()
	return r.generation
}

func (r *profileResolver) Invalidate(ctx context.Context, identityID string) {
	r.fillMu.Lock()
	defer r.fillMu.Unlock()
	r.generation++
	if err := r.cache.Delete(ctx, identityID); err != nil {
		r.logger.Warnw("Profile cache delete failed", "identity_id", identityID, "error", err)
	}
}

func (r *profileResolver) InvalidateAll(ctx context.Context) {
	r.fillMu.Lock()
	defer r.fillMu.Unlock()
	r.generation++
	if err := r.cache.Clear(ctx); err != nil {
		r.logger.Warnw("Profile cache clear failed", "error", err)
	}
}

func (r *profileResolver) OnSessionChange(prev, next domain.SessionSnapshot) {
	if !prev.Authenticated() {
		return
	}
	ctx := context.Background()
	switch {
	case !next.Authenticated():
		r.InvalidateAll(ctx)
	case next.IdentityID() != prev.IdentityID():
		r.Invalidate(ctx, prev.IdentityID())
	}
}

package services

import (
	"context"
	"sort"
	"strings"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	apperrors "forumclient/pkg/errors"
	"forumclient/pkg/tracing"

	"go.uber.org/zap"
)

// DefaultRoutes is the dashboard route table.
func DefaultRoutes() []domain.RouteRule {
	return []domain.RouteRule{
		{Path: "/dashboard", Access: domain.AccessSession},
		{Path: "/dashboard/my-posts", Access: domain.AccessSession},
		{Path: "/dashboard/add-post", Access: domain.AccessSession, QuotaGated: true},
		{Path: "/dashboard/membership", Access: domain.AccessSession},
		{Path: "/dashboard/comments", Access: domain.AccessSession},
		{Path: "/dashboard/manage-users", Access: domain.AccessRole, Role: domain.RoleAdmin},
		{Path: "/dashboard/reports", Access: domain.AccessRole, Role: domain.RoleAdmin},
		{Path: "/dashboard/post-announcement", Access: domain.AccessRole, Role: domain.RoleAdmin},
		{Path: "/dashboard/tags", Access: domain.AccessRole, Role: domain.RoleAdmin},
		{Path: "/dashboard/stats", Access: domain.AccessRole, Role: domain.RoleAdmin},
	}
}

// SignOuter is the part of the identity client the guard needs.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

type routeGuard struct {
	store    ports.SessionStore
	resolver ports.ProfileResolver
	identity SignOuter
	logger   *zap.SugaredLogger
	metrics  Metrics

	// rules sorted by descending path length for longest-prefix lookup.
	rules []domain.RouteRule
}

func NewRouteGuard(
	store ports.SessionStore,
	resolver ports.ProfileResolver,
	identity SignOuter,
	rules []domain.RouteRule,
	logger *zap.SugaredLogger,
	metrics Metrics,
) ports.RouteGuard {
	sorted := make([]domain.RouteRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Path) > len(sorted[j].Path)
	})

	return &routeGuard{
		store:    store,
		resolver: resolver,
		identity: identity,
		logger:   logger,
		metrics:  metricsOrNop(metrics),
		rules:    sorted,
	}
}

func (g *routeGuard) SessionGuard(ctx context.Context) domain.Decision {
	return g.record(g.sessionDecision())
}

func (g *routeGuard) sessionDecision() domain.Decision {
	snap := g.store.Snapshot()
	switch {
	case snap.Loading():
		return domain.Decision{Outcome: domain.OutcomeLoading}
	case snap.Authenticated():
		return domain.Decision{Outcome: domain.OutcomeAllow}
	default:
		return domain.Decision{Outcome: domain.OutcomeRedirectUnauthenticated, RedirectTo: domain.LoginPath}
	}
}

func (g *routeGuard) RoleGuard(ctx context.Context, role domain.Role) domain.Decision {
	return g.record(g.roleDecision(ctx, role, true))
}

func (g *routeGuard) roleDecision(ctx context.Context, role domain.Role, retry bool) domain.Decision {
	if d := g.sessionDecision(); !d.Allowed() {
		return d
	}

	identityID := g.store.Snapshot().IdentityID()
	user, err := g.resolver.Resolve(ctx, identityID)

	// The session may have changed while the profile was being fetched.
	if current := g.store.Snapshot().IdentityID(); current != identityID {
		if retry {
			return g.roleDecision(ctx, role, false)
		}
		return g.sessionDecision()
	}

	if err != nil {
		if apperrors.IsAuthorizationError(err) {
			g.forceSignOut(ctx, identityID, "profile lookup rejected credential")
			return domain.Decision{
				Outcome:    domain.OutcomeRedirectUnauthenticated,
				RedirectTo: domain.LoginPath,
				Err:        err,
			}
		}
		g.logger.Errorw("Profile resolution failed", "identity_id", identityID, "error", err)
		return domain.Decision{Outcome: domain.OutcomeError, Err: err}
	}

	if user.Role != role {
		g.forceSignOut(ctx, identityID, "role mismatch")
		return domain.Decision{
			Outcome:    domain.OutcomeRedirectUnauthorized,
			RedirectTo: domain.LoginPath,
			User:       user,
		}
	}

	return domain.Decision{Outcome: domain.OutcomeAllow, User: user}
}

func (g *routeGuard) Check(ctx context.Context, path string) domain.Decision {
	ctx, span := tracing.TraceGuard(ctx, path)
	defer span.End()

	rule, ok := g.match(path)
	var d domain.Decision
	switch {
	case !ok || rule.Access == domain.AccessPublic:
		d = g.record(domain.Decision{Outcome: domain.OutcomeAllow})
	case rule.Access == domain.AccessRole:
		d = g.RoleGuard(ctx, rule.Role)
	default:
		d = g.SessionGuard(ctx)
	}

	tracing.AddSpanAttributes(ctx, tracing.OutcomeKey.String(d.Outcome.String()))
	return d
}

// match finds the longest rule that equals path or is a segment prefix of it.
func (g *routeGuard) match(path string) (domain.RouteRule, bool) {
	path = strings.TrimSuffix(path, "/")
	for _, rule := range g.rules {
		if path == rule.Path || strings.HasPrefix(path, rule.Path+"/") {
			return rule, true
		}
	}
	return domain.RouteRule{}, false
}

func (g *routeGuard) forceSignOut(ctx context.Context, identityID, reason string) {
	g.logger.Warnw("Forcing sign-out", "identity_id", identityID, "reason", reason)
	if err := g.identity.SignOut(ctx); err != nil {
		g.logger.Errorw("Forced sign-out failed", "identity_id", identityID, "error", err)
	}
}

func (g *routeGuard) record(d domain.Decision) domain.Decision {
	g.metrics.GuardDecision(d.Outcome)
	return d
}

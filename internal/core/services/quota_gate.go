package services

import "forumclient/internal/core/domain"

const DefaultFreePostLimit = 5

// QuotaGate decides whether an author may create another post. Gold badge
// holders are unlimited; everyone else may hold fewer than Limit posts.
type QuotaGate struct {
	Limit int
}

func NewQuotaGate(limit int) QuotaGate {
	if limit <= 0 {
		limit = DefaultFreePostLimit
	}
	return QuotaGate{Limit: limit}
}

func (g QuotaGate) CanCreatePost(user *domain.UserRecord, count int) domain.QuotaDecision {
	if user.IsPremium() {
		return domain.QuotaDecision{Allowed: true, Unlimited: true, Limit: g.Limit, Used: count}
	}

	remaining := g.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return domain.QuotaDecision{
		Allowed:   count < g.Limit,
		Limit:     g.Limit,
		Used:      count,
		Remaining: remaining,
	}
}

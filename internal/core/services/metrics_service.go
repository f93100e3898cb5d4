package services

import "forumclient/internal/core/domain"

// Metrics receives counters from the core services. The prometheus collector
// in infrastructure/monitoring implements it.
type Metrics interface {
	SessionTransition(from, to domain.SessionState)
	GuardDecision(outcome domain.Outcome)
	ProfileLookup(result string)
	ModerationTransition(operation, result string)
	ModerationInconsistency()
	QuotaDecision(allowed bool)
}

const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) SessionTransition(domain.SessionState, domain.SessionState) {}
func (NopMetrics) GuardDecision(domain.Outcome)                               {}
func (NopMetrics) ProfileLookup(string)                                       {}
func (NopMetrics) ModerationTransition(string, string)                        {}
func (NopMetrics) ModerationInconsistency()                                   {}
func (NopMetrics) QuotaDecision(bool)                                         {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return NopMetrics{}
	}
	return m
}

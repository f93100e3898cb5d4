package monitoring

import (
	"strconv"
	"time"

	"forumclient/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements services.Metrics and transport.Metrics.
type PrometheusCollector struct {
	sessionTransitions *prometheus.CounterVec
	sessionState       *prometheus.GaugeVec
	guardDecisions     *prometheus.CounterVec
	profileLookups     *prometheus.CounterVec

	moderationTransitions  *prometheus.CounterVec
	moderationInconsistent prometheus.Counter
	quotaDecisions         *prometheus.CounterVec

	outboundRequests  *prometheus.CounterVec
	outboundDuration  *prometheus.HistogramVec
	credentialChanges *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheusCollector registers the collectors on reg; nil means the default registerer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		sessionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_session_transitions_total",
			Help: "Session store transitions",
		}, []string{"from", "to"}),

		sessionState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "forum_session_state",
			Help: "1 for the current session state",
		}, []string{"state"}),

		guardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_guard_decisions_total",
			Help: "Route guard outcomes",
		}, []string{"outcome"}),

		profileLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_profile_lookups_total",
			Help: "Profile resolutions by cache result",
		}, []string{"result"}),

		moderationTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_moderation_transitions_total",
			Help: "Report transitions by operation and result",
		}, []string{"operation", "result"}),

		moderationInconsistent: factory.NewCounter(prometheus.CounterOpts{
			Name: "forum_moderation_inconsistencies_total",
			Help: "Reports resolved whose comment could not be deleted",
		}),

		quotaDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_quota_decisions_total",
			Help: "Post quota evaluations",
		}, []string{"allowed"}),

		outboundRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_outbound_requests_total",
			Help: "Requests sent to the forum API",
		}, []string{"method", "status", "attached"}),

		outboundDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forum_outbound_request_duration_seconds",
			Help:    "Forum API request latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method"}),

		credentialChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_credential_changes_total",
			Help: "Bearer credential installs and removals",
		}, []string{"action"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_gateway_requests_total",
			Help: "Requests served by the view gateway",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forum_gateway_request_duration_seconds",
			Help:    "View gateway latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (p *PrometheusCollector) SessionTransition(from, to domain.SessionState) {
	p.sessionTransitions.WithLabelValues(from.String(), to.String()).Inc()
	for _, s := range []domain.SessionState{domain.SessionUnknown, domain.SessionAuthenticated, domain.SessionAnonymous} {
		v := 0.0
		if s == to {
			v = 1
		}
		p.sessionState.WithLabelValues(s.String()).Set(v)
	}
}

func (p *PrometheusCollector) GuardDecision(outcome domain.Outcome) {
	p.guardDecisions.WithLabelValues(outcome.String()).Inc()
}

func (p *PrometheusCollector) ProfileLookup(result string) {
	p.profileLookups.WithLabelValues(result).Inc()
}

func (p *PrometheusCollector) ModerationTransition(operation, result string) {
	p.moderationTransitions.WithLabelValues(operation, result).Inc()
}

func (p *PrometheusCollector) ModerationInconsistency() {
	p.moderationInconsistent.Inc()
}

func (p *PrometheusCollector) QuotaDecision(allowed bool) {
	p.quotaDecisions.WithLabelValues(strconv.FormatBool(allowed)).Inc()
}

func (p *PrometheusCollector) OutboundRequest(method string, status int, attached bool, d time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	p.outboundRequests.WithLabelValues(method, code, strconv.FormatBool(attached)).Inc()
	p.outboundDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (p *PrometheusCollector) CredentialChange(installed bool) {
	action := "removed"
	if installed {
		action = "installed"
	}
	p.credentialChanges.WithLabelValues(action).Inc()
}

func (p *PrometheusCollector) HTTPRequest(method, route string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

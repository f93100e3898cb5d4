// Package transport attaches the current session's bearer credential to
// outgoing requests.
package transport

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"forumclient/internal/core/domain"
	"forumclient/pkg/logger"
	"forumclient/pkg/tracing"
	"forumclient/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)

var ErrEmptyAttachment = errors.New("attachment needs both identity and credential")

// Attachment is the credential installed for one identity.
type Attachment struct {
	IdentityID string
	Credential string
}

// Metrics receives per-request observations.
type Metrics interface {
	OutboundRequest(method string, status int, attached bool, d time.Duration)
	CredentialChange(installed bool)
}

type nopMetrics struct{}

func (nopMetrics) OutboundRequest(string, int, bool, time.Duration) {}
func (nopMetrics) CredentialChange(bool)                            {}

// Option configures an AuthenticatedTransport.
type Option func(*AuthenticatedTransport)

func WithBase(base http.RoundTripper) Option {
	return func(t *AuthenticatedTransport) { t.base = base }
}

// WithLimiter throttles outbound requests; a request waits for a token or fails with its context.
func WithLimiter(l *rate.Limiter) Option {
	return func(t *AuthenticatedTransport) { t.limiter = l }
}

func WithMetrics(m Metrics) Option {
	return func(t *AuthenticatedTransport) {
		if m != nil {
			t.metrics = m
		}
	}
}

// AuthenticatedTransport is an http.RoundTripper. While an attachment is installed every
// request carries "Authorization: Bearer <credential>"; otherwise any caller-supplied
// Authorization header is removed. Authorization failures are returned unmodified.
type AuthenticatedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
	metrics Metrics

	mu         sync.RWMutex
	attachment *Attachment
}

// New builds a transport with no attachment. A transport that is never installed
// doubles as the public (unauthenticated) transport.
func New(logger *zap.SugaredLogger, opts ...Option) *AuthenticatedTransport {
	t := &AuthenticatedTransport{
		base:    http.DefaultTransport,
		logger:  logger,
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Install replaces any existing attachment.
func (t *AuthenticatedTransport) Install(a Attachment) error {
	if a.IdentityID == "" || a.Credential == "" {
		return ErrEmptyAttachment
	}

	t.mu.Lock()
	t.attachment = &a
	t.mu.Unlock()

	t.metrics.CredentialChange(true)
	t.logger.Debugw("Credential installed",
		"identity_id", a.IdentityID,
		"credential", utils.MaskToken(a.Credential),
	)
	return nil
}

// Uninstall removes the attachment if it belongs to identityID and reports whether it did.
func (t *AuthenticatedTransport) Uninstall(identityID string) bool {
	t.mu.Lock()
	if t.attachment == nil || t.attachment.IdentityID != identityID {
		t.mu.Unlock()
		return false
	}
	t.attachment = nil
	t.mu.Unlock()

	t.metrics.CredentialChange(false)
	t.logger.Debugw("Credential removed", "identity_id", identityID)
	return true
}

// Current returns a copy of the installed attachment.
func (t *AuthenticatedTransport) Current() (Attachment, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.attachment == nil {
		return Attachment{}, false
	}
	return *t.attachment, true
}

// OnSessionChange runs as a BeforePublish hook on the session store, so no
// reader sees a snapshot the installed credential does not match. The old
// attachment is removed before the new one is installed.
func (t *AuthenticatedTransport) OnSessionChange(prev, next domain.SessionSnapshot) {
	if prev.Authenticated() {
		t.Uninstall(prev.IdentityID())
	}
	if next.Authenticated() {
		err := t.Install(Attachment{
			IdentityID: next.Session.IdentityID,
			Credential: next.Session.Credential,
		})
		if err != nil {
			t.logger.Errorw("Failed to install credential", "identity_id", next.IdentityID(), "error", err)
		}
	}
}

func (t *AuthenticatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("outbound rate limit: %w", err)
		}
	}

	// Snapshot once so a concurrent transition cannot mix credentials within a request.
	t.mu.RLock()
	var att *Attachment
	if t.attachment != nil {
		a := *t.attachment
		att = &a
	}
	t.mu.RUnlock()

	ctx, span := tracing.TraceRemoteCall(ctx, req.Method, req.URL.Host, req.URL.Path)
	defer span.End()

	out := req.Clone(ctx)
	out.Header.Del(HeaderAuthorization)
	if att != nil {
		out.Header.Set(HeaderAuthorization, "Bearer "+att.Credential)
		span.SetAttributes(tracing.IdentityIDKey.String(att.IdentityID))
	}
	if out.Header.Get(HeaderRequestID) == "" {
		id := logger.RequestID(ctx)
		if id == "" {
			id = utils.GenerateRequestID()
		}
		out.Header.Set(HeaderRequestID, id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(out.Header))

	start := time.Now()
	resp, err := t.base.RoundTrip(out)
	elapsed := time.Since(start)

	if err != nil {
		tracing.RecordError(ctx, err)
		t.metrics.OutboundRequest(req.Method, 0, att != nil, elapsed)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	t.metrics.OutboundRequest(req.Method, resp.StatusCode, att != nil, elapsed)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		t.logger.Warnw("Remote rejected request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"attached", att != nil,
		)
	}
	return resp, nil
}

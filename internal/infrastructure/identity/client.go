// Package identity talks to the external identity provider and turns its
// responses into session-change events.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	apperrors "forumclient/pkg/errors"

	"go.uber.org/zap"
)

const authPrefix = "/api/v1/auth"

type Config struct {
	BaseURL            string
	Timeout            time.Duration
	VerificationSecret string
	// RefreshSkew is how long before expiry the access token is refreshed.
	RefreshSkew time.Duration
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Client implements ports.IdentityClient. Listeners run synchronously and in
// registration order; they must not call back into the client.
type Client struct {
	baseURL string
	http    *http.Client
	parser  *TokenParser
	skew    time.Duration
	logger  *zap.SugaredLogger

	mu           sync.Mutex
	session      *domain.Session
	refreshToken string
	refreshTimer *time.Timer
	closed       bool

	emitMu    sync.Mutex
	listeners []*listener
}

type listener struct {
	fn func(domain.SessionEvent)
}

var _ ports.IdentityClient = (*Client)(nil)

func NewClient(cfg Config, logger *zap.SugaredLogger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identity base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RefreshSkew <= 0 {
		cfg.RefreshSkew = time.Minute
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + authPrefix,
		http:    &http.Client{Timeout: cfg.Timeout},
		parser:  NewTokenParser(cfg.VerificationSecret),
		skew:    cfg.RefreshSkew,
		logger:  logger,
	}, nil
}

// OnSessionChange registers fn for every subsequent session event.
func (c *Client) OnSessionChange(fn func(domain.SessionEvent)) func() {
	l := &listener{fn: fn}
	c.emitMu.Lock()
	c.listeners = append(c.listeners, l)
	c.emitMu.Unlock()

	return func() {
		c.emitMu.Lock()
		defer c.emitMu.Unlock()
		for i, have := range c.listeners {
			if have == l {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Start emits the authoritative startup event. Nothing is persisted between
// runs, so the first event reports no session unless one was established.
func (c *Client) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	current := c.session
	c.mu.Unlock()

	c.emit(domain.SessionEvent{Session: current, Reason: domain.EventReasonStartup})
	return nil
}

// Close stops the refresh timer. No events are emitted afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

func (c *Client) SignUp(ctx context.Context, req ports.SignUpRequest) (*domain.Session, error) {
	var tokens tokenResponse
	if err := c.post(ctx, "/register", req, "", &tokens); err != nil {
		return nil, err
	}
	return c.establish(tokens, domain.EventReasonSignIn)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var tokens tokenResponse
	if err := c.post(ctx, "/login", body, "", &tokens); err != nil {
		return nil, err
	}
	return c.establish(tokens, domain.EventReasonSignIn)
}

// SignOut ends the local session even when the provider call fails; the
// provider error is still returned.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	refresh := c.refreshToken
	c.clearLocked()
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	var remoteErr error
	if refresh != "" {
		remoteErr = c.post(ctx, "/logout", map[string]string{"refresh_token": refresh}, session.Credential, nil)
		if remoteErr != nil {
			c.logger.Warnw("Provider sign-out failed", "identity_id", session.IdentityID, "error", remoteErr)
		}
	}

	c.emit(domain.SessionEvent{Reason: domain.EventReasonSignOut})
	c.logger.Infow("Signed out", "identity_id", session.IdentityID)
	return remoteErr
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	return c.post(ctx, "/password-reset", map[string]string{"email": email}, "", nil)
}

// Refresh exchanges the refresh token for a new access token. A rejected
// refresh ends the session with an expired event.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()
	if refresh == "" {
		return apperrors.NewUnauthorizedError("no session to refresh")
	}

	var tokens tokenResponse
	err := c.post(ctx, "/refresh", map[string]string{"refresh_token": refresh}, "", &tokens)
	if err != nil {
		if apperrors.IsAuthorizationError(err) {
			c.expire()
		}
		return err
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refresh
	}
	_, err = c.establish(tokens, domain.EventReasonRefresh)
	return err
}

// Current returns the provider-side session, if any.
func (c *Client) Current() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *Client) establish(tokens tokenResponse, reason string) (*domain.Session, error) {
	session, err := c.parser.Session(tokens.AccessToken, tokens.ExpiresIn)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeBadGateway,
			"identity provider returned an unusable token", http.StatusBadGateway)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, apperrors.NewServiceUnavailableError("identity client closed")
	}
	c.session = session
	c.refreshToken = tokens.RefreshToken
	c.scheduleRefreshLocked(session.ExpiresAt)
	c.mu.Unlock()

	c.logger.Infow("Session established", "identity_id", session.IdentityID, "reason", reason)

	out := *session
	c.emit(domain.SessionEvent{Session: session, Reason: reason})
	return &out, nil
}

func (c *Client) expire() {
	c.mu.Lock()
	had := c.session != nil
	c.clearLocked()
	c.mu.Unlock()

	if had {
		c.logger.Warnw("Session expired")
		c.emit(domain.SessionEvent{Reason: domain.EventReasonExpired})
	}
}

func (c *Client) clearLocked() {
	c.session = nil
	c.refreshToken = ""
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

func (c *Client) scheduleRefreshLocked(expiresAt time.Time) {
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	if expiresAt.IsZero() || c.refreshToken == "" {
		return
	}

	wait := time.Until(expiresAt) - c.skew
	if wait < 0 {
		wait = 0
	}
	c.refreshTimer = time.AfterFunc(wait, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
		defer cancel()
		if err := c.Refresh(ctx); err != nil {
			c.logger.Warnw("Token refresh failed", "error", err)
		}
	})
}

func (c *Client) emit(ev domain.SessionEvent) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	for _, l := range c.listeners {
		var copied domain.SessionEvent
		copied.Reason = ev.Reason
		if ev.Session != nil {
			s := *ev.Session
			copied.Session = &s
		}
		l.fn(copied)
	}
}

func (c *Client) post(ctx context.Context, path string, body interface{}, bearer string, out interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeServiceUnavailable,
			"identity provider unreachable", http.StatusServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return apperrors.FromHTTPStatus(resp.StatusCode, errorMessage(resp)).
			WithContext("path", authPrefix+path)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeBadGateway,
			"invalid identity provider response", http.StatusBadGateway)
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return http.StatusText(resp.StatusCode)
}

// Package forumapi is the typed client for the remote forum REST API.
package forumapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"forumclient/internal/core/ports"
	"forumclient/pkg/circuitbreaker"
	apperrors "forumclient/pkg/errors"

	"go.uber.org/zap"
)

const maxErrorBody = 4 << 10

// Config wires the two transports. Public requests never carry a credential;
// Secure is normally the session-bound AuthenticatedTransport.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Public  http.RoundTripper
	Secure  http.RoundTripper
	Breaker *circuitbreaker.CircuitBreaker
}

// Client implements ports.ForumAPI.
type Client struct {
	baseURL *url.URL
	public  *http.Client
	secure  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

var _ ports.ForumAPI = (*Client)(nil)

func NewClient(cfg Config, logger *zap.SugaredLogger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Public == nil {
		cfg.Public = http.DefaultTransport
	}
	if cfg.Secure == nil {
		cfg.Secure = http.DefaultTransport
	}

	return &Client{
		baseURL: base,
		public:  &http.Client{Transport: cfg.Public, Timeout: cfg.Timeout},
		secure:  &http.Client{Transport: cfg.Secure, Timeout: cfg.Timeout},
		breaker: cfg.Breaker,
		logger:  logger,
	}, nil
}

// IsRemoteFailure reports errors that should trip a circuit breaker: transport
// failures and 5xx responses. Client-side rejections do not.
func IsRemoteFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr.HTTPStatus >= http.StatusInternalServerError
	}
	return true
}

type call struct {
	secure bool
	method string
	path   string
	query  url.Values
	body   interface{}
	out    interface{}
}

func (c *Client) do(ctx context.Context, cl call) error {
	if c.breaker == nil {
		return c.send(ctx, cl)
	}
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.send(ctx, cl)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return apperrors.WrapError(err, apperrors.ErrCodeServiceUnavailable,
			"forum API temporarily unavailable", http.StatusServiceUnavailable)
	}
	return err
}

func (c *Client) send(ctx context.Context, cl call) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + cl.path
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", cl.method, cl.path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", cl.method, cl.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.public
	if cl.secure {
		client = c.secure
	}

	resp, err := client.Do(req)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeBadGateway,
			fmt.Sprintf("%s %s failed", cl.method, cl.path), http.StatusBadGateway)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg := remoteMessage(resp)
		c.logger.Debugw("Remote call rejected",
			"method", cl.method,
			"path", cl.path,
			"status", resp.StatusCode,
			"message", msg,
		)
		return apperrors.FromHTTPStatus(resp.StatusCode, msg).
			WithContext("method", cl.method).
			WithContext("path", cl.path).
			WithContext("status", resp.StatusCode)
	}

	if cl.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.WrapError(err, apperrors.ErrCodeBadGateway,
			fmt.Sprintf("decode %s %s", cl.method, cl.path), http.StatusBadGateway)
	}
	return nil
}

// emptyBody reports a 2xx response that decoded to no record.
func emptyBody(kind, id string) error {
	return apperrors.NewAppError(apperrors.ErrCodeBadGateway,
		fmt.Sprintf("forum API returned an empty %s", kind), http.StatusBadGateway).
		WithContext("id", id)
}

// remoteMessage extracts {"message"} or {"error"} from an error body.
func remoteMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))
	return q
}

func escape(id string) string {
	return url.PathEscape(id)
}

package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"forumclient/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// AddRedisCheck pings the profile cache backend.
func (h *HealthChecker) AddRedisCheck(client *redis.Client, interval, timeout time.Duration) {
	h.AddCheck("redis", func(ctx context.Context) (bool, error) {
		if err := client.Ping(ctx).Err(); err != nil {
			return false, err
		}
		return true, nil
	}, interval, timeout)
}

// AddSessionCheck is healthy once the first identity event has been applied.
func (h *HealthChecker) AddSessionCheck(store ports.SessionStore, interval time.Duration) {
	h.AddCheck("session", func(ctx context.Context) (bool, error) {
		if store.Snapshot().Loading() {
			return false, fmt.Errorf("session not established yet")
		}
		return true, nil
	}, interval, time.Second)
}

// AddHTTPCheck treats any non-5xx response from url as reachable.
func (h *HealthChecker) AddHTTPCheck(name, url string, client *http.Client, interval, timeout time.Duration) {
	if client == nil {
		client = http.DefaultClient
	}
	h.AddCheck(name, func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return false, err
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return false, fmt.Errorf("%s returned %d", name, resp.StatusCode)
		}
		return true, nil
	}, interval, timeout)
}

// IsReady reports whether every check passes right now.
func (h *HealthChecker) IsReady(ctx context.Context) bool {
	return h.CheckAll(ctx).Status == StatusHealthy
}

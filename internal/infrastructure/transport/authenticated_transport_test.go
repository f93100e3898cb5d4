package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"forumclient/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"
)

type capturingServer struct {
	mu      sync.Mutex
	headers []http.Header
	status  int
}

func (s *capturingServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.headers = append(s.headers, r.Header.Clone())
	status := s.status
	s.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func (s *capturingServer) last() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[len(s.headers)-1]
}

func newTestClient(t *testing.T) (*AuthenticatedTransport, *http.Client, *capturingServer, string) {
	t.Helper()
	cs := &capturingServer{}
	srv := httptest.NewServer(http.HandlerFunc(cs.handler))
	t.Cleanup(srv.Close)

	tr := New(zaptest.NewLogger(t).Sugar())
	return tr, &http.Client{Transport: tr}, cs, srv.URL
}

func get(t *testing.T, client *http.Client, url string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func snapshot(identityID, credential string) domain.SessionSnapshot {
	if identityID == "" {
		return domain.SessionSnapshot{State: domain.SessionAnonymous}
	}
	return domain.SessionSnapshot{
		State:   domain.SessionAuthenticated,
		Session: &domain.Session{IdentityID: identityID, Credential: credential},
	}
}

func TestTransport_AttachesOnlyWhileAuthenticated(t *testing.T) {
	tr, client, cs, url := newTestClient(t)

	get(t, client, url, nil)
	assert.Empty(t, cs.last().Get(HeaderAuthorization))

	tr.OnSessionChange(domain.SessionSnapshot{}, snapshot("uid-1", "tok-1"))
	get(t, client, url, nil)
	assert.Equal(t, "Bearer tok-1", cs.last().Get(HeaderAuthorization))

	tr.OnSessionChange(snapshot("uid-1", "tok-1"), snapshot("", ""))
	get(t, client, url, nil)
	assert.Empty(t, cs.last().Get(HeaderAuthorization))
}

func TestTransport_AlwaysUsesCurrentSession(t *testing.T) {
	tr, client, cs, url := newTestClient(t)

	a := snapshot("uid-1", "tok-1")
	a2 := snapshot("uid-1", "tok-1-refreshed")
	b := snapshot("uid-2", "tok-2")

	tr.OnSessionChange(domain.SessionSnapshot{}, a)
	tr.OnSessionChange(a, a2)
	get(t, client, url, nil)
	assert.Equal(t, "Bearer tok-1-refreshed", cs.last().Get(HeaderAuthorization))

	tr.OnSessionChange(a2, b)
	get(t, client, url, nil)
	assert.Equal(t, "Bearer tok-2", cs.last().Get(HeaderAuthorization))

	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, "uid-2", cur.IdentityID)
}

func TestTransport_StripsCallerAuthorizationWhenAnonymous(t *testing.T) {
	_, client, cs, url := newTestClient(t)

	get(t, client, url, http.Header{HeaderAuthorization: []string{"Bearer forged"}})
	assert.Empty(t, cs.last().Get(HeaderAuthorization))
}

func TestTransport_UninstallKeyedToIdentity(t *testing.T) {
	tr, _, _, _ := newTestClient(t)

	require.NoError(t, tr.Install(Attachment{IdentityID: "uid-2", Credential: "tok-2"}))
	assert.False(t, tr.Uninstall("uid-1"))
	_, ok := tr.Current()
	assert.True(t, ok)

	assert.True(t, tr.Uninstall("uid-2"))
	_, ok = tr.Current()
	assert.False(t, ok)

	assert.ErrorIs(t, tr.Install(Attachment{IdentityID: "uid-3"}), ErrEmptyAttachment)
}

func TestTransport_DoesNotMutateCallerRequest(t *testing.T) {
	tr, client, _, url := newTestClient(t)
	require.NoError(t, tr.Install(Attachment{IdentityID: "uid-1", Credential: "tok-1"}))

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get(HeaderAuthorization))
}

func TestTransport_AuthorizationFailurePassesThrough(t *testing.T) {
	tr, client, cs, url := newTestClient(t)
	cs.status = http.StatusUnauthorized
	require.NoError(t, tr.Install(Attachment{IdentityID: "uid-1", Credential: "expired"}))

	resp := get(t, client, url, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Len(t, cs.headers, 1)
}

func TestTransport_SetsRequestID(t *testing.T) {
	_, client, cs, url := newTestClient(t)

	get(t, client, url, nil)
	assert.NotEmpty(t, cs.last().Get(HeaderRequestID))

	get(t, client, url, http.Header{HeaderRequestID: []string{"req-fixed"}})
	assert.Equal(t, "req-fixed", cs.last().Get(HeaderRequestID))
}

func TestTransport_LimiterHonoursContext(t *testing.T) {
	cs := &capturingServer{}
	srv := httptest.NewServer(http.HandlerFunc(cs.handler))
	defer srv.Close()

	limiter := rate.NewLimiter(rate.Limit(0.0001), 1)
	tr := New(zaptest.NewLogger(t).Sugar(), WithLimiter(limiter))
	client := &http.Client{Transport: tr}

	get(t, client, srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	_, err := client.Do(req)
	assert.Error(t, err)
}

package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	apperrors "forumclient/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, ttl time.Duration) string {
	t.Helper()
	claims := &Claims{
		Name:  "Ana",
		Email: "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

type fakeProvider struct {
	t           *testing.T
	mu          sync.Mutex
	refreshCode int
	logouts     int
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case authPrefix + "/login", authPrefix + "/register":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] == "wrong" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  signToken(p.t, testSecret, "uid-1", time.Hour),
			RefreshToken: "refresh-1",
			ExpiresIn:    3600,
		})
	case authPrefix + "/refresh":
		p.mu.Lock()
		code := p.refreshCode
		p.mu.Unlock()
		if code != 0 {
			w.WriteHeader(code)
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: signToken(p.t, testSecret, "uid-1", 2*time.Hour),
			ExpiresIn:   7200,
		})
	case authPrefix + "/logout":
		p.mu.Lock()
		p.logouts++
		p.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	case authPrefix + "/password-reset":
		w.WriteHeader(http.StatusAccepted)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (r *recorder) record(ev domain.SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []domain.SessionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SessionEvent(nil), r.events...)
}

func newTestClient(t *testing.T, secret string) (*Client, *fakeProvider, *recorder) {
	t.Helper()
	provider := &fakeProvider{t: t}
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:            srv.URL,
		Timeout:            2 * time.Second,
		VerificationSecret: secret,
		RefreshSkew:        time.Minute,
	}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	rec := &recorder{}
	c.OnSessionChange(rec.record)
	return c, provider, rec
}

func TestClient_StartEmitsAnonymous(t *testing.T) {
	c, _, rec := newTestClient(t, testSecret)

	require.NoError(t, c.Start(context.Background()))

	events := rec.all()
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Session)
	assert.Equal(t, domain.EventReasonStartup, events[0].Reason)
}

func TestClient_SignInEmitsSession(t *testing.T) {
	c, _, rec := newTestClient(t, testSecret)

	session, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", session.IdentityID)
	assert.Equal(t, "ana@example.com", session.Email)
	assert.False(t, session.ExpiresAt.IsZero())

	events := rec.all()
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Session)
	assert.Equal(t, session.Credential, events[0].Session.Credential)
	assert.Equal(t, domain.EventReasonSignIn, events[0].Reason)
}

func TestClient_SignInRejected(t *testing.T) {
	c, _, rec := newTestClient(t, testSecret)

	_, err := c.SignIn(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
	assert.Empty(t, rec.all())
}

func TestClient_WrongSecretRejectsToken(t *testing.T) {
	c, _, rec := newTestClient(t, "other-secret")

	_, err := c.SignUp(context.Background(), ports.SignUpRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBadGateway))
	assert.Empty(t, rec.all())
}

func TestClient_UnverifiedParsingWithoutSecret(t *testing.T) {
	c, _, _ := newTestClient(t, "")

	session, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", session.IdentityID)
}

func TestClient_SignOutEmitsAndCallsProvider(t *testing.T) {
	c, provider, rec := newTestClient(t, testSecret)

	_, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, c.SignOut(context.Background()))

	events := rec.all()
	require.Len(t, events, 2)
	assert.Nil(t, events[1].Session)
	assert.Equal(t, domain.EventReasonSignOut, events[1].Reason)
	assert.Nil(t, c.Current())

	provider.mu.Lock()
	assert.Equal(t, 1, provider.logouts)
	provider.mu.Unlock()

	// signing out twice is a no-op
	require.NoError(t, c.SignOut(context.Background()))
	assert.Len(t, rec.all(), 2)
}

func TestClient_RefreshReplacesCredential(t *testing.T) {
	c, _, rec := newTestClient(t, testSecret)

	first, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, c.Refresh(context.Background()))

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventReasonRefresh, events[1].Reason)
	assert.Equal(t, "uid-1", events[1].Session.IdentityID)
	assert.True(t, events[1].Session.ExpiresAt.After(first.ExpiresAt))
}

func TestClient_RejectedRefreshExpiresSession(t *testing.T) {
	c, provider, rec := newTestClient(t, testSecret)

	_, err := c.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)

	provider.mu.Lock()
	provider.refreshCode = http.StatusUnauthorized
	provider.mu.Unlock()

	err = c.Refresh(context.Background())
	require.Error(t, err)

	events := rec.all()
	require.Len(t, events, 2)
	assert.Nil(t, events[1].Session)
	assert.Equal(t, domain.EventReasonExpired, events[1].Reason)
}

func TestClient_Unsubscribe(t *testing.T) {
	c, _, rec := newTestClient(t, testSecret)
	other := &recorder{}
	unsubscribe := c.OnSessionChange(other.record)
	unsubscribe()

	require.NoError(t, c.Start(context.Background()))
	assert.Len(t, rec.all(), 1)
	assert.Empty(t, other.all())
}

func TestTokenParser_Expired(t *testing.T) {
	parser := NewTokenParser(testSecret)
	_, err := parser.Parse(signToken(t, testSecret, "uid-1", -time.Minute))
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = NewTokenParser("").Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

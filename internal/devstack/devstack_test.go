package devstack

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"forumclient/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestStack(t *testing.T) *DevStack {
	t.Helper()
	return New(Config{
		JWTSecret:  "test-secret",
		AdminEmail: "admin@forum.test",
	}, zaptest.NewLogger(t).Sugar())
}

func call(t *testing.T, d *DevStack, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	d.Handler().ServeHTTP(w, req)
	return w
}

type tokens struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func signUp(t *testing.T, d *DevStack, email string) tokens {
	t.Helper()
	w := call(t, d, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Member", "email": email, "password": "Password1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tk tokens
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tk))

	w = call(t, d, http.MethodPost, "/users", "", domain.NewUserProfile{
		IdentityID: tk.UserID, Name: "Member", Email: email,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return tk
}

func TestIdentity_RegisterLoginRefreshLogout(t *testing.T) {
	d := newTestStack(t)
	tk := signUp(t, d, "member@forum.test")
	assert.NotEmpty(t, tk.AccessToken)
	assert.Equal(t, int((15 * time.Minute).Seconds()), tk.ExpiresIn)

	w := call(t, d, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "member@forum.test", "password": "Password1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, d, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "member@forum.test", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, d, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "Member@Forum.test", "password": "Password1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = call(t, d, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": tk.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, d, http.MethodPost, "/api/v1/auth/logout", "", gin.H{"refresh_token": tk.RefreshToken})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = call(t, d, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": tk.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentity_PasswordStoredAsBcryptHash(t *testing.T) {
	d := newTestStack(t)
	signUp(t, d, "member@forum.test")

	d.state.mu.RLock()
	acct := d.state.accounts["member@forum.test"]
	d.state.mu.RUnlock()
	require.NotNil(t, acct)

	assert.NotContains(t, string(acct.password), "Password1")
	cost, err := bcrypt.Cost(acct.password)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.True(t, acct.checkPassword("Password1"))
	assert.False(t, acct.checkPassword("password1"))
}

func TestTokens_RefreshIsNotBearer(t *testing.T) {
	d := newTestStack(t)
	tk := signUp(t, d, "member@forum.test")

	w := call(t, d, http.MethodGet, "/users/"+tk.UserID, tk.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, d, http.MethodGet, "/users/"+tk.UserID, tk.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestForum_AdminEmailGetsAdminRole(t *testing.T) {
	d := newTestStack(t)
	admin := signUp(t, d, "admin@forum.test")
	member := signUp(t, d, "member@forum.test")

	u, ok := d.User(admin.UserID)
	require.True(t, ok)
	assert.True(t, u.IsAdmin())

	assert.Equal(t, http.StatusForbidden, call(t, d, http.MethodGet, "/users", member.AccessToken, nil).Code)

	w := call(t, d, http.MethodGet, "/users?page=1&limit=1", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Users      []domain.UserRecord `json:"users"`
		TotalUsers int                 `json:"totalUsers"`
		TotalPages int                 `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Len(t, env.Users, 1)
	assert.Equal(t, 2, env.TotalUsers)
	assert.Equal(t, 2, env.TotalPages)
}

func TestForum_FreePostLimit(t *testing.T) {
	d := newTestStack(t)
	tk := signUp(t, d, "member@forum.test")
	u, _ := d.User(tk.UserID)
	d.SeedPosts(u.ID, 5)

	draft := domain.PostDraft{AuthorID: u.ID, Title: "Sixth", Content: "body", Tag: "general"}
	assert.Equal(t, http.StatusForbidden, call(t, d, http.MethodPost, "/posts", tk.AccessToken, draft).Code)

	w := call(t, d, http.MethodPatch, "/users/"+tk.UserID+"/badges", tk.AccessToken, gin.H{"badge": "gold"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusCreated, call(t, d, http.MethodPost, "/posts", tk.AccessToken, draft).Code)
	assert.Equal(t, 2, d.Requests(http.MethodPost, "/posts"))
}

func TestForum_ReportTransitions(t *testing.T) {
	d := newTestStack(t)
	admin := signUp(t, d, "admin@forum.test")
	commentID := d.SeedComment(domain.Comment{PostID: "p1", Content: "rude"})
	reportID := d.SeedReport(domain.Report{CommentID: commentID, Reason: domain.ReasonHarassment})

	path := "/reports/" + reportID + "/status"
	w := call(t, d, http.MethodPatch, path, admin.AccessToken, gin.H{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, d, http.MethodPatch, path, admin.AccessToken, gin.H{"status": "resolved"})
	require.Equal(t, http.StatusOK, w.Code)
	r, _ := d.Report(reportID)
	assert.Equal(t, domain.ReportResolved, r.Status)

	w = call(t, d, http.MethodPatch, path, admin.AccessToken, gin.H{"status": "dismissed"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFaults_FailNext(t *testing.T) {
	d := newTestStack(t)
	d.FailNext(http.MethodGet, "/tags", http.StatusBadGateway)

	assert.Equal(t, http.StatusBadGateway, call(t, d, http.MethodGet, "/tags", "", nil).Code)
	assert.Equal(t, http.StatusOK, call(t, d, http.MethodGet, "/tags", "", nil).Code)
	assert.Equal(t, 2, d.Requests(http.MethodGet, "/tags"))
}

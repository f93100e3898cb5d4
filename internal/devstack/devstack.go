// Package devstack is an in-memory identity provider and forum API for local
// runs and tests. Both live under one base URL.
package devstack

import (
	"net/http"
	"time"

	"forumclient/internal/core/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Config struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// AdminEmail receives the admin role when its profile is registered.
	AdminEmail string
	// FreePostLimit is enforced server-side on POST /posts.
	FreePostLimit int
}

type DevStack struct {
	cfg    Config
	tokens *TokenIssuer
	state  *state
	faults *faultInjector
	router *gin.Engine
	logger *zap.SugaredLogger
}

func New(cfg Config, logger *zap.SugaredLogger) *DevStack {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 24 * time.Hour
	}
	if cfg.FreePostLimit <= 0 {
		cfg.FreePostLimit = 5
	}

	d := &DevStack{
		cfg:    cfg,
		tokens: NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		state:  newState(),
		faults: newFaultInjector(),
		logger: logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), d.faults.middleware())
	d.setupIdentityRoutes(router)
	d.setupForumRoutes(router)
	d.router = router
	return d
}

func (d *DevStack) Handler() http.Handler {
	return d.router
}

// FailNext makes the next request for method and exact path fail with status.
func (d *DevStack) FailNext(method, path string, status int) {
	d.faults.failNext(method, path, status)
}

// Requests counts requests received for method and exact path.
func (d *DevStack) Requests(method, path string) int {
	return d.faults.requests(method, path)
}

// SeedUser stores rec as a registered profile.
func (d *DevStack) SeedUser(rec domain.UserRecord) {
	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.Role == "" {
		rec.Role = domain.RoleUser
	}
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.users[rec.IdentityID] = cloneUser(&rec)
}

// SeedPosts creates n posts by authorID and returns their ids.
func (d *DevStack) SeedPosts(authorID string, n int) []string {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := &domain.Post{
			ID:        newID(),
			AuthorID:  authorID,
			Title:     "Seeded post",
			Content:   "seeded",
			Tag:       "general",
			CreatedAt: d.state.now().Add(time.Duration(i) * time.Millisecond),
		}
		d.state.posts[p.ID] = p
		ids = append(ids, p.ID)
	}
	return ids
}

func (d *DevStack) SeedComment(c domain.Comment) string {
	if c.ID == "" {
		c.ID = newID()
	}
	c.CreatedAt = d.state.now()
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.comments[c.ID] = &c
	return c.ID
}

func (d *DevStack) SeedReport(r domain.Report) string {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.Status == "" {
		r.Status = domain.ReportPending
	}
	r.CreatedAt = d.state.now()
	d.state.mu.Lock()
	defer d.state.mu.Unlock()
	d.state.reports[r.ID] = &r
	return r.ID
}

func (d *DevStack) Comment(id string) (domain.Comment, bool) {
	d.state.mu.RLock()
	defer d.state.mu.RUnlock()
	c, ok := d.state.comments[id]
	if !ok {
		return domain.Comment{}, false
	}
	return *c, true
}

func (d *DevStack) Report(id string) (domain.Report, bool) {
	d.state.mu.RLock()
	defer d.state.mu.RUnlock()
	r, ok := d.state.reports[id]
	if !ok {
		return domain.Report{}, false
	}
	return *r, true
}

func (d *DevStack) User(identityID string) (domain.UserRecord, bool) {
	d.state.mu.RLock()
	defer d.state.mu.RUnlock()
	u, ok := d.state.users[identityID]
	if !ok {
		return domain.UserRecord{}, false
	}
	return *cloneUser(u), true
}

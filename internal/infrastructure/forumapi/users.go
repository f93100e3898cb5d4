package forumapi

import (
	"context"
	"net/http"

	"forumclient/internal/core/domain"
)

type usersEnvelope struct {
	Users      []domain.UserRecord `json:"users"`
	TotalUsers int                 `json:"totalUsers"`
	TotalPages int                 `json:"totalPages"`
}

// GetUser fails with BAD_GATEWAY when the body carries no record id; null, {}
// and empty bodies all decode that way.
func (c *Client) GetUser(ctx context.Context, identityID string) (*domain.UserRecord, error) {
	var rec domain.UserRecord
	err := c.do(ctx, call{secure: true, method: http.MethodGet, path: "/users/" + escape(identityID), out: &rec})
	if err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, emptyBody("user", identityID)
	}
	return &rec, nil
}

// RegisterUser upserts the profile on the public client; it runs right after sign-up.
func (c *Client) RegisterUser(ctx context.Context, profile domain.NewUserProfile) (*domain.UserRecord, error) {
	var rec domain.UserRecord
	err := c.do(ctx, call{method: http.MethodPost, path: "/users", body: profile, out: &rec})
	if err != nil {
		return nil, err
	}
	if rec.IdentityID == "" {
		rec.IdentityID = profile.IdentityID
		rec.Name = profile.Name
		rec.Email = profile.Email
		rec.Avatar = profile.Avatar
	}
	return &rec, nil
}

func (c *Client) ListUsers(ctx context.Context, filter domain.UserFilter) (*domain.Page[domain.UserRecord], error) {
	req := domain.PageRequest{Page: filter.Page, Limit: filter.Limit}.Normalize(10)
	q := pageQuery(req.Page, req.Limit)
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}

	var env usersEnvelope
	if err := c.do(ctx, call{secure: true, method: http.MethodGet, path: "/users", query: q, out: &env}); err != nil {
		return nil, err
	}
	return &domain.Page[domain.UserRecord]{
		Items:      env.Users,
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      env.TotalUsers,
		TotalPages: env.TotalPages,
	}, nil
}

func (c *Client) MakeAdmin(ctx context.Context, userID string) (*domain.UserRecord, error) {
	var rec domain.UserRecord
	err := c.do(ctx, call{secure: true, method: http.MethodPatch, path: "/users/" + escape(userID) + "/make-admin", out: &rec})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) GrantBadge(ctx context.Context, identityID string, badge domain.Badge) (*domain.UserRecord, error) {
	var rec domain.UserRecord
	err := c.do(ctx, call{
		secure: true,
		method: http.MethodPatch,
		path:   "/users/" + escape(identityID) + "/badges",
		body:   map[string]domain.Badge{"badge": badge},
		out:    &rec,
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

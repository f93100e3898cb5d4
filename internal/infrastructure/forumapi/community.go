package forumapi

import (
	"context"
	"net/http"

	"forumclient/internal/core/domain"
)

func (c *Client) ListAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	var out []domain.Announcement
	if err := c.do(ctx, call{method: http.MethodGet, path: "/announcements", out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAnnouncement(ctx context.Context, a domain.Announcement) (*domain.Announcement, error) {
	var out domain.Announcement
	if err := c.do(ctx, call{secure: true, method: http.MethodPost, path: "/announcements", body: a, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTags(ctx context.Context) ([]domain.Tag, error) {
	var out []domain.Tag
	if err := c.do(ctx, call{method: http.MethodGet, path: "/tags", out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	var out domain.Tag
	err := c.do(ctx, call{secure: true, method: http.MethodPost, path: "/tags", body: map[string]string{"name": name}, out: &out})
	if err != nil {
		return nil, err
	}
	if out.Name == "" {
		out.Name = name
	}
	return &out, nil
}

func (c *Client) SiteStats(ctx context.Context) (*domain.SiteStats, error) {
	var out domain.SiteStats
	if err := c.do(ctx, call{secure: true, method: http.MethodGet, path: "/admin/stats", out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, price int64) (*domain.PaymentIntent, error) {
	var out domain.PaymentIntent
	err := c.do(ctx, call{
		secure: true,
		method: http.MethodPost,
		path:   "/create-payment-intent",
		body:   map[string]int64{"price": price},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if out.Price == 0 {
		out.Price = price
	}
	return &out, nil
}

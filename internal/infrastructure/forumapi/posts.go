package forumapi

import (
	"context"
	"net/http"
	"net/url"

	"forumclient/internal/core/domain"
)

type authorPostsEnvelope struct {
	Posts      []domain.Post `json:"posts"`
	Pagination struct {
		TotalPosts int `json:"totalPosts"`
		TotalPages int `json:"totalPages"`
	} `json:"pagination"`
}

func (c *Client) SearchPosts(ctx context.Context, term string) ([]domain.Post, error) {
	var q url.Values
	if term != "" {
		q = url.Values{"searchTerm": []string{term}}
	}
	var posts []domain.Post
	if err := c.do(ctx, call{method: http.MethodGet, path: "/posts", query: q, out: &posts}); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	var post domain.Post
	if err := c.do(ctx, call{method: http.MethodGet, path: "/post/" + escape(postID), out: &post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) ListPostsByAuthor(ctx context.Context, authorID string, page domain.PageRequest) (*domain.Page[domain.Post], error) {
	page = page.Normalize(10)
	var env authorPostsEnvelope
	err := c.do(ctx, call{
		secure: true,
		method: http.MethodGet,
		path:   "/posts/user/" + escape(authorID),
		query:  pageQuery(page.Page, page.Limit),
		out:    &env,
	})
	if err != nil {
		return nil, err
	}
	return &domain.Page[domain.Post]{
		Items:      env.Posts,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      env.Pagination.TotalPosts,
		TotalPages: env.Pagination.TotalPages,
	}, nil
}

func (c *Client) CreatePost(ctx context.Context, draft domain.PostDraft) (*domain.Post, error) {
	var post domain.Post
	if err := c.do(ctx, call{secure: true, method: http.MethodPost, path: "/posts", body: draft, out: &post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, call{secure: true, method: http.MethodDelete, path: "/posts/" + escape(postID)})
}

func (c *Client) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := c.do(ctx, call{method: http.MethodGet, path: "/comments/" + escape(postID), out: &comments}); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, draft domain.CommentDraft) (*domain.Comment, error) {
	var comment domain.Comment
	if err := c.do(ctx, call{secure: true, method: http.MethodPost, path: "/comments", body: draft, out: &comment}); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, call{secure: true, method: http.MethodDelete, path: "/comments/" + escape(commentID)})
}

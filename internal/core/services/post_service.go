package services

import (
	"context"
	"fmt"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	apperrors "forumclient/pkg/errors"
	"forumclient/pkg/sanitize"
	"forumclient/pkg/validation"

	"go.uber.org/zap"
)

const defaultPostPageSize = 5

type postService struct {
	posts     ports.PostAPI
	comments  ports.CommentAPI
	gate      QuotaGate
	sanitizer *sanitize.Sanitizer
	logger    *zap.SugaredLogger
	metrics   Metrics
}

func NewPostService(
	posts ports.PostAPI,
	comments ports.CommentAPI,
	gate QuotaGate,
	sanitizer *sanitize.Sanitizer,
	logger *zap.SugaredLogger,
	metrics Metrics,
) ports.PostService {
	return &postService{
		posts:     posts,
		comments:  comments,
		gate:      gate,
		sanitizer: sanitizer,
		logger:    logger,
		metrics:   metricsOrNop(metrics),
	}
}

// QuotaFor evaluates the gate against the author's current post count. The
// count is fetched on every call; gold authors skip the lookup.
func (s *postService) QuotaFor(ctx context.Context, author *domain.UserRecord) (domain.QuotaDecision, error) {
	if author == nil || author.ID == "" {
		return domain.QuotaDecision{}, domain.ErrIdentityRequired
	}

	count := 0
	if !author.IsPremium() {
		page, err := s.posts.ListPostsByAuthor(ctx, author.ID, domain.PageRequest{Page: 1, Limit: 1})
		if err != nil {
			return domain.QuotaDecision{}, fmt.Errorf("failed to count posts for %s: %w", author.ID, err)
		}
		count = page.Total
	}

	decision := s.gate.CanCreatePost(author, count)
	s.metrics.QuotaDecision(decision.Allowed)
	return decision, nil
}

func (s *postService) CreatePost(ctx context.Context, author *domain.UserRecord, draft domain.PostDraft) (*domain.Post, error) {
	if err := validation.ValidatePostTitle(draft.Title); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateContent(draft.Content, validation.MaxContentLength, "content"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateNonEmptyString(draft.Tag, "tag"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	decision, err := s.QuotaFor(ctx, author)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		s.logger.Infow("Post creation blocked by quota",
			"user_id", author.ID,
			"used", decision.Used,
			"limit", decision.Limit,
		)
		return nil, apperrors.NewQuotaExceededError(decision.Limit).WithContext("used", decision.Used)
	}

	draft.AuthorID = author.ID
	draft.AuthorName = author.Name
	draft.AuthorEmail = author.Email
	draft.AuthorImage = author.Avatar
	draft.Title = s.sanitizer.Text(draft.Title)
	draft.Content = s.sanitizer.Content(draft.Content)
	draft.Tag = s.sanitizer.Text(draft.Tag)

	post, err := s.posts.CreatePost(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Infow("Post created", "post_id", post.ID, "user_id", author.ID)
	return post, nil
}

func (s *postService) ListByAuthor(ctx context.Context, authorID string, page domain.PageRequest) (*domain.Page[domain.Post], error) {
	if authorID == "" {
		return nil, domain.ErrIdentityRequired
	}
	return s.posts.ListPostsByAuthor(ctx, authorID, page.Normalize(defaultPostPageSize))
}

func (s *postService) DeletePost(ctx context.Context, postID string) error {
	if err := validation.ValidateID(postID, "post id"); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post %s: %w", postID, err)
	}
	s.logger.Infow("Post deleted", "post_id", postID)
	return nil
}

func (s *postService) SearchPosts(ctx context.Context, term string) ([]domain.Post, error) {
	return s.posts.SearchPosts(ctx, s.sanitizer.Text(term))
}

func (s *postService) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	if err := validation.ValidateID(postID, "post id"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return s.posts.GetPost(ctx, postID)
}

func (s *postService) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	if err := validation.ValidateID(postID, "post id"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return s.comments.ListComments(ctx, postID)
}

func (s *postService) AddComment(ctx context.Context, author *domain.UserRecord, postID, content string) (*domain.Comment, error) {
	if author == nil || author.ID == "" {
		return nil, domain.ErrIdentityRequired
	}
	if err := validation.ValidateID(postID, "post id"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	content = s.sanitizer.Text(content)
	if err := validation.ValidateContent(content, validation.MaxCommentLength, "comment"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	comment, err := s.comments.CreateComment(ctx, domain.CommentDraft{
		PostID:      postID,
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		AuthorEmail: author.Email,
		AuthorImage: author.Avatar,
		Content:     content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return comment, nil
}

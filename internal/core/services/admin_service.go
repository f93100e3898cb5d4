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

const defaultUserPageSize = 10

type adminService struct {
	users     ports.UserAPI
	community ports.CommunityAPI
	sanitizer *sanitize.Sanitizer
	logger    *zap.SugaredLogger
}

func NewAdminService(
	users ports.UserAPI,
	community ports.CommunityAPI,
	sanitizer *sanitize.Sanitizer,
	logger *zap.SugaredLogger,
) ports.AdminService {
	return &adminService{
		users:     users,
		community: community,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

func (s *adminService) ListUsers(ctx context.Context, filter domain.UserFilter) (*domain.Page[domain.UserRecord], error) {
	page := domain.PageRequest{Page: filter.Page, Limit: filter.Limit}.Normalize(defaultUserPageSize)
	filter.Page, filter.Limit = page.Page, page.Limit
	filter.Search = s.sanitizer.Text(filter.Search)
	return s.users.ListUsers(ctx, filter)
}

func (s *adminService) MakeAdmin(ctx context.Context, userID string) (*domain.UserRecord, error) {
	if err := validation.ValidateID(userID, "user id"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	user, err := s.users.MakeAdmin(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to promote %s: %w", userID, err)
	}
	s.logger.Infow("User promoted to admin", "user_id", userID)
	return user, nil
}

func (s *adminService) PostAnnouncement(ctx context.Context, author *domain.UserRecord, title, message string) (*domain.Announcement, error) {
	if !author.IsAdmin() {
		return nil, domain.ErrNotAdmin
	}
	title = s.sanitizer.Text(title)
	if err := validation.ValidatePostTitle(title); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	message = s.sanitizer.Content(message)
	if err := validation.ValidateContent(message, validation.MaxContentLength, "message"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	a, err := s.community.CreateAnnouncement(ctx, domain.Announcement{
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		AuthorEmail: author.Email,
		AuthorImage: author.Avatar,
		Title:       title,
		Message:     message,
		Audience:    "all",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post announcement: %w", err)
	}
	s.logger.Infow("Announcement posted", "announcement_id", a.ID, "user_id", author.ID)
	return a, nil
}

func (s *adminService) ListAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	return s.community.ListAnnouncements(ctx)
}

func (s *adminService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return s.community.ListTags(ctx)
}

func (s *adminService) AddTag(ctx context.Context, name string) (*domain.Tag, error) {
	name = s.sanitizer.Text(name)
	if err := validation.ValidateTagName(name); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return s.community.CreateTag(ctx, name)
}

func (s *adminService) SiteStats(ctx context.Context) (*domain.SiteStats, error) {
	return s.community.SiteStats(ctx)
}

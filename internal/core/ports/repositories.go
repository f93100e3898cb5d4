package ports

import (
	"context"

	"forumclient/internal/core/domain"
)

// ProfileCache stores resolved profiles keyed by identity id.
type ProfileCache interface {
	Get(ctx context.Context, identityID string) (*domain.UserRecord, bool, error)
	Set(ctx context.Context, record *domain.UserRecord) error
	Delete(ctx context.Context, identityID string) error
	Clear(ctx context.Context) error
}

type UserAPI interface {
	GetUser(ctx context.Context, identityID string) (*domain.UserRecord, error)
	RegisterUser(ctx context.Context, profile domain.NewUserProfile) (*domain.UserRecord, error)
	ListUsers(ctx context.Context, filter domain.UserFilter) (*domain.Page[domain.UserRecord], error)
	MakeAdmin(ctx context.Context, userID string) (*domain.UserRecord, error)
	GrantBadge(ctx context.Context, identityID string, badge domain.Badge) (*domain.UserRecord, error)
}

type PostAPI interface {
	SearchPosts(ctx context.Context, term string) ([]domain.Post, error)
	GetPost(ctx context.Context, postID string) (*domain.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string, page domain.PageRequest) (*domain.Page[domain.Post], error)
	CreatePost(ctx context.Context, draft domain.PostDraft) (*domain.Post, error)
	DeletePost(ctx context.Context, postID string) error
}

type CommentAPI interface {
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)
	CreateComment(ctx context.Context, draft domain.CommentDraft) (*domain.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
}

type ReportAPI interface {
	CreateReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error)
	GetReport(ctx context.Context, reportID string) (*domain.Report, error)
	ListReports(ctx context.Context, filter domain.ReportFilter) (*domain.Page[domain.Report], error)
	UpdateReportStatus(ctx context.Context, reportID string, status domain.ReportStatus) (*domain.Report, error)
}

type CommunityAPI interface {
	ListAnnouncements(ctx context.Context) ([]domain.Announcement, error)
	CreateAnnouncement(ctx context.Context, a domain.Announcement) (*domain.Announcement, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
	CreateTag(ctx context.Context, name string) (*domain.Tag, error)
	SiteStats(ctx context.Context) (*domain.SiteStats, error)
}

type PaymentAPI interface {
	CreatePaymentIntent(ctx context.Context, price int64) (*domain.PaymentIntent, error)
}

// ForumAPI is the full remote surface.
type ForumAPI interface {
	UserAPI
	PostAPI
	CommentAPI
	ReportAPI
	CommunityAPI
	PaymentAPI
}

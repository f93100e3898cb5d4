package ports

import (
	"context"

	"forumclient/internal/core/domain"
)

type SessionStore interface {
	Snapshot() domain.SessionSnapshot
	// Subscribe registers fn to run synchronously on every transition, in registration order.
	Subscribe(fn func(prev, next domain.SessionSnapshot)) (unsubscribe func())
	// WaitReady blocks until the first identity event has been applied.
	WaitReady(ctx context.Context) (domain.SessionSnapshot, error)
}

type ProfileResolver interface {
	Resolve(ctx context.Context, identityID string) (*domain.UserRecord, error)
	Invalidate(ctx context.Context, identityID string)
	InvalidateAll(ctx context.Context)
}

type RouteGuard interface {
	SessionGuard(ctx context.Context) domain.Decision
	RoleGuard(ctx context.Context, role domain.Role) domain.Decision
	// Check evaluates the rule registered for path. Unknown paths are public.
	Check(ctx context.Context, path string) domain.Decision
}

type ModerationService interface {
	FileReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error)
	ListReports(ctx context.Context, filter domain.ReportFilter) (*domain.Page[domain.Report], error)
	Resolve(ctx context.Context, reportID, commentID string) (*domain.Report, error)
	Dismiss(ctx context.Context, reportID string) (*domain.Report, error)
}

type PostService interface {
	QuotaFor(ctx context.Context, author *domain.UserRecord) (domain.QuotaDecision, error)
	CreatePost(ctx context.Context, author *domain.UserRecord, draft domain.PostDraft) (*domain.Post, error)
	ListByAuthor(ctx context.Context, authorID string, page domain.PageRequest) (*domain.Page[domain.Post], error)
	DeletePost(ctx context.Context, postID string) error
	SearchPosts(ctx context.Context, term string) ([]domain.Post, error)
	GetPost(ctx context.Context, postID string) (*domain.Post, error)
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)
	AddComment(ctx context.Context, author *domain.UserRecord, postID, content string) (*domain.Comment, error)
}

type MembershipService interface {
	BeginCheckout(ctx context.Context, user *domain.UserRecord) (*domain.PaymentIntent, error)
	CompleteUpgrade(ctx context.Context, user *domain.UserRecord, result domain.PaymentResult) (*domain.UserRecord, error)
}

type AdminService interface {
	ListUsers(ctx context.Context, filter domain.UserFilter) (*domain.Page[domain.UserRecord], error)
	MakeAdmin(ctx context.Context, userID string) (*domain.UserRecord, error)
	PostAnnouncement(ctx context.Context, author *domain.UserRecord, title, message string) (*domain.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]domain.Announcement, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
	AddTag(ctx context.Context, name string) (*domain.Tag, error)
	SiteStats(ctx context.Context) (*domain.SiteStats, error)
}

// AccountService drives the sign-in forms.
type AccountService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
}

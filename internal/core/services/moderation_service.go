package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	apperrors "forumclient/pkg/errors"
	"forumclient/pkg/tracing"
	"forumclient/pkg/validation"

	"go.uber.org/zap"
)

const defaultReportPageSize = 10

// ModerationService also reports whether a report may be acted on right now.
type ModerationService interface {
	ports.ModerationService
	CanTransition(report *domain.Report) bool
}

type moderationService struct {
	reports  ports.ReportAPI
	comments ports.CommentAPI
	logger   *zap.SugaredLogger
	metrics  Metrics

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewModerationService(
	reports ports.ReportAPI,
	comments ports.CommentAPI,
	logger *zap.SugaredLogger,
	metrics Metrics,
) ModerationService {
	return &moderationService{
		reports:  reports,
		comments: comments,
		logger:   logger,
		metrics:  metricsOrNop(metrics),
		inFlight: make(map[string]struct{}),
	}
}

func (s *moderationService) FileReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error) {
	if err := validation.ValidateID(draft.CommentID, "comment id"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateID(draft.PostID, "post id"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if draft.ReportedByUserID == "" {
		return nil, apperrors.NewInvalidInputError("reporter is required")
	}
	if !draft.Reason.Valid() {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown report reason %q", draft.Reason))
	}

	report, err := s.reports.CreateReport(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to file report: %w", err)
	}

	s.logger.Infow("Report filed",
		"report_id", report.ID,
		"comment_id", draft.CommentID,
		"reason", draft.Reason,
	)
	return report, nil
}

func (s *moderationService) ListReports(ctx context.Context, filter domain.ReportFilter) (*domain.Page[domain.Report], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown report status %q", filter.Status))
	}
	page := domain.PageRequest{Page: filter.Page, Limit: filter.Limit}.Normalize(defaultReportPageSize)
	filter.Page, filter.Limit = page.Page, page.Limit

	return s.reports.ListReports(ctx, filter)
}

// Resolve marks the report resolved and then deletes the reported comment. The two
// remote calls are not atomic: when the deletion fails the resolved report is returned
// together with a MODERATION_INCONSISTENT error.
func (s *moderationService) Resolve(ctx context.Context, reportID, commentID string) (*domain.Report, error) {
	if err := validation.ValidateID(reportID, "report id"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateID(commentID, "comment id"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	release, err := s.acquire(reportID)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := tracing.TraceModeration(ctx, "resolve", reportID)
	defer span.End()
	tracing.AddSpanAttributes(ctx, tracing.CommentIDKey.String(commentID))

	report, err := s.transition(ctx, reportID, domain.ReportResolved)
	if errors.Is(err, domain.ErrStaleResult) {
		report, err = s.confirm(ctx, reportID, domain.ReportResolved, err)
		if err != nil && !errors.Is(err, domain.ErrStaleResult) {
			inconsistent := apperrors.NewModerationInconsistentError(reportID, commentID, err).
				WithContext("report_state", "unconfirmed")
			s.metrics.ModerationTransition("resolve", "inconsistent")
			s.metrics.ModerationInconsistency()
			tracing.RecordError(ctx, inconsistent)
			s.logger.Errorw("Report state unknown after resolve, comment left in place",
				"report_id", reportID,
				"comment_id", commentID,
				"error", err,
			)
			return nil, inconsistent
		}
	}
	if err != nil {
		s.metrics.ModerationTransition("resolve", "rejected")
		tracing.RecordError(ctx, err)
		return nil, err
	}

	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		inconsistent := apperrors.NewModerationInconsistentError(reportID, commentID, err)
		s.metrics.ModerationTransition("resolve", "inconsistent")
		s.metrics.ModerationInconsistency()
		tracing.RecordError(ctx, inconsistent)
		s.logger.Errorw("Report resolved but comment deletion failed, manual follow-up required",
			"report_id", reportID,
			"comment_id", commentID,
			"error", err,
		)
		return report, inconsistent
	}

	s.metrics.ModerationTransition("resolve", "ok")
	s.logger.Infow("Report resolved", "report_id", reportID, "comment_id", commentID)
	return report, nil
}

func (s *moderationService) Dismiss(ctx context.Context, reportID string) (*domain.Report, error) {
	if err := validation.ValidateID(reportID, "report id"); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	release, err := s.acquire(reportID)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := tracing.TraceModeration(ctx, "dismiss", reportID)
	defer span.End()

	report, err := s.transition(ctx, reportID, domain.ReportDismissed)
	if errors.Is(err, domain.ErrStaleResult) {
		report, err = s.confirm(ctx, reportID, domain.ReportDismissed, err)
	}
	if err != nil {
		s.metrics.ModerationTransition("dismiss", "rejected")
		tracing.RecordError(ctx, err)
		return nil, err
	}

	s.metrics.ModerationTransition("dismiss", "ok")
	s.logger.Infow("Report dismissed", "report_id", reportID)
	return report, nil
}

func (s *moderationService) CanTransition(report *domain.Report) bool {
	if report == nil || report.Status != domain.ReportPending {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[report.ID]
	return !busy
}

// transition issues the status PATCH and checks that the response belongs to reportID.
func (s *moderationService) transition(ctx context.Context, reportID string, status domain.ReportStatus) (*domain.Report, error) {
	report, err := s.reports.UpdateReportStatus(ctx, reportID, status)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeConflict) {
			s.logger.Warnw("Report transition rejected by server",
				"report_id", reportID,
				"target", status,
				"error", err,
			)
			return nil, apperrors.WrapError(domain.ErrReportNotPending, apperrors.ErrCodeConflict,
				"report is no longer pending", http.StatusConflict).WithContext("report_id", reportID)
		}
		return nil, fmt.Errorf("failed to mark report %s as %s: %w", reportID, status, err)
	}

	if report == nil || report.ID != reportID {
		got := ""
		if report != nil {
			got = report.ID
		}
		s.logger.Warnw("Discarding stale moderation result", "report_id", reportID, "got", got)
		return nil, fmt.Errorf("%w: wanted %s, got %q", domain.ErrStaleResult, reportID, got)
	}
	if report.Status != status {
		return nil, fmt.Errorf("%w: report %s is %s, wanted %s", domain.ErrStaleResult, reportID, report.Status, status)
	}
	return report, nil
}

// confirm re-reads a report whose PATCH response did not match it, since the
// server may still have applied the transition. It returns stale unchanged when
// the re-read shows a different status, and a plain error when the re-read fails.
func (s *moderationService) confirm(ctx context.Context, reportID string, status domain.ReportStatus, stale error) (*domain.Report, error) {
	report, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read report %s: %w", reportID, err)
	}
	if report == nil || report.ID != reportID || report.Status != status {
		return nil, stale
	}
	s.logger.Infow("Report transition confirmed by re-read", "report_id", reportID, "status", status)
	return report, nil
}

func (s *moderationService) acquire(reportID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[reportID]; busy {
		return nil, domain.ErrTransitionInFlight
	}
	s.inFlight[reportID] = struct{}{}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.inFlight, reportID)
	}, nil
}

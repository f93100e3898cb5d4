package forumapi

import (
	"context"
	"net/http"

	"forumclient/internal/core/domain"
)

type reportsEnvelope struct {
	Reports      []domain.Report `json:"reports"`
	TotalReports int             `json:"totalReports"`
	TotalPages   int             `json:"totalPages"`
}

func (c *Client) CreateReport(ctx context.Context, draft domain.ReportDraft) (*domain.Report, error) {
	var report domain.Report
	if err := c.do(ctx, call{secure: true, method: http.MethodPost, path: "/reports/comment", body: draft, out: &report}); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) GetReport(ctx context.Context, reportID string) (*domain.Report, error) {
	var report domain.Report
	if err := c.do(ctx, call{secure: true, method: http.MethodGet, path: "/reports/" + escape(reportID), out: &report}); err != nil {
		return nil, err
	}
	if report.ID == "" {
		return nil, emptyBody("report", reportID)
	}
	return &report, nil
}

func (c *Client) ListReports(ctx context.Context, filter domain.ReportFilter) (*domain.Page[domain.Report], error) {
	page := domain.PageRequest{Page: filter.Page, Limit: filter.Limit}.Normalize(10)
	q := pageQuery(page.Page, page.Limit)
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}

	var env reportsEnvelope
	if err := c.do(ctx, call{secure: true, method: http.MethodGet, path: "/reports", query: q, out: &env}); err != nil {
		return nil, err
	}
	return &domain.Page[domain.Report]{
		Items:      env.Reports,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      env.TotalReports,
		TotalPages: env.TotalPages,
	}, nil
}

// UpdateReportStatus returns the updated report. An acknowledgement without a
// report body is taken as the requested transition on reportID.
func (c *Client) UpdateReportStatus(ctx context.Context, reportID string, status domain.ReportStatus) (*domain.Report, error) {
	var report domain.Report
	err := c.do(ctx, call{
		secure: true,
		method: http.MethodPatch,
		path:   "/reports/" + escape(reportID) + "/status",
		body:   map[string]domain.ReportStatus{"status": status},
		out:    &report,
	})
	if err != nil {
		return nil, err
	}
	if report.ID == "" {
		report.ID = reportID
		report.Status = status
	}
	return &report, nil
}

package domain

import "time"

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// IsTerminal reports whether no further transition is allowed.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportResolved || s == ReportDismissed
}

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

type ReportReason string

const (
	ReasonSpam             ReportReason = "spam"
	ReasonHarassment       ReportReason = "harassment"
	ReasonInappropriate    ReportReason = "inappropriate"
	ReasonHateSpeech       ReportReason = "hate-speech"
	ReasonFalseInformation ReportReason = "false-information"
	ReasonOther            ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonSpam, ReasonHarassment, ReasonInappropriate,
		ReasonHateSpeech, ReasonFalseInformation, ReasonOther:
		return true
	}
	return false
}

type Report struct {
	ID               string       `json:"_id"`
	CommentID        string       `json:"commentId"`
	PostID           string       `json:"postId"`
	ReportedByUserID string       `json:"reportedBy"`
	Reason           ReportReason `json:"reason"`
	CommentContent   string       `json:"commentContent,omitempty"`
	Status           ReportStatus `json:"status"`
	CreatedAt        time.Time    `json:"createdAt"`
}

type ReportDraft struct {
	CommentID        string       `json:"commentId"`
	PostID           string       `json:"postId"`
	ReportedByUserID string       `json:"reportedBy"`
	Reason           ReportReason `json:"reason"`
	CommentContent   string       `json:"commentContent,omitempty"`
}

// ReportFilter selects reports; an empty Status means all.
type ReportFilter struct {
	Status ReportStatus
	Page   int
	Limit  int
}

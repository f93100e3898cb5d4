package domain

import "errors"

var (
	ErrIdentityRequired   = errors.New("identity id is required")
	ErrNotAuthenticated   = errors.New("no active session")
	ErrNotAdmin           = errors.New("admin role required")
	ErrTransitionInFlight = errors.New("a transition for this report is already in flight")
	ErrStaleResult        = errors.New("response does not match the requested report")
	ErrReportNotPending   = errors.New("report is not pending")
	ErrPaymentIncomplete  = errors.New("payment did not succeed")
	ErrAlreadyPremium     = errors.New("user already holds the gold badge")
)

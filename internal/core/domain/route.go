package domain

// Access is the requirement a view places on the caller.
type Access int

const (
	AccessPublic Access = iota
	AccessSession
	AccessRole
)

// RouteRule binds a view path to its access requirement.
type RouteRule struct {
	Path   string
	Access Access
	Role   Role
	// QuotaGated views additionally report the post quota.
	QuotaGated bool
}

// LoginPath is where unauthenticated and unauthorized callers are sent.
const LoginPath = "/auth/login"

type Outcome int

const (
	OutcomeAllow Outcome = iota
	OutcomeLoading
	OutcomeRedirectUnauthenticated
	OutcomeRedirectUnauthorized
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirectUnauthenticated:
		return "redirect-unauthenticated"
	case OutcomeRedirectUnauthorized:
		return "redirect-unauthorized"
	default:
		return "error"
	}
}

// Decision is the result of evaluating a route guard.
type Decision struct {
	Outcome    Outcome
	RedirectTo string
	// User is set when the guard resolved the profile.
	User *UserRecord
	Err  error
}

func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllow
}

// QuotaDecision is the result of the post quota check.
type QuotaDecision struct {
	Allowed   bool `json:"allowed"`
	Unlimited bool `json:"unlimited"`
	Limit     int  `json:"limit"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
}

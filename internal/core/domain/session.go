package domain

import "time"

type SessionState int

const (
	// SessionUnknown holds until the identity provider reports its first event.
	SessionUnknown SessionState = iota
	SessionAuthenticated
	SessionAnonymous
)

func (s SessionState) String() string {
	switch s {
	case SessionAuthenticated:
		return "authenticated"
	case SessionAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Session is the signed-in identity as reported by the identity provider.
type Session struct {
	IdentityID  string
	Credential  string
	DisplayName string
	AvatarURL   string
	Email       string
	ExpiresAt   time.Time
}

// SessionSnapshot is an immutable view of the session store.
type SessionSnapshot struct {
	State   SessionState
	Session *Session
}

func (s SessionSnapshot) Loading() bool {
	return s.State == SessionUnknown
}

func (s SessionSnapshot) Authenticated() bool {
	return s.State == SessionAuthenticated && s.Session != nil
}

// IdentityID returns the current identity or "" when signed out.
func (s SessionSnapshot) IdentityID() string {
	if !s.Authenticated() {
		return ""
	}
	return s.Session.IdentityID
}

// SessionEvent is what the identity provider emits. A nil Session means signed out.
type SessionEvent struct {
	Session *Session
	Reason  string
}

const (
	EventReasonStartup = "startup"
	EventReasonSignIn  = "sign_in"
	EventReasonSignOut = "sign_out"
	EventReasonRefresh = "refresh"
	EventReasonExpired = "expired"
)

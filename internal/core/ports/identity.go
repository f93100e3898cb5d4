package ports

import (
	"context"

	"forumclient/internal/core/domain"
)

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
}

// IdentityClient is the external identity provider. Session changes are delivered
// through OnSessionChange; listeners must not block.
type IdentityClient interface {
	SignUp(ctx context.Context, req SignUpRequest) (*domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	OnSessionChange(fn func(domain.SessionEvent)) (unsubscribe func())
}

package services

import (
	"context"
	"fmt"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	apperrors "forumclient/pkg/errors"
	"forumclient/pkg/validation"

	"go.uber.org/zap"
)

type accountService struct {
	identity ports.IdentityClient
	users    ports.UserAPI
	logger   *zap.SugaredLogger
}

func NewAccountService(identity ports.IdentityClient, users ports.UserAPI, logger *zap.SugaredLogger) ports.AccountService {
	return &accountService{
		identity: identity,
		users:    users,
		logger:   logger,
	}
}

// SignUp creates the identity and then registers the forum profile for it.
func (s *accountService) SignUp(ctx context.Context, req ports.SignUpRequest) (*domain.Session, error) {
	if err := validation.ValidateDisplayName(req.Name); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if req.Avatar != "" {
		if err := validation.ValidateURL(req.Avatar); err != nil {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
	}

	session, err := s.identity.SignUp(ctx, req)
	if err != nil {
		return nil, asSessionError("sign-up failed", err)
	}

	_, err = s.users.RegisterUser(ctx, domain.NewUserProfile{
		IdentityID: session.IdentityID,
		Name:       req.Name,
		Email:      req.Email,
		Avatar:     req.Avatar,
	})
	if err != nil {
		s.logger.Errorw("Identity created but profile registration failed",
			"identity_id", session.IdentityID,
			"error", err,
		)
		return session, fmt.Errorf("failed to register profile: %w", err)
	}

	s.logger.Infow("Account created", "identity_id", session.IdentityID)
	return session, nil
}

func (s *accountService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if password == "" {
		return nil, apperrors.NewInvalidInputError("password is required")
	}

	session, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, asSessionError("sign-in failed", err)
	}
	return session, nil
}

func (s *accountService) SignOut(ctx context.Context) error {
	if err := s.identity.SignOut(ctx); err != nil {
		return asSessionError("sign-out failed", err)
	}
	return nil
}

func (s *accountService) ResetPassword(ctx context.Context, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	if err := s.identity.ResetPassword(ctx, email); err != nil {
		return asSessionError("password reset failed", err)
	}
	return nil
}

// asSessionError keeps input errors as they are and classifies the rest as session errors.
func asSessionError(message string, err error) error {
	if apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) || apperrors.HasCode(err, apperrors.ErrCodeRateLimit) {
		return err
	}
	return apperrors.NewSessionError(message, err)
}

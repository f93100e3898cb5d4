package services

import (
	"context"
	"fmt"
	"net/http"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	apperrors "forumclient/pkg/errors"

	"go.uber.org/zap"
)

type membershipService struct {
	payments ports.PaymentAPI
	users    ports.UserAPI
	resolver ports.ProfileResolver
	price    int64
	logger   *zap.SugaredLogger
}

func NewMembershipService(
	payments ports.PaymentAPI,
	users ports.UserAPI,
	resolver ports.ProfileResolver,
	price int64,
	logger *zap.SugaredLogger,
) ports.MembershipService {
	return &membershipService{
		payments: payments,
		users:    users,
		resolver: resolver,
		price:    price,
		logger:   logger,
	}
}

func (s *membershipService) BeginCheckout(ctx context.Context, user *domain.UserRecord) (*domain.PaymentIntent, error) {
	if user == nil || user.IdentityID == "" {
		return nil, domain.ErrIdentityRequired
	}
	if user.IsPremium() {
		return nil, apperrors.WrapError(domain.ErrAlreadyPremium, apperrors.ErrCodeConflict,
			"membership already active", http.StatusConflict)
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, s.price)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	if intent.Price == 0 {
		intent.Price = s.price
	}
	return intent, nil
}

// CompleteUpgrade grants the gold badge once the payment collaborator reports success.
func (s *membershipService) CompleteUpgrade(ctx context.Context, user *domain.UserRecord, result domain.PaymentResult) (*domain.UserRecord, error) {
	if user == nil || user.IdentityID == "" {
		return nil, domain.ErrIdentityRequired
	}
	if result.Status != domain.PaymentSucceeded {
		s.logger.Infow("Payment not completed, badge not granted",
			"user_id", user.ID,
			"intent_id", result.IntentID,
			"status", result.Status,
		)
		return nil, apperrors.WrapError(domain.ErrPaymentIncomplete, apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("payment status is %q", result.Status), http.StatusPaymentRequired)
	}

	updated, err := s.users.GrantBadge(ctx, user.IdentityID, domain.BadgeGold)
	if err != nil {
		s.logger.Errorw("Payment succeeded but badge grant failed",
			"user_id", user.ID,
			"intent_id", result.IntentID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to grant gold badge: %w", err)
	}

	s.resolver.Invalidate(ctx, user.IdentityID)
	s.logger.Infow("Membership upgraded", "user_id", user.ID, "intent_id", result.IntentID)
	return updated, nil
}

package services

import (
	"context"
	"testing"

	"forumclient/internal/core/domain"
	apperrors "forumclient/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMembership_UpgradeGrantsGoldAndInvalidates(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	users := new(MockUserAPI)
	payments := new(MockPaymentAPI)
	cache := newMapCache()
	resolver := NewProfileResolver(users, cache, logger, nil)
	svc := NewMembershipService(payments, users, resolver, 10, logger)

	user := &domain.UserRecord{ID: "u1", IdentityID: "uid-1"}
	_ = cache.Set(context.Background(), user)

	payments.On("CreatePaymentIntent", mock.Anything, int64(10)).Return(&domain.PaymentIntent{ClientSecret: "pi_secret"}, nil)
	intent, err := svc.BeginCheckout(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(10), intent.Price)

	upgraded := &domain.UserRecord{ID: "u1", IdentityID: "uid-1", Badges: []domain.Badge{domain.BadgeGold}}
	users.On("GrantBadge", mock.Anything, "uid-1", domain.BadgeGold).Return(upgraded, nil)

	got, err := svc.CompleteUpgrade(context.Background(), user, domain.PaymentResult{IntentID: "pi_1", Status: domain.PaymentSucceeded})
	require.NoError(t, err)
	assert.True(t, got.IsPremium())
	assert.False(t, cache.has("uid-1"))
}

func TestMembership_FailedPaymentGrantsNothing(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	users := new(MockUserAPI)
	svc := NewMembershipService(new(MockPaymentAPI), users, NewProfileResolver(users, newMapCache(), logger, nil), 10, logger)

	_, err := svc.CompleteUpgrade(context.Background(), &domain.UserRecord{ID: "u1", IdentityID: "uid-1"},
		domain.PaymentResult{Status: domain.PaymentFailed})

	assert.ErrorIs(t, err, domain.ErrPaymentIncomplete)
	users.AssertNotCalled(t, "GrantBadge", mock.Anything, mock.Anything, mock.Anything)
}

func TestMembership_AlreadyPremium(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	users := new(MockUserAPI)
	payments := new(MockPaymentAPI)
	svc := NewMembershipService(payments, users, NewProfileResolver(users, newMapCache(), logger, nil), 10, logger)

	_, err := svc.BeginCheckout(context.Background(), &domain.UserRecord{IdentityID: "uid-1", Badges: []domain.Badge{domain.BadgeGold}})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConflict))
	payments.AssertNotCalled(t, "CreatePaymentIntent", mock.Anything, mock.Anything)
}

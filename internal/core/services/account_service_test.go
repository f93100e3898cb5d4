package services

import (
	"context"
	"testing"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	apperrors "forumclient/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAccount_SignUpRegistersProfile(t *testing.T) {
	idp := newFakeIdentity()
	users := new(MockUserAPI)
	svc := NewAccountService(idp, users, zaptest.NewLogger(t).Sugar())

	users.On("RegisterUser", mock.Anything, domain.NewUserProfile{
		IdentityID: "uid-new",
		Name:       "Ada Lovelace",
		Email:      "ada@forum.test",
	}).Return(&domain.UserRecord{ID: "u1", IdentityID: "uid-new"}, nil)

	sess, err := svc.SignUp(context.Background(), ports.SignUpRequest{
		Name:     "Ada Lovelace",
		Email:    "ada@forum.test",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-new", sess.IdentityID)
	users.AssertExpectations(t)
}

func TestAccount_InputErrorsStayOnForm(t *testing.T) {
	svc := NewAccountService(newFakeIdentity(), new(MockUserAPI), zaptest.NewLogger(t).Sugar())

	_, err := svc.SignIn(context.Background(), "not-an-email", "pw")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = svc.SignUp(context.Background(), ports.SignUpRequest{Name: "Ada", Email: "ada@forum.test", Password: "123"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	err = svc.ResetPassword(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestAccount_SessionErrorsClassified(t *testing.T) {
	idp := newFakeIdentity()
	idp.signOutFn = func() error { return apperrors.NewBadGatewayError("idp down") }
	svc := NewAccountService(idp, new(MockUserAPI), zaptest.NewLogger(t).Sugar())

	err := svc.SignOut(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSession))
}

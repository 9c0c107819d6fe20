package auth

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/accounts/apperr"
	"github.com/tech-arch1tect/accounts/services/delivery"
	"github.com/tech-arch1tect/accounts/services/ledger"
	"github.com/tech-arch1tect/accounts/testutils"
)

func (h *harness) resetLink(t *testing.T) (string, uuid.UUID) {
	t.Helper()
	msg, ok := h.mail.Last(delivery.KindPasswordReset)
	require.True(t, ok, "no reset email recorded")

	link, err := url.Parse(msg.Payload["ResetURL"].(string))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.String(), "http://localhost:8080/verify-forgot-password?"))

	id, err := uuid.Parse(link.Query().Get("user_id"))
	require.NoError(t, err)
	return link.Query().Get("token"), id
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	h := newHarness(t)

	err := h.svc.RequestPasswordReset(context.Background(), "ghost@b.com")
	require.NoError(t, err)

	assert.Equal(t, int64(0), testutils.CountRows(t, h.db, &ledger.EphemeralToken{},
		"kind = ?", ledger.KindPasswordReset))
	assert.Empty(t, h.mail.Messages())
}

func TestRequestPasswordReset_InvalidEmail(t *testing.T) {
	h := newHarness(t)
	err := h.svc.RequestPasswordReset(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidEmailFormat)
}

func TestResetPassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, p := h.verified(t, testutils.TestAccount.Email)

	require.NoError(t, h.svc.RequestPasswordReset(ctx, testutils.TestAccount.Email))
	token, id := h.resetLink(t)
	assert.Equal(t, p.AccountID(), id)

	msg, _ := h.mail.Last(delivery.KindPasswordReset)
	assert.Equal(t, 1, msg.Payload["ExpiryHours"])

	t.Run("weak new password keeps the token", func(t *testing.T) {
		err := h.svc.ResetPassword(ctx, ResetPasswordInput{Token: token, AccountID: id, NewPassword: testutils.TestPasswords.TooShort})
		assert.ErrorIs(t, err, apperr.ErrInvalidPasswordFormat)
	})

	t.Run("token bound to its account", func(t *testing.T) {
		err := h.svc.ResetPassword(ctx, ResetPasswordInput{Token: token, AccountID: uuid.New(), NewPassword: testutils.TestPasswords.Other})
		assert.ErrorIs(t, err, apperr.ErrInvalidPasswordResetToken)
	})

	t.Run("success", func(t *testing.T) {
		err := h.svc.ResetPassword(ctx, ResetPasswordInput{Token: token, AccountID: id, NewPassword: testutils.TestPasswords.Other})
		require.NoError(t, err)

		_, err = h.svc.Login(ctx, testutils.TestAccount.Email, testutils.TestPasswords.Valid)
		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
		_, err = h.svc.Login(ctx, testutils.TestAccount.Email, testutils.TestPasswords.Other)
		assert.NoError(t, err)

		done, ok := h.mail.Last(delivery.KindPasswordResetSuccess)
		require.True(t, ok)
		assert.Equal(t, testutils.TestAccount.Email, done.Recipient)
	})

	t.Run("reuse", func(t *testing.T) {
		err := h.svc.ResetPassword(ctx, ResetPasswordInput{Token: token, AccountID: id, NewPassword: "yetanother333"})
		assert.ErrorIs(t, err, apperr.ErrInvalidPasswordResetToken)
	})
}

func TestResetPassword_Expired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.verified(t, testutils.TestAccount.Email)

	require.NoError(t, h.svc.RequestPasswordReset(ctx, testutils.TestAccount.Email))
	token, id := h.resetLink(t)

	h.clock.Advance(time.Hour + time.Second)
	err := h.svc.ResetPassword(ctx, ResetPasswordInput{Token: token, AccountID: id, NewPassword: testutils.TestPasswords.Other})
	assert.ErrorIs(t, err, apperr.ErrInvalidPasswordResetToken)

	_, err = h.svc.Login(ctx, testutils.TestAccount.Email, testutils.TestPasswords.Valid)
	assert.NoError(t, err)
	_, ok := h.mail.Last(delivery.KindPasswordResetSuccess)
	assert.False(t, ok)
}

func TestResetPassword_MissingFields(t *testing.T) {
	h := newHarness(t)
	err := h.svc.ResetPassword(context.Background(), ResetPasswordInput{NewPassword: testutils.TestPasswords.Valid})
	assert.ErrorIs(t, err, apperr.ErrInvalidPasswordResetToken)
}

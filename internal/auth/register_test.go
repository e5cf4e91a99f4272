package auth_test

import (
	"bitwise74/auth-api/internal/auth"
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/model"
	"bitwise74/auth-api/pkg/validators"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndConfirm(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.nextCode("482913")
	reg, err := e.svc.Register(ctx, auth.RegisterInput{
		Email:    "alice@example.com",
		Password: "Secret123!",
		Profile:  model.Profile{Name: "Alice"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.UserID)
	assert.Equal(t, model.PurposeRegistration, reg.Pending.Purpose)

	m := e.mail.last(t)
	assert.Equal(t, "alice@example.com", m.To)
	assert.Contains(t, m.Body, "482913")

	u, err := e.repo.FindUserByID(ctx, reg.UserID)
	require.NoError(t, err)
	assert.False(t, u.Verified)
	assert.False(t, u.TwofaEnabled)
	assert.Equal(t, "Alice", u.Name)
	assert.NotNil(t, u.ExpiresAt)

	require.NoError(t, e.svc.ConfirmRegistration(ctx, "alice@example.com", "482913"))

	u, err = e.repo.FindUserByID(ctx, reg.UserID)
	require.NoError(t, err)
	assert.True(t, u.Verified)
	assert.Nil(t, u.ExpiresAt)

	err = e.svc.ConfirmRegistration(ctx, "alice@example.com", "482913")
	assert.ErrorIs(t, err, common.ErrEntryNotFound)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Register(ctx, auth.RegisterInput{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	_, err = e.svc.Register(ctx, auth.RegisterInput{Email: " ALICE@example.com", Password: "Secret123!"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestRegisterValidatesInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Register(ctx, auth.RegisterInput{Email: "not-an-email", Password: "Secret123!"})
	assert.ErrorIs(t, err, validators.ErrEmailInvalid)

	_, err = e.svc.Register(ctx, auth.RegisterInput{Email: "alice@example.com", Password: "short"})
	assert.ErrorIs(t, err, validators.ErrPasswordTooShort)

	assert.Zero(t, e.mail.count())
}

func TestConfirmRegistrationUnknownEmail(t *testing.T) {
	e := newEnv(t)

	err := e.svc.ConfirmRegistration(context.Background(), "nobody@example.com", "123456")
	assert.ErrorIs(t, err, common.ErrEntryNotFound)
}

func TestConfirmRegistrationExpired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.nextCode("482913")
	_, err := e.svc.Register(ctx, auth.RegisterInput{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	e.clock.Advance(10*time.Minute + time.Second)

	err = e.svc.ConfirmRegistration(ctx, "alice@example.com", "482913")
	assert.ErrorIs(t, err, common.ErrCodeExpired)
}

func TestDeliveryFailureKeepsCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.mail.err = errors.New("smtp down")

	e.nextCode("482913")
	_, err := e.svc.Register(ctx, auth.RegisterInput{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	assert.NoError(t, e.svc.ConfirmRegistration(ctx, "alice@example.com", "482913"))
}

func TestResendRegistration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.nextCode("111111")
	_, err := e.svc.Register(ctx, auth.RegisterInput{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)
	require.Equal(t, 1, e.mail.count())

	// Inside the cooldown nothing is sent but the answer is the same
	e.nextCode("222222")
	require.NoError(t, e.svc.ResendRegistration(ctx, "alice@example.com"))
	assert.Equal(t, 1, e.mail.count())

	e.clock.Advance(61 * time.Second)
	require.NoError(t, e.svc.ResendRegistration(ctx, "alice@example.com"))
	assert.Equal(t, 2, e.mail.count())

	assert.ErrorIs(t, e.svc.ConfirmRegistration(ctx, "alice@example.com", "111111"), common.ErrCodeIncorrect)
	assert.NoError(t, e.svc.ConfirmRegistration(ctx, "alice@example.com", "222222"))

	// Verified and unknown addresses are silently ignored
	e.clock.Advance(61 * time.Second)
	assert.NoError(t, e.svc.ResendRegistration(ctx, "alice@example.com"))
	assert.NoError(t, e.svc.ResendRegistration(ctx, "nobody@example.com"))
	assert.Equal(t, 2, e.mail.count())
}

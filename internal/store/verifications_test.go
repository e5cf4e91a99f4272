package store

import (
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/model"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueEntrySupersedes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@b.co")
	exp := time.Now().Add(10 * time.Minute)

	first, err := s.IssueEntry(ctx, u.ID, model.PurposeLogin2FA, "111111", exp)
	require.NoError(t, err)
	assert.Zero(t, first.ResendCount)

	second, err := s.IssueEntry(ctx, u.ID, model.PurposeLogin2FA, "222222", exp)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, second.ResendCount)

	_, err = s.GetEntry(ctx, first.ID, u.ID, model.PurposeLogin2FA)
	assert.ErrorIs(t, err, common.ErrEntryNotFound)

	active, err := s.FindActiveEntry(ctx, u.ID, model.PurposeLogin2FA)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, "222222", active.Code)
}

func TestIssueEntryPurposesAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@b.co")
	exp := time.Now().Add(10 * time.Minute)

	reg, err := s.IssueEntry(ctx, u.ID, model.PurposeRegistration, "111111", exp)
	require.NoError(t, err)
	_, err = s.IssueEntry(ctx, u.ID, model.PurposePasswordReset, "222222", exp)
	require.NoError(t, err)

	got, err := s.GetEntry(ctx, reg.ID, u.ID, model.PurposeRegistration)
	require.NoError(t, err)
	assert.Equal(t, "111111", got.Code)

	_, err = s.GetEntry(ctx, reg.ID, u.ID, model.PurposePasswordReset)
	assert.ErrorIs(t, err, common.ErrEntryNotFound)

	_, err = s.GetEntry(ctx, reg.ID, "someone-else", model.PurposeRegistration)
	assert.ErrorIs(t, err, common.ErrEntryNotFound)
}

func TestIssueEntryRejectsUnknownPurpose(t *testing.T) {
	s := newTestStore(t)
	u := createUser(t, s, "a@b.co")

	_, err := s.IssueEntry(context.Background(), u.ID, model.Purpose("bogus"), "111111", time.Now())
	assert.Error(t, err)
}

func TestReserveAttempt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@b.co")

	e, err := s.IssueEntry(ctx, u.ID, model.PurposeLogin2FA, "111111", time.Now().Add(time.Minute))
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, s.ReserveAttempt(ctx, e.ID, 3))
	}
	assert.ErrorIs(t, s.ReserveAttempt(ctx, e.ID, 3), common.ErrTooManyAttempts)

	got, err := s.GetEntry(ctx, e.ID, u.ID, model.PurposeLogin2FA)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Attempts)

	assert.ErrorIs(t, s.ReserveAttempt(ctx, "missing", 3), common.ErrEntryNotFound)
}

func TestReserveAttemptConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@b.co")

	e, err := s.IssueEntry(ctx, u.ID, model.PurposePasswordReset, "111111", time.Now().Add(time.Minute))
	require.NoError(t, err)

	const limit = 4
	var (
		wg       sync.WaitGroup
		reserved atomic.Int32
	)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if s.ReserveAttempt(ctx, e.ID, limit) == nil {
				reserved.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, limit, reserved.Load())
}

func TestIssueEntryDropsExpiredResendCount(t *testing.T) {
	now := time.Now()
	s := newTestStore(t)
	s = s.WithClock(func() time.Time { return now })
	ctx := context.Background()
	u := createUser(t, s, "a@b.co")

	_, err := s.IssueEntry(ctx, u.ID, model.PurposePasswordReset, "111111", now.Add(time.Minute))
	require.NoError(t, err)
	live, err := s.IssueEntry(ctx, u.ID, model.PurposePasswordReset, "222222", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, live.ResendCount)

	now = now.Add(2 * time.Minute)

	fresh, err := s.IssueEntry(ctx, u.ID, model.PurposePasswordReset, "333333", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, fresh.ResendCount)
}

func TestRetireEntryOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@b.co")

	e, err := s.IssueEntry(ctx, u.ID, model.PurposeLogin2FA, "111111", time.Now().Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, s.RetireEntry(ctx, e.ID))
	assert.ErrorIs(t, s.RetireEntry(ctx, e.ID), common.ErrEntryNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@b.co")

	e, err := s.IssueEntry(ctx, u.ID, model.PurposeRegistration, "111111", time.Now().Add(time.Minute))
	require.NoError(t, err)

	err = s.Transaction(ctx, func(tx Repository) error {
		if err := tx.RetireEntry(ctx, e.ID); err != nil {
			return err
		}

		return tx.SetVerified(ctx, "missing-user")
	})
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = s.GetEntry(ctx, e.ID, u.ID, model.PurposeRegistration)
	assert.NoError(t, err, "retire must roll back with the failed side effect")
}

func TestPurgeExpiredEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	a := createUser(t, s, "a@b.co")
	b := createUser(t, s, "b@b.co")

	_, err := s.IssueEntry(ctx, a.ID, model.PurposeLogin2FA, "111111", now.Add(-time.Minute))
	require.NoError(t, err)
	live, err := s.IssueEntry(ctx, b.ID, model.PurposeLogin2FA, "222222", now.Add(time.Minute))
	require.NoError(t, err)

	n, err := s.PurgeExpiredEntries(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.GetEntry(ctx, live.ID, b.ID, model.PurposeLogin2FA)
	assert.NoError(t, err)
}

package store

import (
	"bitwise74/auth-api/db"
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/model"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := gdb.DB()
		sqlDB.Close()
	})

	return New(gdb)
}

func createUser(t *testing.T, s *Store, email string) *model.User {
	t.Helper()

	u := &model.User{ID: "u-" + email, Email: email, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), u))

	return u
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &model.User{ID: "u1", Email: "  Alice@Example.com ", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)

	found, err := s.FindUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)
	assert.False(t, found.Verified)
	assert.False(t, found.TwofaEnabled)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createUser(t, s, "alice@example.com")

	err := s.CreateUser(ctx, &model.User{ID: "other", Email: "ALICE@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestCreateUserNeedsHash(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateUser(context.Background(), &model.User{ID: "u1", Email: "a@b.co"})
	assert.Error(t, err)
}

func TestFindUserMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = s.FindUserByID(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestUserSetters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exp := time.Now().Add(time.Hour)
	u := &model.User{ID: "u1", Email: "a@b.co", PasswordHash: "hash", ExpiresAt: &exp}
	require.NoError(t, s.CreateUser(ctx, u))

	require.NoError(t, s.SetVerified(ctx, "u1"))
	require.NoError(t, s.SetVerified(ctx, "u1"))
	require.NoError(t, s.SetTwofaEnabled(ctx, "u1", true))
	require.NoError(t, s.SetPasswordHash(ctx, "u1", "new-hash"))
	assert.Error(t, s.SetPasswordHash(ctx, "u1", ""))

	got, err := s.FindUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Nil(t, got.ExpiresAt)
	assert.True(t, got.TwofaEnabled)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, s.SetVerified(ctx, "missing"), common.ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createUser(t, s, "a@b.co")

	name := "Alice"
	age := 30
	interests := []string{"go", "climbing"}

	u, err := s.UpdateProfile(ctx, "u-a@b.co", &ProfileUpdate{
		Name:          &name,
		Age:           &age,
		Interests:     &interests,
		Notifications: map[string]bool{"email": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	require.NotNil(t, u.Age)
	assert.Equal(t, 30, *u.Age)
	assert.Equal(t, model.StringSlice{"go", "climbing"}, u.Interests)
	assert.Equal(t, map[string]bool{"email": true}, u.Notifications)

	_, err = s.UpdateProfile(ctx, "missing", &ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestSetAvatarKeyReturnsPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createUser(t, s, "a@b.co")

	old, err := s.SetAvatarKey(ctx, "u-a@b.co", "avatars/1.png")
	require.NoError(t, err)
	assert.Empty(t, old)

	old, err = s.SetAvatarKey(ctx, "u-a@b.co", "avatars/2.png")
	require.NoError(t, err)
	assert.Equal(t, "avatars/1.png", old)
}

func TestDeleteUserCascadesEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@b.co")

	e, err := s.IssueEntry(ctx, u.ID, model.PurposeRegistration, "123456", time.Now().Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err = s.FindUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = s.GetEntry(ctx, e.ID, u.ID, model.PurposeRegistration)
	assert.ErrorIs(t, err, common.ErrEntryNotFound)

	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), common.ErrUserNotFound)
}

func TestListExpiredUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.NoError(t, s.CreateUser(ctx, &model.User{ID: "old", Email: "old@b.co", PasswordHash: "h", ExpiresAt: &past}))
	require.NoError(t, s.CreateUser(ctx, &model.User{ID: "new", Email: "new@b.co", PasswordHash: "h", ExpiresAt: &future}))
	require.NoError(t, s.CreateUser(ctx, &model.User{ID: "done", Email: "done@b.co", PasswordHash: "h"}))

	users, err := s.ListExpiredUsers(ctx, now)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "old", users[0].ID)
}

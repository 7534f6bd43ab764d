package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreateHashesAndNormalizes(t *testing.T) {
	f := newFixture()

	u, err := f.manager.Create(context.Background(), RegisterInput{
		Email:    "  Alice@Example.COM ",
		Username: " alice ",
		Password: "Password123!",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, RoleStandard, u.Role)
	assert.False(t, u.EmailConfirmed)
	assert.NotEqual(t, "Password123!", u.PasswordHash)
	assert.True(t, f.manager.CheckPassword(u, "Password123!"))
}

func TestManagerCreateRejectsWeakPasswords(t *testing.T) {
	f := newFixture()

	_, err := f.manager.Create(context.Background(), RegisterInput{Email: "a@b.c", Username: "a", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = f.manager.Create(context.Background(), RegisterInput{Email: "a@b.c", Username: "a", Password: strings.Repeat("p", 73)})
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyPassword(t *testing.T) {
	f := newFixture()
	confirmed := f.seed("bob", "Password123!", RoleStandard, true)
	unconfirmed := f.seed("carol", "Password123!", RoleStandard, false)
	ctx := context.Background()

	res, err := f.manager.VerifyPassword(ctx, confirmed, "Password123!")
	require.NoError(t, err)
	assert.Equal(t, VerifyResult{Succeeded: true}, res)

	res, err = f.manager.VerifyPassword(ctx, confirmed, "wrong")
	require.NoError(t, err)
	assert.Equal(t, VerifyResult{}, res)

	res, err = f.manager.VerifyPassword(ctx, unconfirmed, "Password123!")
	require.NoError(t, err)
	assert.Equal(t, VerifyResult{NotAllowed: true}, res)

	res, err = f.manager.VerifyPassword(ctx, unconfirmed, "wrong")
	require.NoError(t, err)
	assert.Equal(t, VerifyResult{}, res, "a wrong password never reveals the confirmation state")
}

func TestVerifyPasswordLockout(t *testing.T) {
	f := newFixture()
	f.manager.maxFailures = 2
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.manager.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	u := f.seed("dave", "Password123!", RoleStandard, true)

	res, err := f.manager.VerifyPassword(ctx, u, "nope")
	require.NoError(t, err)
	assert.False(t, res.LockedOut)

	u, _ = f.repo.FindByUsername(ctx, "dave")
	assert.Equal(t, 1, u.AccessFailedCount)

	res, err = f.manager.VerifyPassword(ctx, u, "nope")
	require.NoError(t, err)
	assert.True(t, res.LockedOut)

	u, _ = f.repo.FindByUsername(ctx, "dave")
	res, err = f.manager.VerifyPassword(ctx, u, "Password123!")
	require.NoError(t, err)
	assert.Equal(t, VerifyResult{LockedOut: true}, res, "correct password during lockout")

	now = now.Add(6 * time.Minute)
	res, err = f.manager.VerifyPassword(ctx, u, "Password123!")
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	u, _ = f.repo.FindByUsername(ctx, "dave")
	assert.Nil(t, u.LockoutEnd)
	assert.Zero(t, u.AccessFailedCount)
}

func TestVerifyPasswordWithoutLockoutKeepsNoCount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.seed("erin", "Password123!", RoleStandard, true)

	for i := 0; i < 10; i++ {
		_, err := f.manager.VerifyPassword(ctx, u, "nope")
		require.NoError(t, err)
	}
	stored, _ := f.repo.FindByUsername(ctx, "erin")
	assert.Zero(t, stored.AccessFailedCount)
	assert.Nil(t, stored.LockoutEnd)
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.seed("frank", "Password123!", RoleStandard, true)

	assert.ErrorIs(t, f.manager.ChangePassword(ctx, u, "bad", "NewPassword1!"), ErrIncorrectPassword)
	require.NoError(t, f.manager.ChangePassword(ctx, u, "Password123!", "NewPassword1!"))

	stored, _ := f.repo.FindByUsername(ctx, "frank")
	assert.True(t, f.manager.CheckPassword(stored, "NewPassword1!"))
	assert.False(t, f.manager.CheckPassword(stored, "Password123!"))
}

func TestEmailTokensAreSingleUse(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.seed("gina", "Password123!", RoleStandard, false)

	token, err := f.manager.GenerateConfirmationToken(ctx, u)
	require.NoError(t, err)

	assert.ErrorIs(t, f.manager.ConfirmEmail(ctx, u, "forged"), ErrInvalidToken)
	require.NoError(t, f.manager.ConfirmEmail(ctx, u, token))
	assert.ErrorIs(t, f.manager.ConfirmEmail(ctx, u, token), ErrInvalidToken)

	stored, _ := f.repo.FindByUsername(ctx, "gina")
	assert.True(t, stored.EmailConfirmed)

	reset, err := f.manager.GeneratePasswordResetToken(ctx, stored)
	require.NoError(t, err)
	assert.ErrorIs(t, f.manager.ResetPassword(ctx, stored, token, "Another123!"), ErrInvalidToken, "confirmation token cannot reset")
	require.NoError(t, f.manager.ResetPassword(ctx, stored, reset, "Another123!"))

	stored, _ = f.repo.FindByUsername(ctx, "gina")
	assert.True(t, f.manager.CheckPassword(stored, "Another123!"))
}

func TestFindByIDRejectsMalformedIDs(t *testing.T) {
	f := newFixture()
	_, err := f.manager.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetprep/backend/internal/domain/profile"
	"github.com/neetprep/backend/internal/store"
)

func TestAccounts_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	p, sess, err := e.accounts.Register(ctx, "Asha", "Asha@Example.com", "secret1", 2027)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", p.Email)
	assert.Equal(t, []string{"welcome"}, e.mail.kinds())

	got, err := e.accounts.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, _, err = e.accounts.Register(ctx, "Asha", "asha@example.com", "secret1", 2027)
	assert.ErrorIs(t, err, store.ErrConflict)

	_, _, err = e.accounts.Login(ctx, "asha@example.com", "wrong-pass")
	assert.ErrorIs(t, err, profile.ErrInvalidCredentials)
	_, _, err = e.accounts.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, profile.ErrInvalidCredentials)

	_, login, err := e.accounts.Login(ctx, " ASHA@example.com ", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, login.Token)

	require.NoError(t, e.accounts.Logout(ctx, login.Token))
	_, err = e.accounts.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.NoError(t, e.accounts.Logout(ctx, login.Token))
}

func TestAccounts_RegisterValidation(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.accounts.Register(context.Background(), "Asha", "not-an-email", "secret1", 2027)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = e.accounts.Register(context.Background(), "Asha", "asha@example.com", "123", 2027)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAccounts_SessionExpiry(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, sess, err := e.accounts.Register(ctx, "Asha", "asha@example.com", "secret1", 2027)
	require.NoError(t, err)

	_, err = e.accounts.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	e.clock.Advance(profile.SessionTTL + time.Minute)
	_, err = e.accounts.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, e.accounts.PurgeExpiredSessions(ctx))
	_, err = e.store.GetAuthSession(ctx, sess.Token)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccounts_AdminRights(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	admin := e.register(t, " ADMIN@example.com")
	assert.True(t, admin.Admin)
	student := e.register(t, "asha@example.com")
	assert.False(t, student.Admin)

	p, err := e.accounts.SetAdmin(ctx, "asha@example.com", true)
	require.NoError(t, err)
	assert.True(t, p.Admin)
	got, err := e.accounts.Profile(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, got.Admin)

	_, err = e.accounts.SetAdmin(ctx, "asha@example.com", false)
	require.NoError(t, err)
	got, err = e.accounts.Profile(ctx, student.ID)
	require.NoError(t, err)
	assert.False(t, got.Admin)

	_, err = e.accounts.SetAdmin(ctx, "nobody@example.com", true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

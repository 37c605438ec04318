package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/nosmoke/internal/domain"
	"github.com/you/nosmoke/internal/repository"
	"github.com/you/nosmoke/internal/testutil"
	"github.com/you/nosmoke/pkg/auth"
)

func newAuthSvc(t *testing.T) (*AuthSvc, *repository.UserRepo, *auth.Signer) {
	t.Helper()
	gdb := testutil.OpenDB(t)
	users := repository.NewUserRepo(gdb)
	signer := auth.NewSigner("test-secret", time.Hour, 24*time.Hour)
	return NewAuthSvc(users, signer), users, signer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, signer := newAuthSvc(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Quit@Example.com", "secret1", "Somchai", "")
	require.NoError(t, err)
	assert.Equal(t, "quit@example.com", u.Email)
	assert.Equal(t, domain.RoleSmoker, u.Role)
	assert.Equal(t, domain.TierFree, u.MembershipTier)
	assert.True(t, u.Active)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = svc.Register(ctx, "quit@example.com", "another1", "", "coach")
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, tok, err := svc.Login(ctx, "QUIT@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	claims, err := signer.ParseValidate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Sub)
	assert.Equal(t, "smoker", claims.Role)
	assert.NotEmpty(t, tok.RefreshToken)

	_, _, err = svc.Login(ctx, "quit@example.com", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegisterRejects(t *testing.T) {
	svc, _, _ := newAuthSvc(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "secret1", "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Register(ctx, "a@example.com", "123", "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Register(ctx, "a@example.com", "secret1", "", "admin")
	assert.ErrorIs(t, err, domain.ErrValidation, "admins cannot self-register")
}

func TestInactiveUserCannotLogin(t *testing.T) {
	svc, users, _ := newAuthSvc(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "coach@example.com", "secret1", "Coach", "coach")
	require.NoError(t, err)
	_, err = users.UpdateFields(ctx, u.ID, map[string]any{"active": false})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "coach@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestEnsureAdmin(t *testing.T) {
	svc, _, _ := newAuthSvc(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.False(t, created, "second run is a no-op")

	u, _, err := svc.Login(ctx, "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

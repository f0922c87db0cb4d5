package service_test

import (
	"context"
	"strings"
	"testing"

	"garage-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_MemberLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	m, self := f.newMember(t, "login@example.com")

	got, err := f.auth.LoginMember(ctx, "LOGIN@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = f.auth.LoginMember(ctx, "login@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.auth.LoginMember(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	me, err := f.auth.CurrentMember(ctx, self)
	require.NoError(t, err)
	assert.Equal(t, m.ID, me.ID)

	_, err = f.auth.CurrentMember(ctx, staff)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	require.NoError(t, f.members.Delete(ctx, owner, m.ID))
	_, err = f.auth.CurrentMember(ctx, self)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthService_StaffUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())

	boss, created, err := f.auth.EnsureOwner(ctx, "owner", "owner-password")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.UserRoleOwner, boss.Role)

	again, created, err := f.auth.EnsureOwner(ctx, "owner", "ignored-password")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, boss.ID, again.ID)

	u, err := f.auth.LoginStaff(ctx, "owner", "owner-password")
	require.NoError(t, err)
	bossID := domain.StaffIdentity(u)

	adm, err := f.auth.CreateStaffUser(ctx, bossID, "admin", "admin-password", domain.UserRoleAdmin)
	require.NoError(t, err)
	admID := domain.StaffIdentity(adm)

	_, err = f.auth.CreateStaffUser(ctx, admID, "owner2", "owner-password", domain.UserRoleOwner)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.auth.CreateStaffUser(ctx, staff, "x", "password123", domain.UserRoleRepairStaff)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.auth.CreateStaffUser(ctx, admID, "admin", "password123", domain.UserRoleRepairStaff)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = f.auth.CreateStaffUser(ctx, admID, "tech", "password123", "janitor")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.auth.LoginStaff(ctx, "admin", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	me, err := f.auth.CurrentStaff(ctx, admID)
	require.NoError(t, err)
	assert.Equal(t, "admin", me.Username)

	stale := domain.Identity{ActorID: adm.ID, UserType: domain.UserTypeOwner}
	_, err = f.auth.CurrentStaff(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthService_PasswordBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	long := strings.Repeat("p", 80)

	t.Run("RegisterMember", func(t *testing.T) {
		_, err := f.auth.RegisterMember(ctx, domain.NewMember{Name: "Long", Email: "long@example.com", Password: long})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		fields := domain.Fields(err)
		require.Len(t, fields, 1)
		assert.Equal(t, "password", fields[0].Field)

		_, err = f.auth.LoginMember(ctx, "long@example.com", long)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("MultiByteAtLimit", func(t *testing.T) {
		// 24 three-byte runes fill bcrypt's 72-byte input exactly.
		_, err := f.auth.RegisterMember(ctx, domain.NewMember{Name: "Wide", Email: "wide@example.com", Password: strings.Repeat("€", 24)})
		require.NoError(t, err)

		_, err = f.auth.RegisterMember(ctx, domain.NewMember{Name: "Wider", Email: "wider@example.com", Password: strings.Repeat("€", 25)})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("EnsureOwner", func(t *testing.T) {
		_, created, err := f.auth.EnsureOwner(ctx, "owner", long)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.False(t, created)
	})

	t.Run("CreateStaffUser", func(t *testing.T) {
		_, err := f.auth.CreateStaffUser(ctx, owner, "mechanic", long, domain.UserRoleRepairStaff)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = f.auth.CreateStaffUser(ctx, owner, strings.Repeat("u", domain.MaxNameLength+1), "staff-password", domain.UserRoleRepairStaff)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

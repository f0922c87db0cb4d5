package service_test

import (
	"context"
	"strings"
	"testing"

	"garage-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())

	m, err := f.members.Create(ctx, staff, domain.NewMember{Name: "Ana", Email: " Ana@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", m.Email)
	assert.Equal(t, domain.TierBronze, m.Level)
	assert.Zero(t, m.Points)
	assert.True(t, m.WalletBalance.IsZero())
	assert.NotEqual(t, "password123", m.PasswordHash)

	_, err = f.members.Create(ctx, staff, domain.NewMember{Name: "Ana 2", Email: "ANA@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.members.Create(ctx, domain.MemberIdentity(m.ID), domain.NewMember{Name: "x", Email: "x@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.members.Create(ctx, staff, domain.NewMember{Name: "", Email: "not-an-email", Password: "short"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, domain.Fields(err), 3)
}

func TestMemberService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quietNotifier())
	m, self := f.newMember(t, "patch@example.com")
	f.newMember(t, "taken@example.com")

	phone := "555-0100"
	got, err := f.members.Update(ctx, self, m.ID, domain.MemberPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, got.Phone)
	assert.Equal(t, "Test Member", got.Name)

	taken := "taken@example.com"
	_, err = f.members.Update(ctx, self, m.ID, domain.MemberPatch{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	empty := " "
	_, err = f.members.Update(ctx, self, m.ID, domain.MemberPatch{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	longName := strings.Repeat("n", domain.MaxNameLength+1)
	_, err = f.members.Update(ctx, self, m.ID, domain.MemberPatch{Name: &longName})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	longPhone := strings.Repeat("5", domain.MaxPhoneLength+1)
	_, err = f.members.Update(ctx, self, m.ID, domain.MemberPatch{Phone: &longPhone})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := f.members.List(ctx, staff)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	_, err = f.members.List(ctx, self)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, f.members.Delete(ctx, staff, m.ID), domain.ErrForbidden)
	require.NoError(t, f.members.Delete(ctx, owner, m.ID))
	_, err = f.members.Get(ctx, staff, m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.members.Delete(ctx, owner, m.ID), domain.ErrNotFound)
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleOwner       UserRole = "owner"
	UserRoleAdmin       UserRole = "admin"
	UserRoleRepairStaff UserRole = "repair_staff"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleOwner, UserRoleAdmin, UserRoleRepairStaff:
		return true
	}
	return false
}

// User is a staff account (owner, admin or repair staff).
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserType string

const (
	UserTypeMember      UserType = "member"
	UserTypeOwner       UserType = "owner"
	UserTypeAdmin       UserType = "admin"
	UserTypeRepairStaff UserType = "repair_staff"
)

func (t UserType) Valid() bool {
	switch t {
	case UserTypeMember, UserTypeOwner, UserTypeAdmin, UserTypeRepairStaff:
		return true
	}
	return false
}

// Identity is the request-scoped caller resolved by the session gate. The
// zero value is an anonymous caller.
type Identity struct {
	ActorID  uuid.UUID `json:"actor_id"`
	UserType UserType  `json:"user_type"`
}

func MemberIdentity(id uuid.UUID) Identity {
	return Identity{ActorID: id, UserType: UserTypeMember}
}

func StaffIdentity(u *User) Identity {
	return Identity{ActorID: u.ID, UserType: UserType(u.Role)}
}

func (i Identity) IsAuthenticated() bool {
	return i.ActorID != uuid.Nil && i.UserType.Valid()
}

func (i Identity) IsMember() bool {
	return i.IsAuthenticated() && i.UserType == UserTypeMember
}

func (i Identity) IsStaff() bool {
	return i.IsAuthenticated() && i.UserType != UserTypeMember
}

// IsPrivileged is true for owners and admins.
func (i Identity) IsPrivileged() bool {
	return i.IsAuthenticated() && (i.UserType == UserTypeOwner || i.UserType == UserTypeAdmin)
}

// CanAccessMember allows staff and the member themself.
func (i Identity) CanAccessMember(memberID uuid.UUID) bool {
	if i.IsStaff() {
		return true
	}
	return i.IsMember() && i.ActorID == memberID
}

func (i Identity) ReporterType() ReporterType {
	switch i.UserType {
	case UserTypeMember:
		return ReporterMember
	case UserTypeRepairStaff:
		return ReporterRepairStaff
	default:
		return ReporterUser
	}
}

package service

import (
	"fmt"

	"garage-backend/internal/domain"

	"github.com/google/uuid"
)

func requireAuthenticated(actor domain.Identity) error {
	if !actor.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}
	return nil
}

func requireStaff(actor domain.Identity) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsStaff() {
		return fmt.Errorf("%w: staff only", domain.ErrForbidden)
	}
	return nil
}

func requirePrivileged(actor domain.Identity) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsPrivileged() {
		return fmt.Errorf("%w: owner or admin only", domain.ErrForbidden)
	}
	return nil
}

// requireMemberAccess lets staff act on any member and members act on themselves.
func requireMemberAccess(actor domain.Identity, memberID uuid.UUID) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.CanAccessMember(memberID) {
		return fmt.Errorf("%w: member %s", domain.ErrForbidden, memberID)
	}
	return nil
}

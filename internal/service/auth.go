package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"
	"garage-backend/internal/security"

	"github.com/google/uuid"
)

type authService struct {
	store repository.Store
}

func NewAuthService(store repository.Store) AuthService {
	return &authService{store: store}
}

func (s *authService) RegisterMember(ctx context.Context, in domain.NewMember) (*domain.Member, error) {
	logger.EnterMethod("authService.RegisterMember", "email", in.Email)
	m, err := createMember(ctx, s.store.Repositories().Members, in)
	if err != nil {
		logger.ExitMethodWithError("authService.RegisterMember", err, "email", in.Email)
		return nil, err
	}
	logger.ExitMethod("authService.RegisterMember", "memberID", m.ID)
	return m, nil
}

// LoginMember never reveals whether the email exists.
func (s *authService) LoginMember(ctx context.Context, email, password string) (*domain.Member, error) {
	logger.EnterMethod("authService.LoginMember", "email", email)
	m, err := s.store.Repositories().Members.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		logger.ExitMethodWithError("authService.LoginMember", domain.ErrInvalidCredentials, "email", email)
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if m.PasswordHash == "" || !security.CheckPassword(m.PasswordHash, password) {
		logger.ExitMethodWithError("authService.LoginMember", domain.ErrInvalidCredentials, "memberID", m.ID)
		return nil, domain.ErrInvalidCredentials
	}
	logger.ExitMethod("authService.LoginMember", "memberID", m.ID)
	return m, nil
}

func (s *authService) LoginStaff(ctx context.Context, username, password string) (*domain.User, error) {
	logger.EnterMethod("authService.LoginStaff", "username", username)
	u, err := s.store.Repositories().Users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !security.CheckPassword(u.PasswordHash, password) {
		logger.ExitMethodWithError("authService.LoginStaff", domain.ErrInvalidCredentials, "userID", u.ID)
		return nil, domain.ErrInvalidCredentials
	}
	logger.ExitMethod("authService.LoginStaff", "userID", u.ID, "role", u.Role)
	return u, nil
}

// CurrentMember resolves a member session. A session whose member has since
// been deleted is treated as unauthenticated.
func (s *authService) CurrentMember(ctx context.Context, actor domain.Identity) (*domain.Member, error) {
	if !actor.IsMember() {
		return nil, domain.ErrUnauthenticated
	}
	m, err := s.store.Repositories().Members.GetByID(ctx, actor.ActorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	return m, err
}

func (s *authService) CurrentStaff(ctx context.Context, actor domain.Identity) (*domain.User, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrUnauthenticated
	}
	u, err := s.store.Repositories().Users.GetByID(ctx, actor.ActorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	// A role change invalidates sessions issued under the old role.
	if domain.UserType(u.Role) != actor.UserType {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

// CreateStaffUser lets owners create any role and admins create admins and
// repair staff.
func (s *authService) CreateStaffUser(ctx context.Context, actor domain.Identity, username, password string, role domain.UserRole) (*domain.User, error) {
	logger.EnterMethod("authService.CreateStaffUser", "username", username, "role", role)
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	if role == domain.UserRoleOwner && actor.UserType != domain.UserTypeOwner {
		return nil, fmt.Errorf("%w: only an owner can create an owner", domain.ErrForbidden)
	}
	u, err := s.createUser(ctx, username, password, role)
	if err != nil {
		logger.ExitMethodWithError("authService.CreateStaffUser", err, "username", username)
		return nil, err
	}
	logger.ExitMethod("authService.CreateStaffUser", "userID", u.ID)
	return u, nil
}

func (s *authService) createUser(ctx context.Context, username, password string, role domain.UserRole) (*domain.User, error) {
	username = strings.TrimSpace(username)
	var errs domain.ValidationErrors
	if username == "" {
		errs = append(errs, domain.ValidationError{Field: "username", Message: "is required"})
	} else if verr := domain.CheckLength("username", username, domain.MaxNameLength); verr != nil {
		errs = append(errs, *verr)
	}
	if verr := validatePassword(password); verr != nil {
		errs = append(errs, *verr)
	}
	if !role.Valid() {
		errs = append(errs, domain.ValidationError{Field: "role", Message: "must be one of owner, admin, repair_staff"})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: uuid.New(), Username: username, PasswordHash: hash, Role: role}
	if err := s.store.Repositories().Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureOwner creates the bootstrap owner account when the username is free.
// The boolean reports whether an account was created.
func (s *authService) EnsureOwner(ctx context.Context, username, password string) (*domain.User, bool, error) {
	existing, err := s.store.Repositories().Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	u, err := s.createUser(ctx, username, password, domain.UserRoleOwner)
	if err != nil {
		return nil, false, err
	}
	logger.Info("Bootstrap owner created", "userID", u.ID, "username", u.Username)
	return u, true, nil
}

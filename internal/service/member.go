package service

import (
	"context"
	"net/mail"
	"strings"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"
	"garage-backend/internal/security"

	"github.com/google/uuid"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes and x/crypto rejects it outright.
	maxPasswordBytes = 72
)

func validatePassword(password string) *domain.ValidationError {
	if len(password) < minPasswordLength {
		return &domain.ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}
	if len(password) > maxPasswordBytes {
		return &domain.ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}
	return nil
}

func validateEmail(field, email string) *domain.ValidationError {
	if email == "" {
		return &domain.ValidationError{Field: field, Message: "is required"}
	}
	if verr := domain.CheckLength(field, email, domain.MaxNameLength); verr != nil {
		return verr
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &domain.ValidationError{Field: field, Message: "must be a valid email address"}
	}
	return nil
}

func normalizeNewMember(in domain.NewMember) (domain.NewMember, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	var errs domain.ValidationErrors
	if in.Name == "" {
		errs = append(errs, domain.ValidationError{Field: "name", Message: "is required"})
	} else if verr := domain.CheckLength("name", in.Name, domain.MaxNameLength); verr != nil {
		errs = append(errs, *verr)
	}
	if verr := validateEmail("email", in.Email); verr != nil {
		errs = append(errs, *verr)
	}
	if verr := domain.CheckLength("phone", in.Phone, domain.MaxPhoneLength); verr != nil {
		errs = append(errs, *verr)
	}
	if verr := validatePassword(in.Password); verr != nil {
		errs = append(errs, *verr)
	}
	if len(errs) > 0 {
		return in, errs
	}
	return in, nil
}

// createMember validates and stores a new bronze member with zero balances.
// A taken email surfaces as domain.ErrDuplicate.
func createMember(ctx context.Context, members repository.MemberRepository, in domain.NewMember) (*domain.Member, error) {
	in, err := normalizeNewMember(in)
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	m := &domain.Member{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		Notes:        in.Notes,
		PasswordHash: hash,
		Level:        domain.TierBronze,
	}
	if err := members.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

type memberService struct {
	store repository.Store
}

func NewMemberService(store repository.Store) MemberService {
	return &memberService{store: store}
}

func (s *memberService) Create(ctx context.Context, actor domain.Identity, in domain.NewMember) (*domain.Member, error) {
	logger.EnterMethod("memberService.Create", "email", in.Email)
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	m, err := createMember(ctx, s.store.Repositories().Members, in)
	if err != nil {
		logger.ExitMethodWithError("memberService.Create", err, "email", in.Email)
		return nil, err
	}
	logger.ExitMethod("memberService.Create", "memberID", m.ID)
	return m, nil
}

func (s *memberService) Get(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Member, error) {
	if err := requireMemberAccess(actor, id); err != nil {
		return nil, err
	}
	return s.store.Repositories().Members.GetByID(ctx, id)
}

func (s *memberService) List(ctx context.Context, actor domain.Identity) ([]domain.Member, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.store.Repositories().Members.List(ctx)
}

// Update patches profile fields only. Balances and level go through the ledger.
func (s *memberService) Update(ctx context.Context, actor domain.Identity, id uuid.UUID, patch domain.MemberPatch) (*domain.Member, error) {
	logger.EnterMethod("memberService.Update", "memberID", id)
	if err := requireMemberAccess(actor, id); err != nil {
		return nil, err
	}

	var errs domain.ValidationErrors
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			errs = append(errs, domain.ValidationError{Field: "name", Message: "must not be empty"})
		} else if verr := domain.CheckLength("name", name, domain.MaxNameLength); verr != nil {
			errs = append(errs, *verr)
		}
		patch.Name = &name
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if verr := validateEmail("email", email); verr != nil {
			errs = append(errs, *verr)
		}
		patch.Email = &email
	}
	if patch.Phone != nil {
		if verr := domain.CheckLength("phone", *patch.Phone, domain.MaxPhoneLength); verr != nil {
			errs = append(errs, *verr)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	var m *domain.Member
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		m, err = repos.Members.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(m)
		return repos.Members.Update(ctx, m)
	})
	if err != nil {
		logger.ExitMethodWithError("memberService.Update", err, "memberID", id)
		return nil, err
	}
	logger.ExitMethod("memberService.Update", "memberID", id)
	return m, nil
}

// Delete removes the member together with its ledger rows and carts.
func (s *memberService) Delete(ctx context.Context, actor domain.Identity, id uuid.UUID) error {
	if err := requirePrivileged(actor); err != nil {
		return err
	}
	if err := s.store.Repositories().Members.Delete(ctx, id); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Member deleted", "memberID", id, "actorID", actor.ActorID)
	return nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"garage-backend/internal/domain"

	"github.com/google/uuid"
)

type memberRepository struct {
	h *handle
}

func (r *memberRepository) Create(ctx context.Context, m *domain.Member) error {
	return r.h.write(func(st *state) error {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		if _, ok := st.members[m.ID]; ok {
			return fmt.Errorf("member %w", domain.ErrDuplicate)
		}
		if emailTaken(st, m.Email, m.ID) {
			return fmt.Errorf("member %w: email", domain.ErrDuplicate)
		}
		if m.Level == "" {
			m.Level = domain.TierBronze
		}
		now := time.Now().UTC()
		m.CreatedAt = now
		m.UpdatedAt = now
		st.members[m.ID] = *m
		return nil
	})
}

func emailTaken(st *state, email string, except uuid.UUID) bool {
	for id, m := range st.members {
		if id != except && strings.EqualFold(m.Email, email) {
			return true
		}
	}
	return false
}

func (r *memberRepository) get(id uuid.UUID) (*domain.Member, error) {
	var out *domain.Member
	err := r.h.read(func(st *state) error {
		m, ok := st.members[id]
		if !ok {
			return fmt.Errorf("member %w", domain.ErrNotFound)
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	return r.get(id)
}

func (r *memberRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	return r.get(id)
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	var out *domain.Member
	err := r.h.read(func(st *state) error {
		for _, m := range st.members {
			if strings.EqualFold(m.Email, email) {
				m := m
				out = &m
				return nil
			}
		}
		return fmt.Errorf("member %w", domain.ErrNotFound)
	})
	return out, err
}

func (r *memberRepository) List(ctx context.Context) ([]domain.Member, error) {
	members := []domain.Member{}
	err := r.h.read(func(st *state) error {
		for _, m := range st.members {
			members = append(members, m)
		}
		return nil
	})
	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.After(members[j].CreatedAt)
	})
	return members, err
}

func (r *memberRepository) Update(ctx context.Context, m *domain.Member) error {
	return r.h.write(func(st *state) error {
		cur, ok := st.members[m.ID]
		if !ok {
			return fmt.Errorf("member %w", domain.ErrNotFound)
		}
		if emailTaken(st, m.Email, m.ID) {
			return fmt.Errorf("member %w: email", domain.ErrDuplicate)
		}
		m.UpdatedAt = time.Now().UTC()
		cur.Name, cur.Email, cur.Phone, cur.Address, cur.Notes = m.Name, m.Email, m.Phone, m.Address, m.Notes
		cur.UpdatedAt = m.UpdatedAt
		st.members[m.ID] = cur
		return nil
	})
}

func (r *memberRepository) UpdateBalances(ctx context.Context, m *domain.Member) error {
	return r.h.write(func(st *state) error {
		cur, ok := st.members[m.ID]
		if !ok {
			return fmt.Errorf("member %w", domain.ErrNotFound)
		}
		if m.Points < 0 || m.LifetimePoints < 0 || m.WalletBalance.IsNegative() {
			return fmt.Errorf("member balances must be non-negative")
		}
		if err := checkNumeric("member", "wallet_balance", m.WalletBalance, domain.MaxMoney); err != nil {
			return err
		}
		m.UpdatedAt = time.Now().UTC()
		cur.Points, cur.LifetimePoints, cur.WalletBalance = m.Points, m.LifetimePoints, m.WalletBalance
		cur.UpdatedAt = m.UpdatedAt
		st.members[m.ID] = cur
		return nil
	})
}

func (r *memberRepository) UpdateLevel(ctx context.Context, id uuid.UUID, level domain.Tier) error {
	return r.h.write(func(st *state) error {
		cur, ok := st.members[id]
		if !ok {
			return fmt.Errorf("member %w", domain.ErrNotFound)
		}
		cur.Level = level
		cur.UpdatedAt = time.Now().UTC()
		st.members[id] = cur
		return nil
	})
}

// Delete removes the member together with the rows that reference it.
func (r *memberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.members[id]; !ok {
			return fmt.Errorf("member %w", domain.ErrNotFound)
		}
		delete(st.members, id)
		st.points = filter(st.points, func(t domain.PointsTransaction) bool { return t.MemberID != id })
		st.wallet = filter(st.wallet, func(t domain.WalletTransaction) bool { return t.MemberID != id })
		for cid, c := range st.carts {
			if c.MemberID == id {
				delete(st.carts, cid)
				st.items = filter(st.items, func(i domain.CartItem) bool { return i.CartID != cid })
			}
		}
		return nil
	})
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

type levelRepository struct {
	h *handle
}

func (r *levelRepository) List(ctx context.Context) ([]domain.MemberLevelRule, error) {
	rules := []domain.MemberLevelRule{}
	err := r.h.read(func(st *state) error {
		for _, rule := range st.levels {
			rules = append(rules, rule)
		}
		return nil
	})
	sort.Slice(rules, func(i, j int) bool { return rules[i].MinPoints < rules[j].MinPoints })
	return rules, err
}

func (r *levelRepository) Upsert(ctx context.Context, rule *domain.MemberLevelRule) error {
	return r.h.write(func(st *state) error {
		if cur, ok := st.levels[rule.Level]; ok {
			rule.ID = cur.ID
		} else if rule.ID == uuid.Nil {
			rule.ID = uuid.New()
		}
		st.levels[rule.Level] = *rule
		return nil
	})
}

type userRepository struct {
	h *handle
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	return r.h.write(func(st *state) error {
		for _, existing := range st.users {
			if existing.Username == u.Username {
				return fmt.Errorf("user %w: username", domain.ErrDuplicate)
			}
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		if u.Role == "" {
			u.Role = domain.UserRoleRepairStaff
		}
		u.CreatedAt = time.Now().UTC()
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := r.h.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user %w", domain.ErrNotFound)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var out *domain.User
	err := r.h.read(func(st *state) error {
		for _, u := range st.users {
			if u.Username == username {
				u := u
				out = &u
				return nil
			}
		}
		return fmt.Errorf("user %w", domain.ErrNotFound)
	})
	return out, err
}

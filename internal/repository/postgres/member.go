package postgres

import (
	"context"
	"time"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
)

type memberRepository struct {
	db DBTX
}

func NewMemberRepository(db DBTX) repository.MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = `id, name, email, COALESCE(phone, ''), COALESCE(address, ''), password_hash, level,
	points, lifetime_points, wallet_balance, COALESCE(notes, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*domain.Member, error) {
	m := &domain.Member{}
	err := row.Scan(
		&m.ID, &m.Name, &m.Email, &m.Phone, &m.Address, &m.PasswordHash, &m.Level,
		&m.Points, &m.LifetimePoints, &m.WalletBalance, &m.Notes, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *memberRepository) Create(ctx context.Context, m *domain.Member) error {
	logger.EnterMethod("memberRepository.Create", "email", m.Email)

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Level == "" {
		m.Level = domain.TierBronze
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	query := `INSERT INTO members (id, name, email, phone, address, password_hash, level, points, lifetime_points, wallet_balance, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	logger.DatabaseCall("INSERT", "members", "memberID", m.ID)
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Email, m.Phone, m.Address, m.PasswordHash, m.Level,
		m.Points, m.LifetimePoints, m.WalletBalance, m.Notes, m.CreatedAt, m.UpdatedAt,
	)
	logger.DatabaseResult("INSERT", 1, err, "memberID", m.ID)
	if err != nil {
		err = mapError(err, "member")
		logger.ExitMethodWithError("memberRepository.Create", err, "email", m.Email)
		return err
	}

	logger.ExitMethod("memberRepository.Create", "memberID", m.ID)
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "member")
	}
	return m, nil
}

func (r *memberRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("SELECT FOR UPDATE", "members", "memberID", id)
	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "member")
	}
	return m, nil
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE LOWER(email) = LOWER($1)`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(err, "member")
	}
	return m, nil
}

func (r *memberRepository) List(ctx context.Context) ([]domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (r *memberRepository) Update(ctx context.Context, m *domain.Member) error {
	m.UpdatedAt = time.Now().UTC()
	query := `UPDATE members SET name = $1, email = $2, phone = $3, address = $4, notes = $5, updated_at = $6 WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query, m.Name, m.Email, m.Phone, m.Address, m.Notes, m.UpdatedAt, m.ID)
	if err != nil {
		return mapError(err, "member")
	}
	return expectOne(res, "member")
}

func (r *memberRepository) UpdateBalances(ctx context.Context, m *domain.Member) error {
	m.UpdatedAt = time.Now().UTC()
	query := `UPDATE members SET points = $1, lifetime_points = $2, wallet_balance = $3, updated_at = $4 WHERE id = $5`
	logger.DatabaseCall("UPDATE", "members", "memberID", m.ID, "points", m.Points, "wallet", m.WalletBalance.String())
	res, err := r.db.ExecContext(ctx, query, m.Points, m.LifetimePoints, m.WalletBalance, m.UpdatedAt, m.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "memberID", m.ID)
		return mapError(err, "member")
	}
	return expectOne(res, "member")
}

func (r *memberRepository) UpdateLevel(ctx context.Context, id uuid.UUID, level domain.Tier) error {
	query := `UPDATE members SET level = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, level, time.Now().UTC(), id)
	if err != nil {
		return mapError(err, "member")
	}
	return expectOne(res, "member")
}

func (r *memberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "member")
}

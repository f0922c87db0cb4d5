package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository can run
// either standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.MemberRepository
	repository.LevelRepository
	repository.LedgerRepository
	repository.CartRepository
	repository.ReportRepository
	repository.UserRepository
}

func NewStore(db *sql.DB) *Store {
	repos := newRepositories(db)
	return &Store{
		db:               db,
		MemberRepository: repos.Members,
		LevelRepository:  repos.Levels,
		LedgerRepository: repos.Ledger,
		CartRepository:   repos.Carts,
		ReportRepository: repos.Reports,
		UserRepository:   repos.Users,
	}
}

func newRepositories(db DBTX) repository.Repositories {
	return repository.Repositories{
		Members: NewMemberRepository(db),
		Levels:  NewLevelRepository(db),
		Ledger:  NewLedgerRepository(db),
		Carts:   NewCartRepository(db),
		Reports: NewReportRepository(db),
		Users:   NewUserRepository(db),
	}
}

func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Members: s.MemberRepository,
		Levels:  s.LevelRepository,
		Ledger:  s.LedgerRepository,
		Carts:   s.CartRepository,
		Reports: s.ReportRepository,
		Users:   s.UserRepository,
	}
}

// WithinTx runs fn in a READ COMMITTED transaction. Balance mutations rely on
// SELECT ... FOR UPDATE on the member row for per-member serialization.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("MIGRATE", "schema")
	_, err := db.ExecContext(ctx, schema)
	logger.DatabaseResult("MIGRATE", 0, err)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const (
	uniqueViolation = "23505"
	// class 22 covers value too long, numeric overflow and bad text representation.
	dataExceptionClass = "22"
)

// mapError translates driver errors into the domain taxonomy.
func mapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %w", entity, domain.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s %w: %s", entity, domain.ErrDuplicate, pqErr.Constraint)
	}
	if errors.As(err, &pqErr) && pqErr.Code.Class() == dataExceptionClass {
		return fmt.Errorf("%s %w: %s", entity, domain.ErrInvalidInput, pqErr.Message)
	}
	return err
}

// expectOne turns a zero-row write into a not-found error.
func expectOne(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %w", entity, domain.ErrNotFound)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

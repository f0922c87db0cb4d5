package postgres

import (
	"context"
	"database/sql"
	"time"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
)

type reportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) repository.ReportRepository {
	return &reportRepository{db: db}
}

const reportColumns = `id, reporter_id, reporter_type, title, description, status, assigned_to, metadata,
	created_at, updated_at, resolved_at`

func scanReport(row rowScanner) (*domain.Report, error) {
	rp := &domain.Report{}
	var assignedTo uuid.NullUUID
	var metadata sql.NullString
	var resolvedAt sql.NullTime
	err := row.Scan(
		&rp.ID, &rp.ReporterID, &rp.ReporterType, &rp.Title, &rp.Description, &rp.Status,
		&assignedTo, &metadata, &rp.CreatedAt, &rp.UpdatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		id := assignedTo.UUID
		rp.AssignedTo = &id
	}
	rp.Metadata = stringPtr(metadata)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		rp.ResolvedAt = &t
	}
	return rp, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (r *reportRepository) Create(ctx context.Context, rp *domain.Report) error {
	if rp.ID == uuid.Nil {
		rp.ID = uuid.New()
	}
	if rp.Status == "" {
		rp.Status = domain.ReportStatusOpen
	}
	now := time.Now().UTC()
	rp.CreatedAt = now
	rp.UpdatedAt = now

	query := `INSERT INTO reports (id, reporter_id, reporter_type, title, description, status, assigned_to, metadata, created_at, updated_at, resolved_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	logger.DatabaseCall("INSERT", "reports", "reporterID", rp.ReporterID, "reporterType", rp.ReporterType)
	_, err := r.db.ExecContext(ctx, query,
		rp.ID, rp.ReporterID, rp.ReporterType, rp.Title, rp.Description, rp.Status,
		nullUUID(rp.AssignedTo), nullString(rp.Metadata), rp.CreatedAt, rp.UpdatedAt, nullTime(rp.ResolvedAt),
	)
	logger.DatabaseResult("INSERT", 1, err, "reportID", rp.ID)
	return mapError(err, "report")
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	rp, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "report")
	}
	return rp, nil
}

func (r *reportRepository) List(ctx context.Context) ([]domain.Report, error) {
	return r.list(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC`)
}

func (r *reportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]domain.Report, error) {
	return r.list(ctx, `SELECT `+reportColumns+` FROM reports WHERE reporter_id = $1 ORDER BY created_at DESC`, reporterID)
}

func (r *reportRepository) list(ctx context.Context, query string, args ...any) ([]domain.Report, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		rp, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *rp)
	}
	return reports, rows.Err()
}

func (r *reportRepository) Update(ctx context.Context, rp *domain.Report) error {
	query := `UPDATE reports SET status = $1, assigned_to = $2, metadata = $3, updated_at = $4, resolved_at = $5 WHERE id = $6`
	logger.DatabaseCall("UPDATE", "reports", "reportID", rp.ID, "status", rp.Status)
	res, err := r.db.ExecContext(ctx, query,
		rp.Status, nullUUID(rp.AssignedTo), nullString(rp.Metadata), rp.UpdatedAt, nullTime(rp.ResolvedAt), rp.ID,
	)
	if err != nil {
		return mapError(err, "report")
	}
	return expectOne(res, "report")
}

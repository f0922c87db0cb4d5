package memory

import (
	"context"
	"fmt"
	"time"

	"garage-backend/internal/domain"

	"github.com/google/uuid"
)

type reportRepository struct {
	h *handle
}

func (r *reportRepository) Create(ctx context.Context, rp *domain.Report) error {
	return r.h.write(func(st *state) error {
		if rp.ID == uuid.Nil {
			rp.ID = uuid.New()
		}
		if rp.Status == "" {
			rp.Status = domain.ReportStatusOpen
		}
		now := time.Now().UTC()
		rp.CreatedAt = now
		rp.UpdatedAt = now
		st.reports = append(st.reports, *rp)
		return nil
	})
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	var out *domain.Report
	err := r.h.read(func(st *state) error {
		for _, rp := range st.reports {
			if rp.ID == id {
				rp := rp
				out = &rp
				return nil
			}
		}
		return fmt.Errorf("report %w", domain.ErrNotFound)
	})
	return out, err
}

// List returns every report, newest first.
func (r *reportRepository) List(ctx context.Context) ([]domain.Report, error) {
	return r.list(func(domain.Report) bool { return true })
}

func (r *reportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]domain.Report, error) {
	return r.list(func(rp domain.Report) bool { return rp.ReporterID == reporterID })
}

func (r *reportRepository) list(match func(domain.Report) bool) ([]domain.Report, error) {
	reports := []domain.Report{}
	err := r.h.read(func(st *state) error {
		for i := len(st.reports) - 1; i >= 0; i-- {
			if match(st.reports[i]) {
				reports = append(reports, st.reports[i])
			}
		}
		return nil
	})
	return reports, err
}

func (r *reportRepository) Update(ctx context.Context, rp *domain.Report) error {
	return r.h.write(func(st *state) error {
		for i := range st.reports {
			if st.reports[i].ID == rp.ID {
				st.reports[i].Status = rp.Status
				st.reports[i].AssignedTo = rp.AssignedTo
				st.reports[i].Metadata = rp.Metadata
				st.reports[i].UpdatedAt = rp.UpdatedAt
				st.reports[i].ResolvedAt = rp.ResolvedAt
				return nil
			}
		}
		return fmt.Errorf("report %w", domain.ErrNotFound)
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
)

type reportService struct {
	store    repository.Store
	notifier NotificationService
	now      func() time.Time
}

func NewReportService(store repository.Store, notifier NotificationService) ReportService {
	return &reportService{
		store:    store,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *reportService) File(ctx context.Context, actor domain.Identity, in domain.NewReport) (*domain.Report, error) {
	logger.EnterMethod("reportService.File", "actorID", actor.ActorID, "userType", actor.UserType)
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	var errs domain.ValidationErrors
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" {
		errs = append(errs, domain.ValidationError{Field: "title", Message: "is required"})
	} else if verr := domain.CheckLength("title", title, domain.MaxNameLength); verr != nil {
		errs = append(errs, *verr)
	}
	if description == "" {
		errs = append(errs, domain.ValidationError{Field: "description", Message: "is required"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	report := &domain.Report{
		ReporterID:   actor.ActorID,
		ReporterType: actor.ReporterType(),
		Title:        title,
		Description:  description,
		Status:       domain.ReportStatusOpen,
		Metadata:     in.Metadata,
	}
	if err := s.store.Repositories().Reports.Create(ctx, report); err != nil {
		logger.ExitMethodWithError("reportService.File", err)
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.ReportFiled(ctx, report); err != nil {
			logger.WarnContext(ctx, "Report notification failed", "reportID", report.ID, "error", err)
		}
	}
	logger.ExitMethod("reportService.File", "reportID", report.ID)
	return report, nil
}

func (s *reportService) ListAll(ctx context.Context, actor domain.Identity) ([]domain.Report, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	return s.store.Repositories().Reports.List(ctx)
}

func (s *reportService) ListMine(ctx context.Context, actor domain.Identity) ([]domain.Report, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.store.Repositories().Reports.ListByReporter(ctx, actor.ActorID)
}

// Get is open to owners, admins and the original reporter.
func (s *reportService) Get(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Report, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	report, err := s.store.Repositories().Reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsPrivileged() && report.ReporterID != actor.ActorID {
		return nil, fmt.Errorf("%w: report %s", domain.ErrForbidden, id)
	}
	return report, nil
}

func (s *reportService) UpdateStatus(ctx context.Context, actor domain.Identity, id uuid.UUID, patch domain.ReportPatch) (*domain.Report, error) {
	logger.EnterMethod("reportService.UpdateStatus", "reportID", id)
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Message: "must be one of open, in_progress, resolved"}
	}

	var report *domain.Report
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if patch.AssignedTo != nil {
			if _, err := repos.Users.GetByID(ctx, *patch.AssignedTo); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return &domain.ValidationError{Field: "assigned_to", Message: "must reference an existing staff user"}
				}
				return err
			}
		}
		var err error
		report, err = repos.Reports.GetByID(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(report, s.now())
		return repos.Reports.Update(ctx, report)
	})
	if err != nil {
		logger.ExitMethodWithError("reportService.UpdateStatus", err, "reportID", id)
		return nil, err
	}
	logger.ExitMethod("reportService.UpdateStatus", "reportID", id, "status", report.Status)
	return report, nil
}

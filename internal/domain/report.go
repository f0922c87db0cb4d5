package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	ReportStatusOpen       ReportStatus = "open"
	ReportStatusInProgress ReportStatus = "in_progress"
	ReportStatusResolved   ReportStatus = "resolved"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusOpen, ReportStatusInProgress, ReportStatusResolved:
		return true
	}
	return false
}

type ReporterType string

const (
	ReporterMember      ReporterType = "member"
	ReporterRepairStaff ReporterType = "repair_staff"
	ReporterUser        ReporterType = "user"
)

type Report struct {
	ID           uuid.UUID    `json:"id"`
	ReporterID   uuid.UUID    `json:"reporter_id"`
	ReporterType ReporterType `json:"reporter_type"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       ReportStatus `json:"status"`
	AssignedTo   *uuid.UUID   `json:"assigned_to,omitempty"`
	Metadata     *string      `json:"metadata,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	ResolvedAt   *time.Time   `json:"resolved_at,omitempty"`
}

type NewReport struct {
	Title       string
	Description string
	Metadata    *string
}

type ReportPatch struct {
	Status     *ReportStatus
	AssignedTo *uuid.UUID
	Metadata   *string
}

// Apply mutates r with the patch. Moving into resolved stamps ResolvedAt;
// leaving resolved keeps the earlier stamp.
func (p ReportPatch) Apply(r *Report, now time.Time) {
	if p.Status != nil {
		r.Status = *p.Status
		if *p.Status == ReportStatusResolved {
			t := now
			r.ResolvedAt = &t
		}
	}
	if p.AssignedTo != nil {
		id := *p.AssignedTo
		r.AssignedTo = &id
	}
	if p.Metadata != nil {
		m := *p.Metadata
		r.Metadata = &m
	}
	r.UpdatedAt = now
}

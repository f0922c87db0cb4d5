package scheduler

import (
	"testing"

	"garage-backend/internal/config"
	"garage-backend/internal/jobs"

	"github.com/stretchr/testify/assert"
)

func TestNewScheduler_RegistersJobs(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		AbandonStaleCarts: "0 0 3 * * *",
		AuditLedgers:      "0 30 3 * * *",
	}}
	s := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg))
	assert.Equal(t, 2, s.Entries())

	s.Start()
	s.Stop()
}

func TestNewScheduler_SkipsInvalidSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		AbandonStaleCarts: "not a cron spec",
		AuditLedgers:      "0 30 3 * * *",
	}}
	s := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg))
	assert.Equal(t, 1, s.Entries())
}

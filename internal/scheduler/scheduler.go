// internal/scheduler/scheduler.go
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/mindloom/internal/analyzer"
	"github.com/user/mindloom/internal/store"
)

// Scheduler runs the maintenance jobs: periodic store snapshots and
// expired-upload cleanup.
type Scheduler struct {
	store     *store.Store
	analyzers *analyzer.Service
	schedule  string
	uploadTTL time.Duration
	cron      *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Scheduler. analyzers may be nil when local analysis is
// disabled; the cleanup job is skipped in that case.
func New(st *store.Store, analyzers *analyzer.Service, schedule string, uploadTTL time.Duration) *Scheduler {
	return &Scheduler{
		store:     st,
		analyzers: analyzers,
		schedule:  schedule,
		uploadTTL: uploadTTL,
		cron:      cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the maintenance jobs and starts the cron ticker.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.snapshot); err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", s.schedule, err)
	}
	if s.analyzers != nil && s.uploadTTL > 0 {
		if _, err := s.cron.AddFunc(s.schedule, s.cleanupUploads); err != nil {
			return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
		}
	}
	slog.Info("maintenance scheduled", "schedule", s.schedule, "upload_ttl", s.uploadTTL)
	s.cron.Start()
	return nil
}

// Stop stops the cron ticker.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) snapshot() {
	if err := s.store.Save(); err != nil {
		slog.Error("session snapshot failed", "error", err)
	}
}

func (s *Scheduler) cleanupUploads() {
	if n := s.analyzers.CleanupOlderThan(s.uploadTTL); n > 0 {
		slog.Info("expired uploads released", "count", n)
	}
}

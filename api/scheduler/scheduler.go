package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-fir-api/databases"
	"github.com/linesmerrill/police-fir-api/logging"
	"github.com/linesmerrill/police-fir-api/models"
	"github.com/linesmerrill/police-fir-api/performance"
	"github.com/linesmerrill/police-fir-api/scope"
)

const snapshotLock = "daily_performance_snapshot"

// MetricsSink receives the figures of each snapshot run
type MetricsSink interface {
	SetStationGauges(r performance.Report)
	RecordSnapshotRun(outcome string)
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	schedule   string
	CaseDB     databases.CaseDatabase
	StationDB  databases.StationDatabase
	SnapDB     databases.SnapshotDatabase
	LockDB     databases.SchedulerLockDatabase
	Metrics    MetricsSink
	instanceID string
	now        func() time.Time
	log        *zap.SugaredLogger
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	schedule string,
	caseDB databases.CaseDatabase,
	stationDB databases.StationDatabase,
	snapDB databases.SnapshotDatabase,
	lockDB databases.SchedulerLockDatabase,
	metrics MetricsSink,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		schedule:   schedule,
		CaseDB:     caseDB,
		StationDB:  stationDB,
		SnapDB:     snapDB,
		LockDB:     lockDB,
		Metrics:    metrics,
		instanceID: instanceID,
		now:        func() time.Time { return time.Now().UTC() },
		log:        logging.New("scheduler"),
	}
}

// Start registers the snapshot job and begins the scheduler
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.snapshotJob)
	if err != nil {
		return fmt.Errorf("failed to register snapshot job %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.log.Infow("Performance snapshot scheduler started", "schedule", s.schedule, "instance", s.instanceID)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Performance snapshot scheduler stopped")
}

func (s *Scheduler) snapshotJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	outcome := "ok"
	if err := s.RunSnapshot(ctx); err != nil {
		if err == errLockHeld {
			outcome = "skipped"
		} else {
			outcome = "error"
			s.log.Errorw("performance snapshot failed", "error", err)
		}
	}
	if s.Metrics != nil {
		s.Metrics.RecordSnapshotRun(outcome)
	}
}

var errLockHeld = fmt.Errorf("snapshot already running on another instance")

// RunSnapshot aggregates every active case over every active station and
// stores one snapshot per station for today
func (s *Scheduler) RunSnapshot(ctx context.Context) error {
	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, snapshotLock, s.instanceID, 10*time.Minute)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		s.log.Debug("Snapshot job already running on another instance, skipping")
		return errLockHeld
	}
	defer s.LockDB.ReleaseLock(ctx, snapshotLock, s.instanceID)

	now := s.now()
	stations, err := s.StationDB.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stations: %w", err)
	}
	cases, err := s.CaseDB.Find(ctx, databases.CaseQuery(scope.Filter{}))
	if err != nil {
		return fmt.Errorf("failed to load cases: %w", err)
	}

	report := performance.Aggregate(stations, cases, now)
	day := now.Format("2006-01-02")
	for _, m := range report.Stations {
		snap := models.PerformanceSnapshot{
			Day:                   day,
			StationName:           m.StationName,
			TotalCases:            m.TotalCases,
			RegisteredCount:       m.RegisteredCount,
			ChargesheetedCount:    m.ChargesheetedCount,
			FinalizedCount:        m.FinalizedCount,
			OnTimeChargesheeted:   m.OnTimeChargesheeted,
			PerformancePercentage: m.PerformancePercentage,
			CompletionRate:        m.CompletionRate,
			UrgencyHistogram:      m.UrgencyHistogram,
			CreatedAt:             now,
		}
		if err := s.SnapDB.Upsert(ctx, snap); err != nil {
			return fmt.Errorf("failed to store snapshot for %s: %w", m.StationName, err)
		}
	}
	if s.Metrics != nil {
		s.Metrics.SetStationGauges(report)
	}

	s.log.Infow("Performance snapshot complete",
		"day", day,
		"stations", len(report.Stations),
		"cases", report.Summary.TotalCases,
	)
	return nil
}

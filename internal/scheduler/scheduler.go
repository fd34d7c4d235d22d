package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/models"
)

const (
	reportTimeout = 2 * time.Minute
	sweepSchedule = "@every 10m"
)

// Reporter produces and delivers the daily report.
type Reporter interface {
	Run(ctx context.Context) (models.DailyReport, error)
}

// Sweeper drops expired chat sessions.
type Sweeper interface {
	Sweep() int
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	reporter Reporter
	sweeper  Sweeper
	logger   *zap.Logger
}

// NewScheduler creates a scheduler that fires in loc. The sweeper may be nil.
func NewScheduler(schedule string, loc *time.Location, reporter Reporter, sweeper Sweeper, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	// Standard 5-field parser: min, hour, dom, month, dow.
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		reporter: reporter,
		sweeper:  sweeper,
		logger:   logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("daily_report", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.sendDailyReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}
	if s.sweeper != nil {
		if _, err := s.cron.AddFunc(sweepSchedule, s.sweepSessions); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Entries exposes the registered jobs.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) sendDailyReport() {
	s.logger.Info("generating daily report")
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	report, err := s.reporter.Run(ctx)
	if err != nil {
		s.logger.Error("daily report incomplete", zap.String("date", report.Date), zap.Error(err))
		return
	}
	s.logger.Info("daily report delivered", zap.String("date", report.Date))
}

func (s *Scheduler) sweepSessions() {
	if n := s.sweeper.Sweep(); n > 0 {
		s.logger.Debug("expired chat sessions removed", zap.Int("count", n))
	}
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/trendscope/trendscope/internal/config"
	"github.com/trendscope/trendscope/internal/models"
)

// Runner runs one pass over the watchlist
type Runner interface {
	RunWatchlist(ctx context.Context, topics []models.WatchTopic) (*models.Report, error)
}

// Service handles scheduling of watchlist runs
type Service struct {
	config *config.Config
	runner Runner
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, runner Runner) (*Service, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.TimeZone, err)
	}

	return &Service{
		config: cfg,
		runner: runner,
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(location)),
	}, nil
}

func cronExpression(schedule string) string {
	switch schedule {
	case "daily":
		// 9 AM every day
		return "0 0 9 * * *"
	default:
		// 9 AM every Monday
		return "0 0 9 * * MON"
	}
}

// Start begins the scheduled watchlist runs. Runs in progress are cancelled
// when ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	_, err := s.cron.AddFunc(cronExpression(s.config.ReportSchedule), func() {
		logrus.Info("Starting scheduled watchlist run")
		if _, err := s.RunNow(s.ctx); err != nil {
			logrus.Errorf("Scheduled watchlist run failed: %v", err)
		}
	})
	if err != nil {
		s.cancel()
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s schedule for %d watched topics", s.config.ReportSchedule, len(s.config.Watchlist))
	return nil
}

// RunNow runs the configured watchlist immediately.
func (s *Service) RunNow(ctx context.Context) (*models.Report, error) {
	if len(s.config.Watchlist) == 0 {
		logrus.Warn("Watchlist is empty, nothing to analyze")
		return nil, nil
	}
	return s.runner.RunWatchlist(ctx, s.config.Watchlist)
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}

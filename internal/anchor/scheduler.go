package anchor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/worker"
)

// DEFAULT_SCHEDULE runs the anchor of the previous day at 10:00 in the anchor zone
const DEFAULT_SCHEDULE = "0 10 * * *"

// SchedulerConfig holds the configuration of the anchor scheduler
type SchedulerConfig struct {
	// Schedule is a standard five field cron expression evaluated in the anchor zone
	Schedule string
	// BackfillDays is the number of days before yesterday re-attempted at start
	BackfillDays int
	// Location is the zone the schedule is evaluated in
	Location *time.Location
}

type scheduler struct {
	config    SchedulerConfig
	engine    Engine
	cron      *cron.Cron
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewScheduler creates a worker running the daily anchor on its cron schedule
func NewScheduler(config SchedulerConfig, engine Engine) worker.Worker {
	if config.Schedule == "" {
		config.Schedule = DEFAULT_SCHEDULE
	}
	if config.Location == nil {
		config.Location = time.UTC
	}

	cronLog := cronLogger{log: logger.Default().Sugar()}
	return &scheduler{
		config: config,
		engine: engine,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (s *scheduler) Name() string {
	return "daily-anchor"
}

// Start back-fills recent days, then runs the schedule until the context is canceled or Stop is called
func (s *scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%s already running", s.Name())
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	if _, err := s.cron.AddFunc(s.config.Schedule, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid anchor schedule %q: %w", s.config.Schedule, err)
	}

	s.backfill(ctx)

	s.cron.Start()
	logger.InfoCtx(ctx, "Daily anchor scheduler started", zap.String("schedule", s.config.Schedule))

	select {
	case <-ctx.Done():
	case <-s.stopChan:
	}

	// Wait for a running anchor to finish
	<-s.cron.Stop().Done()
	logger.InfoCtx(ctx, "Daily anchor scheduler stopped")

	return nil
}

func (s *scheduler) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil
	}

	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}

	select {
	case <-s.stoppedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runOnce anchors yesterday
func (s *scheduler) runOnce(ctx context.Context) {
	if _, err := s.engine.CreateDailyAnchor(ctx, s.engine.Yesterday()); err != nil {
		logger.ErrorCtx(ctx, err)
	}
}

// backfill anchors the last BackfillDays days before yesterday and yesterday itself, oldest first.
// Days already anchored report exists and are left untouched.
func (s *scheduler) backfill(ctx context.Context) {
	if s.config.BackfillDays <= 0 {
		return
	}

	yesterday := s.engine.Yesterday()
	for offset := s.config.BackfillDays; offset >= 0; offset-- {
		if ctx.Err() != nil {
			return
		}
		day := yesterday.AddDate(0, 0, -offset)
		if _, err := s.engine.CreateDailyAnchor(ctx, day); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("anchor_date", day.Format(DATE_LAYOUT)))
		}
	}
}

// cronLogger routes cron's own logs to zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-forecast/internal/forecast"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is the part of the weather service the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context, cities []string, units forecast.Units) error
}

// Scheduler keeps the weather cache warm for a fixed list of cities.
type Scheduler struct {
	refresher Refresher
	logger    *zap.Logger
	cron      *cron.Cron
	schedule  string
	units     forecast.Units
	timeout   time.Duration

	wg sync.WaitGroup

	mu      sync.Mutex
	cities  []string
	entryID cron.EntryID
	running bool
	lastRun time.Time
	lastErr error
}

func NewScheduler(refresher Refresher, cities []string, schedule string, units forecast.Units, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		refresher: refresher,
		logger:    logger,
		schedule:  schedule,
		units:     units,
		cities:    cities,
		timeout:   60 * time.Second,
	}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))
	return s
}

// Start registers the refresh job, runs it once right away and starts the
// cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	id, err := s.cron.AddFunc(s.schedule, s.runRefresh)
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.schedule, err)
	}
	s.entryID = id
	s.running = true

	// Run immediately on start
	s.runAsync()

	s.cron.Start()

	s.logger.Info("Scheduler started",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.cron.Entry(id).Next))
	return nil
}

func (s *Scheduler) runRefresh() {
	s.mu.Lock()
	cities := append([]string(nil), s.cities...)
	s.mu.Unlock()

	if len(cities) == 0 {
		s.logger.Debug("No cities configured, skipping refresh")
		return
	}

	startTime := time.Now()
	s.logger.Info("Starting scheduled weather refresh",
		zap.Strings("cities", cities))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.refresher.Refresh(ctx, cities, s.units)

	s.mu.Lock()
	s.lastRun = startTime
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled weather refresh failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
		return
	}
	s.logger.Info("Scheduled weather refresh completed",
		zap.Duration("duration", time.Since(startTime)))
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering weather refresh")
	s.runAsync()
}

func (s *Scheduler) runAsync() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runRefresh()
	}()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"schedule": s.schedule,
		"last_run": s.lastRun,
		"cities":   s.cities,
		"units":    s.units,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	if s.lastErr != nil {
		status["last_error"] = s.lastErr.Error()
	}
	return status
}

func (s *Scheduler) Cities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cities...)
}

func (s *Scheduler) UpdateCities(cities []string) {
	s.mu.Lock()
	s.cities = cities
	s.mu.Unlock()

	s.logger.Info("Scheduler cities updated", zap.Strings("cities", cities))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

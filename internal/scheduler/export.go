package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/deardayone/internal/logger"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ExportFunc performs one export run.
type ExportFunc func(ctx context.Context) error

// ValidateSchedule checks a five-field cron expression or a descriptor such
// as "@hourly" or "@every 30m".
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// NextRunTime calculates when a schedule fires next after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return sched.Next(from), nil
}

// ExportScheduler runs exports periodically. A tick that fires while the
// previous export is still running is skipped, so runs never overlap.
type ExportScheduler struct {
	schedule string
	export   ExportFunc

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	runCtx     context.Context
	cancelFunc context.CancelFunc
}

// NewExportScheduler creates a new scheduler instance
func NewExportScheduler(schedule string, export ExportFunc) *ExportScheduler {
	return &ExportScheduler{
		schedule: schedule,
		export:   export,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
}

// Start schedules the export job. The scheduler stops when ctx is cancelled
// or Stop is called.
func (s *ExportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runExport)
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}
	s.entryID = entryID

	s.runCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	logger.Info("Export scheduler started", logger.Fields{"schedule": s.schedule})

	go func(done <-chan struct{}) {
		<-done
		s.Stop()
	}(s.runCtx.Done())

	return nil
}

// Stop cancels an export in progress and waits for it to finish.
func (s *ExportScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.cancelFunc()
	s.isRunning = false
	s.cancelFunc = nil
	entryID := s.entryID
	s.mu.Unlock()

	// Wait outside the lock; the running job reads runCtx under it.
	<-s.cron.Stop().Done()
	s.cron.Remove(entryID)

	logger.Info("Export scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *ExportScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next export will start, or nil when stopped.
func (s *ExportScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

// RunNow performs an export immediately on the caller's goroutine.
func (s *ExportScheduler) RunNow(ctx context.Context) error {
	return s.export(ctx)
}

func (s *ExportScheduler) runExport() {
	s.mu.RLock()
	ctx := s.runCtx
	s.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	start := time.Now()
	logger.Info("Scheduled export starting")

	if err := s.export(ctx); err != nil {
		logger.Error("Scheduled export failed", err)
		return
	}
	logger.Info("Scheduled export finished", logger.Fields{"duration": time.Since(start).Round(time.Millisecond).String()})
}

package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Dispatcher starts a run of the named pipeline, either inline or by
// enqueueing a task.
type Dispatcher func(ctx context.Context, pipeline string) error

// Config controls periodic regeneration.
type Config struct {
	Enabled  bool
	Schedule string
	// Pipelines returns the pipelines to regenerate on each tick.
	Pipelines func() []string
	// Cleanup runs after the pipelines were dispatched; optional.
	Cleanup func(ctx context.Context) error
}

// RegenerationScheduler periodically regenerates the collections of every
// pipeline with a configured source.
type RegenerationScheduler struct {
	config   Config
	dispatch Dispatcher

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc

	// tick replaces the cron schedule with a fixed interval when set.
	tick time.Duration

	runMu   sync.Mutex
	lastRun time.Time
}

// NewRegenerationScheduler creates a new scheduler instance
func NewRegenerationScheduler(cfg Config, dispatch Dispatcher) *RegenerationScheduler {
	return &RegenerationScheduler{
		config:   cfg,
		dispatch: dispatch,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start begins the scheduler if regeneration is enabled
func (s *RegenerationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Regeneration scheduler: disabled")
		return nil
	}

	if err := ValidateSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	sched, err := parser.Parse(s.config.Schedule)
	if err != nil {
		return fmt.Errorf("failed to schedule regeneration job: %w", err)
	}
	if s.tick > 0 {
		sched = cron.Every(s.tick)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.entryID = s.cron.Schedule(sched, cron.FuncJob(func() {
		s.runAll(runCtx)
	}))
	s.cancelFunc = cancel

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.config.Schedule)
	log.Printf("Regeneration scheduler: started with schedule '%s'. Next run: %v", s.config.Schedule, nextRun)

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop cancels a running tick and waits for it to return.
func (s *RegenerationScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	done := s.cron.Stop()
	s.cron.Remove(s.entryID)
	s.isRunning = false
	s.cancelFunc = nil
	s.mu.Unlock()

	<-done.Done()
	log.Printf("Regeneration scheduler: stopped")
}

// RunNow triggers an immediate regeneration of every pipeline and waits for
// the dispatches to return.
func (s *RegenerationScheduler) RunNow(ctx context.Context) {
	s.runAll(ctx)
}

// IsRunning returns whether the scheduler is active
func (s *RegenerationScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LastRun returns when the last tick started; zero before the first one.
func (s *RegenerationScheduler) LastRun() time.Time {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.lastRun
}

// GetNextRunTime returns when the next regeneration will occur
func (s *RegenerationScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *RegenerationScheduler) runAll(ctx context.Context) {
	s.runMu.Lock()
	s.lastRun = time.Now()
	s.runMu.Unlock()

	var pipelines []string
	if s.config.Pipelines != nil {
		pipelines = s.config.Pipelines()
	}
	if len(pipelines) == 0 {
		log.Printf("Regeneration: no pipelines with a source, skipping")
	}

	failed := 0
	for _, name := range pipelines {
		if err := s.dispatch(ctx, name); err != nil {
			failed++
			log.Printf("Regeneration: %s failed: %v", name, err)
		}
	}
	if len(pipelines) > 0 {
		log.Printf("Regeneration: dispatched %d pipelines, %d failed", len(pipelines), failed)
	}

	if s.config.Cleanup != nil {
		if err := s.config.Cleanup(ctx); err != nil {
			log.Printf("Regeneration: cleanup failed: %v", err)
		}
	}
}

// ValidateSchedule checks a 5-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRunTime calculates when a schedule fires next.
func NextRunTime(schedule string) (*time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}

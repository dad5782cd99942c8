package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
)

// TaskEnqueuer hands tasks to the maintenance queue.
type TaskEnqueuer interface {
	Enqueue(tasks ...backlite.Task) ([]string, error)
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// MaintenanceScheduler periodically enqueues the maintenance tasks.
type MaintenanceScheduler struct {
	queue    TaskEnqueuer
	schedule string
	tasks    []func() backlite.Task

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	lastRunAt  *time.Time
	lastErr    error
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a scheduler that enqueues one task from
// each factory on every tick of schedule.
func NewMaintenanceScheduler(queue TaskEnqueuer, schedule string, tasks ...func() backlite.Task) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		queue:    queue,
		schedule: schedule,
		tasks:    tasks,
		cron:     cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start begins the scheduler. An empty schedule disables it.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		log.Printf("[TASK] Maintenance scheduler: no schedule configured, skipping")
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		_ = s.RunNow()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.schedule, time.Now())
	log.Printf("[TASK] Maintenance scheduler: started with schedule '%s' (%s). Next run: %v",
		s.schedule, CronDescription(s.schedule), nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("[TASK] Maintenance scheduler: stopped")
}

// RunNow enqueues every maintenance task right away.
func (s *MaintenanceScheduler) RunNow() error {
	batch := make([]backlite.Task, 0, len(s.tasks))
	for _, newTask := range s.tasks {
		batch = append(batch, newTask())
	}

	ids, err := s.queue.Enqueue(batch...)

	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		log.Printf("[TASK] Maintenance scheduler: failed to enqueue tasks: %v", err)
		return fmt.Errorf("enqueue maintenance tasks: %w", err)
	}

	log.Printf("[TASK] Maintenance scheduler: enqueued %d tasks %v", len(ids), ids)
	return nil
}

// IsRunning returns whether the scheduler is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Schedule returns the configured cron expression.
func (s *MaintenanceScheduler) Schedule() string {
	return s.schedule
}

// LastRun returns when tasks were last enqueued and the resulting error.
func (s *MaintenanceScheduler) LastRun() (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRunAt, s.lastErr
}

// GetNextRunTime returns when the next run will occur.
func (s *MaintenanceScheduler) GetNextRunTime() *time.Time {
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

// ValidateCronSchedule checks a standard five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := scheduleParser.Parse(schedule)
	return err
}

// CronDescription returns a human-readable description of a cron schedule.
func CronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 3 * * *":
		return "Daily at 03:00"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// NextRunTime calculates the first run of schedule after from.
func NextRunTime(schedule string, from time.Time) (*time.Time, error) {
	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(from)
	return &next, nil
}

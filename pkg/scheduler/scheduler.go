package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"face-attendance/pkg/logger"
)

// JobScheduler runs recurring maintenance jobs on cron schedules.
type JobScheduler interface {
	Start()
	Stop()
	AddJob(id, cronExpr string, task func()) error
	RemoveJob(id string) error
	GetJob(id string) (*JobInfo, bool)
	IsRunning() bool
}

type JobInfo struct {
	ID       string
	CronExpr string
	LastRun  *time.Time
	NextRun  *time.Time
}

type GocronScheduler struct {
	scheduler *gocron.Scheduler
	jobs      map[string]*jobEntry
	mu        sync.RWMutex
	running   bool
}

type jobEntry struct {
	id       string
	cronExpr string
	job      *gocron.Job
	lastRun  *time.Time
}

func NewJobScheduler() JobScheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &GocronScheduler{
		scheduler: s,
		jobs:      make(map[string]*jobEntry),
	}
}

func (s *GocronScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		logger.SchedulerWarn("start", "Scheduler is already running", nil)
		return
	}

	s.scheduler.StartAsync()
	s.running = true
	logger.Scheduler("started", "Job scheduler started", nil)
}

func (s *GocronScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		logger.SchedulerWarn("stop", "Scheduler is not running", nil)
		return
	}

	s.scheduler.Stop()
	s.running = false
	logger.Scheduler("stopped", "Job scheduler stopped", nil)
}

func (s *GocronScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *GocronScheduler) AddJob(id, cronExpr string, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job with ID %s already exists", id)
	}

	job, err := s.scheduler.Cron(cronExpr).Do(func() {
		now := time.Now()
		logger.Scheduler("job_executing", "Executing job", map[string]interface{}{"job_id": id, "time": now.Format(time.RFC3339)})

		s.mu.Lock()
		if entry, exists := s.jobs[id]; exists {
			entry.lastRun = &now
		}
		s.mu.Unlock()

		task()
	})
	if err != nil {
		return fmt.Errorf("failed to create job: %v", err)
	}

	s.jobs[id] = &jobEntry{
		id:       id,
		cronExpr: cronExpr,
		job:      job,
	}

	nextRun := job.NextRun()
	logger.Scheduler("job_added", "Job added", map[string]interface{}{"job_id": id, "cron_expr": cronExpr, "next_run": nextRun.Format(time.RFC3339)})
	return nil
}

func (s *GocronScheduler) RemoveJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job with ID %s not found", id)
	}

	if entry.job != nil {
		s.scheduler.RemoveByReference(entry.job)
	}

	delete(s.jobs, id)
	logger.Scheduler("job_removed", "Job removed", map[string]interface{}{"job_id": id})
	return nil
}

func (s *GocronScheduler) GetJob(id string) (*JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.jobs[id]
	if !exists {
		return nil, false
	}

	info := &JobInfo{
		ID:       entry.id,
		CronExpr: entry.cronExpr,
	}
	if entry.lastRun != nil {
		lastRun := *entry.lastRun
		info.LastRun = &lastRun
	}
	if entry.job != nil {
		nextRun := entry.job.NextRun()
		info.NextRun = &nextRun
	}
	return info, true
}

// ValidateCronExpression checks a cron string without scheduling anything.
func ValidateCronExpression(cronExpr string) error {
	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Cron(cronExpr).Do(func() {}); err != nil {
		return fmt.Errorf("invalid cron expression: %v", err)
	}
	return nil
}

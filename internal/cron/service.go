package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a recurring task registered with a standard five-field cron spec.
type Job struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Spec       string    `json:"spec"`
	LastRunAt  time.Time `json:"lastRunAt,omitempty"`
	LastStatus string    `json:"lastStatus,omitempty"`
	LastError  string    `json:"lastError,omitempty"`
}

// Scheduler runs recurring jobs through robfig/cron and calls OnTick at a
// fixed interval so one-shot work (due reminders) can be polled.
type Scheduler struct {
	mu       sync.Mutex
	jobs     []Job
	OnJob    func(job Job) (string, error)
	OnTick   func(now time.Time)
	cron     *rcron.Cron
	entryMap map[string]rcron.EntryID
	interval time.Duration
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

type Option func(*Scheduler)

// WithInterval sets how often OnTick fires. Defaults to one second.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		entryMap: make(map[string]rcron.EntryID),
		interval: time.Second,
		location: time.Local,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("cron")
	return s
}

// Start registers pending jobs and begins ticking. It stops when ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.cron = rcron.New(rcron.WithLocation(s.location))
	for i := range s.jobs {
		s.registerJob(s.jobs[i])
	}
	s.cron.Start()
	jobCount := len(s.jobs)
	done := s.done
	s.mu.Unlock()

	s.logger.Info("scheduler started", zap.Int("jobs", jobCount), zap.Duration("interval", s.interval))

	go func() {
		defer close(done)
		s.tickLoop(runCtx)
	}()
	return nil
}

// registerJob must be called with mu held.
func (s *Scheduler) registerJob(job Job) {
	id, err := s.cron.AddFunc(job.Spec, func() {
		s.executeJob(job)
	})
	if err != nil {
		s.logger.Warn("failed to register job", zap.String("name", job.Name), zap.String("spec", job.Spec), zap.Error(err))
		return
	}
	s.entryMap[job.ID] = id
}

func (s *Scheduler) executeJob(job Job) {
	s.logger.Debug("executing job", zap.String("name", job.Name), zap.String("id", job.ID))
	if s.OnJob == nil {
		s.logger.Warn("no OnJob handler set")
		return
	}

	result, err := s.OnJob(job)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jobs {
		if s.jobs[i].ID != job.ID {
			continue
		}
		s.jobs[i].LastRunAt = s.now()
		if err != nil {
			s.jobs[i].LastStatus = "error"
			s.jobs[i].LastError = err.Error()
			s.logger.Warn("job failed", zap.String("name", job.Name), zap.Error(err))
		} else {
			s.jobs[i].LastStatus = "ok"
			s.jobs[i].LastError = ""
			s.logger.Debug("job finished", zap.String("name", job.Name), zap.String("result", truncate(result, 100)))
		}
		break
	}
}

func (s *Scheduler) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.OnTick != nil {
				s.OnTick(s.now())
			}
		case <-ctx.Done():
			return
		}
	}
}

// Stop halts ticking and waits for running cron jobs. Safe to call more
// than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	c := s.cron
	s.cancel = nil
	s.done = nil
	s.cron = nil
	s.entryMap = make(map[string]rcron.EntryID)
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.logger.Warn("stop timeout waiting for running jobs")
	}
	s.logger.Info("scheduler stopped")
}

// AddJob validates spec and registers a recurring job.
func (s *Scheduler) AddJob(name, spec string) (Job, error) {
	if _, err := rcron.ParseStandard(spec); err != nil {
		return Job{}, fmt.Errorf("parse spec %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job := Job{ID: uuid.NewString(), Name: name, Spec: spec}
	s.jobs = append(s.jobs, job)
	if s.cron != nil {
		s.registerJob(job)
	}
	return job, nil
}

func (s *Scheduler) RemoveJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, job := range s.jobs {
		if job.ID != id {
			continue
		}
		if entryID, ok := s.entryMap[id]; ok && s.cron != nil {
			s.cron.Remove(entryID)
			delete(s.entryMap, id)
		}
		s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
		return true
	}
	return false
}

func (s *Scheduler) ListJobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Job, len(s.jobs))
	copy(result, s.jobs)
	return result
}

// NextRun reports when the job with id fires next, if the scheduler is running.
func (s *Scheduler) NextRun(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entryID, ok := s.entryMap[id]
	if !ok || s.cron == nil {
		return time.Time{}, false
	}
	return s.cron.Entry(entryID).Next, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

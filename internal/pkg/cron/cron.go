package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus is the outcome of a job's latest run.
type JobStatus string

const (
	StatusIdle    JobStatus = "idle"
	StatusRunning JobStatus = "running"
	StatusFulfill JobStatus = "fulfill"
	StatusReject  JobStatus = "reject"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrInvalidJob  = errors.New("invalid job")
)

// Job is a background task run every Interval.
type Job struct {
	Name        string
	Description string
	Interval    time.Duration
	Fn          func(ctx context.Context) error
}

type jobState struct {
	Job
	mu        sync.Mutex
	status    JobStatus
	message   string
	runs      int
	lastRunAt *time.Time
	nextRunAt time.Time
}

// ListItem is the API view of a job.
type ListItem struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Interval    string     `json:"interval"`
	Status      JobStatus  `json:"status"`
	Runs        int        `json:"runs"`
	NextDate    *time.Time `json:"nextDate"`
	LastRunAt   *time.Time `json:"lastRunAt,omitempty"`
}

// TaskResult is a job's latest outcome.
type TaskResult struct {
	Status  JobStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}

type Option func(*Scheduler)

func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// Scheduler runs named interval jobs.
type Scheduler struct {
	mu   sync.RWMutex
	jobs map[string]*jobState
	log  *zap.Logger
	now  func() time.Time
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs: make(map[string]*jobState),
		log:  zap.NewNop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job. Call before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Fn == nil || job.Interval <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidJob, job.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("%w: %q registered twice", ErrInvalidJob, job.Name)
	}
	s.jobs[job.Name] = &jobState{
		Job:       job,
		status:    StatusIdle,
		nextRunAt: s.now().Add(job.Interval),
	}
	return nil
}

// Start launches every registered job. Loops end with ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, js := range s.jobs {
		go s.runLoop(ctx, js)
	}
}

func (s *Scheduler) runLoop(ctx context.Context, js *jobState) {
	for {
		js.mu.Lock()
		wait := js.nextRunAt.Sub(s.now())
		js.mu.Unlock()
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.execute(ctx, js)
			js.mu.Lock()
			js.nextRunAt = s.now().Add(js.Interval)
			js.mu.Unlock()
		}
	}
}

// execute runs js unless a run is already in flight.
func (s *Scheduler) execute(ctx context.Context, js *jobState) {
	js.mu.Lock()
	if js.status == StatusRunning {
		js.mu.Unlock()
		return
	}
	js.status = StatusRunning
	js.mu.Unlock()

	started := s.now()
	err := js.Fn(ctx)

	js.mu.Lock()
	js.lastRunAt = &started
	js.runs++
	if err != nil {
		js.status = StatusReject
		js.message = err.Error()
	} else {
		js.status = StatusFulfill
		js.message = ""
	}
	js.mu.Unlock()

	if err != nil {
		s.log.Warn("cron job failed", zap.String("job", js.Name), zap.Error(err))
		return
	}
	s.log.Debug("cron job done", zap.String("job", js.Name), zap.Duration("took", s.now().Sub(started)))
}

// Run triggers a job now without waiting for it.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	js, err := s.lookup(name)
	if err != nil {
		return err
	}
	go s.execute(context.WithoutCancel(ctx), js)
	return nil
}

// RunSync triggers a job and waits for it.
func (s *Scheduler) RunSync(ctx context.Context, name string) (*TaskResult, error) {
	js, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	s.execute(ctx, js)
	return s.GetTask(name)
}

func (s *Scheduler) GetTask(name string) (*TaskResult, error) {
	js, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	return &TaskResult{Status: js.status, Message: js.message}, nil
}

// List returns all jobs ordered by name.
func (s *Scheduler) List() []ListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ListItem, 0, len(s.jobs))
	for _, js := range s.jobs {
		js.mu.Lock()
		next := js.nextRunAt
		items = append(items, ListItem{
			Name:        js.Name,
			Description: js.Description,
			Interval:    js.Interval.String(),
			Status:      js.status,
			Runs:        js.runs,
			NextDate:    &next,
			LastRunAt:   js.lastRunAt,
		})
		js.mu.Unlock()
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func (s *Scheduler) lookup(name string) (*jobState, error) {
	s.mu.RLock()
	js, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrJobNotFound, name)
	}
	return js, nil
}

// Package scheduler runs background maintenance jobs on cron schedules.
package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobStatus is the last outcome of a registered job
type JobStatus struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	LastRun  time.Time `json:"last_run,omitempty"`
	LastErr  string    `json:"last_error,omitempty"`
	NextRun  time.Time `json:"next_run,omitempty"`
	Runs     int       `json:"runs"`

	entry cron.EntryID
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*JobStatus
}

// New creates a new scheduler. Schedules have a leading seconds field.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
		jobs: make(map[string]*JobStatus),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule, e.g.:
//   - "0 0 6 * * *"   - 06:00 every day
//   - "0 */15 * * * *" - every 15 minutes
//   - "@every 30s"
func (s *Scheduler) AddJob(schedule string, job Job) error {
	if setter, ok := job.(loggerSetter); ok {
		setter.SetLogger(s.log.With().Str("job", job.Name()).Logger())
	}

	id, err := s.cron.AddFunc(schedule, func() {
		_ = s.run(job)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.jobs[job.Name()] = &JobStatus{Name: job.Name(), Schedule: schedule, entry: id}
	s.mu.Unlock()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	s.log.Debug().Str("job", job.Name()).Msg("Running job")

	started := time.Now()
	err := job.Run()
	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Msg("Job failed")
	} else {
		s.log.Debug().Str("job", job.Name()).Dur("duration", time.Since(started)).Msg("Job completed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.jobs[job.Name()]; ok {
		st.Runs++
		st.LastRun = started
		st.LastErr = ""
		if err != nil {
			st.LastErr = err.Error()
		}
	}
	return err
}

// Status lists the registered jobs with their last outcome
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, st := range s.jobs {
		status := *st
		status.NextRun = s.cron.Entry(st.entry).Next
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

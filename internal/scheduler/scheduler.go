// Package scheduler runs the server's periodic maintenance: daily portfolio
// snapshots, API key expiry and price history retention.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one maintenance task. Name identifies it in logs and must be
// unique per scheduler, since overlapping firings are detected by name.
type Job interface {
	Run() error
	Name() string
}

// Scheduler fires Jobs on cron expressions and never runs two copies of
// the same job at once.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// New returns a stopped Scheduler. Expressions take five fields, an optional
// leading seconds field, or a descriptor such as "@daily".
func New(log zerolog.Logger) *Scheduler {
	parser := cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	return &Scheduler{
		cron:     cron.New(cron.WithParser(parser)),
		log:      log.With().Str("component", "scheduler").Logger(),
		inFlight: make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Maintenance jobs armed")
}

// Stop blocks until any job already running has returned
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Maintenance jobs drained")
}

// AddJob arms job on schedule, e.g. "0 5 0 * * *" for the nightly snapshot
// at 00:05:00 or "@every 1h" for key expiry.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.fire(job) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Maintenance job armed")
	return nil
}

// RunNow runs job on the caller's goroutine and returns its error
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Manual run")
	return job.Run()
}

func (s *Scheduler) fire(job Job) {
	name := job.Name()

	s.mu.Lock()
	if s.inFlight[name] {
		s.mu.Unlock()
		s.log.Warn().Str("job", name).Msg("Skipping firing, last run has not finished")
		return
	}
	s.inFlight[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, name)
		s.mu.Unlock()
	}()

	if err := job.Run(); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("Maintenance job failed")
		return
	}
	s.log.Debug().Str("job", name).Msg("Maintenance job finished")
}

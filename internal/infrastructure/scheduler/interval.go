package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"dealscout/internal/ports"
)

// Interval drives the pipeline on a fixed period via a cron runner.
type Interval struct {
	every  time.Duration
	runner *cron.Cron
}

var _ ports.Scheduler = (*Interval)(nil)

// NewInterval builds a scheduler firing every `every`; defaults to 5 minutes.
func NewInterval(every time.Duration) *Interval {
	if every <= 0 {
		every = 5 * time.Minute
	}
	return &Interval{every: every}
}

// Start registers the job and begins ticking. The job shares the exact same
// code path as the admin manual trigger; overlap protection lives in the
// pipeline, not here.
func (s *Interval) Start(_ context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if s.runner != nil {
		return nil
	}

	s.runner = cron.New()
	spec := fmt.Sprintf("@every %s", s.every)
	if _, err := s.runner.AddFunc(spec, func() { job(time.Now()) }); err != nil {
		s.runner = nil
		return fmt.Errorf("register %s job: %w", spec, err)
	}
	s.runner.Start()
	return nil
}

// Stop halts the ticker, waiting for an in-flight job up to the context
// deadline.
func (s *Interval) Stop(ctx context.Context) error {
	if s.runner == nil {
		return nil
	}
	stopped := s.runner.Stop()
	s.runner = nil

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

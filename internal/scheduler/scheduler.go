package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"waz-calendar/internal/observability"
)

// Scheduler runs background jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	jobs   []string
}

// New creates a scheduler evaluating schedules in loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers run under spec, e.g. "@every 1m" or "*/5 * * * *".
func (s *Scheduler) Add(name, spec string, run func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		err := run(s.ctx)
		observability.IncJobRun(name, err)
		if err != nil {
			log.Printf("job %s failed after %s: %v", name, time.Since(started), err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.jobs = append(s.jobs, name)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("scheduler started jobs=%v", s.jobs)
}

// Stop waits for running jobs and cancels their context.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cancel()
	log.Printf("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

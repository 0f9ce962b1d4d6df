package scheduler

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Job is one periodic unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a job on a fixed interval.
type Scheduler struct {
	name     string
	job      Job
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
	log      *log.Entry
}

func New(name string, job Job, interval time.Duration) *Scheduler {
	return &Scheduler{
		name:     name,
		job:      job,
		interval: interval,
		stop:     make(chan struct{}),
		log:      log.WithFields(log.Fields{"component": "scheduler", "job": name}),
	}
}

// Start runs the job every interval. Blocks until Stop is called or ctx
// is done.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.WithField("interval", s.interval).Info("scheduler started")

	for {
		select {
		case <-ticker.C:
			s.log.Debug("triggering run")
			if err := s.job(ctx); err != nil {
				s.log.WithError(err).Error("run failed")
			}
		case <-s.stop:
			s.log.Info("scheduler stopped")
			return
		case <-ctx.Done():
			s.log.Info("scheduler context cancelled")
			return
		}
	}
}

// Stop signals the scheduler to stop. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
}

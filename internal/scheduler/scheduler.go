// Package scheduler triggers pipeline runs on a cron schedule, one run
// at a time.
package scheduler

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler wraps a cron instance and guards against overlapping runs.
type Scheduler struct {
	cron     *cron.Cron
	logger   *zap.Logger
	inFlight atomic.Bool
}

// New creates a Scheduler in the given timezone.
func New(timezone string, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}, nil
}

// Schedule registers fn under the given cron spec. A trigger that fires
// while a previous run is still in flight is skipped: the pipeline
// assumes exactly one concurrent execution.
func (s *Scheduler) Schedule(spec string, fn func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		if !s.inFlight.CompareAndSwap(false, true) {
			s.logger.Warn("previous run still in flight, skipping trigger")
			return
		}
		defer s.inFlight.Store(false)
		fn()
	})
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", spec, err)
	}
	return nil
}

// Start begins firing triggers.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

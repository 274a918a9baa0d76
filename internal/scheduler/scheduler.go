// Package scheduler drives the two polling cadences: a slow connectivity
// check and a fast metrics extraction, interleaved on a single loop.
package scheduler

import (
	"context"
	"time"

	"github.com/Shih-Wei-Lin/Server-Monitor-System/internal/logger"
)

// Job is one polling cycle. Errors are logged and the cadence continues; a
// failed cycle is retried naturally by the next tick.
type Job func(ctx context.Context) error

// Scheduler interleaves the check and extract jobs. The extract job runs
// every tick; the check job runs when its countdown, decremented by one
// extract interval per tick, reaches zero. The countdown is logical, so
// extract overruns stretch wall-clock check spacing rather than dropping
// ticks.
type Scheduler struct {
	checkEvery   time.Duration
	extractEvery time.Duration
	check        Job
	extract      Job
	log          logger.Logger

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

// New builds a scheduler. A non-positive checkEvery disables the check job;
// a non-positive extractEvery disables the extract job and the loop becomes
// a plain fixed-interval check loop.
func New(checkEvery, extractEvery time.Duration, check, extract Job, log logger.Logger) *Scheduler {
	return &Scheduler{
		checkEvery:   checkEvery,
		extractEvery: extractEvery,
		check:        check,
		extract:      extract,
		log:          log,
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, reporting whether the
// full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run drives the loop until ctx is cancelled. The first check fires
// immediately. Cancellation is honored between cycles, never mid-job: a
// job that has started gets to finish and persist its results.
func (s *Scheduler) Run(ctx context.Context) {
	if s.extractEvery <= 0 {
		s.runCheckOnly(ctx)
		return
	}

	countdown := time.Duration(0)
	for {
		if ctx.Err() != nil {
			return
		}

		if s.checkEvery > 0 && countdown <= 0 {
			s.runJob(ctx, "check", s.check)
			countdown = s.checkEvery
		}

		start := s.now()
		s.runJob(ctx, "extract", s.extract)
		elapsed := s.now().Sub(start)

		// Sleep only the remainder of the interval so a slow extract does
		// not push every subsequent tick later.
		if !s.sleep(ctx, s.extractEvery-elapsed) {
			return
		}
		countdown -= s.extractEvery
	}
}

func (s *Scheduler) runCheckOnly(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		s.runJob(ctx, "check", s.check)
		if !s.sleep(ctx, s.checkEvery) {
			return
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, name string, job Job) {
	if job == nil {
		return
	}
	start := s.now()
	if err := job(ctx); err != nil {
		s.log.Error("[scheduler] %s cycle failed: %v", name, err)
		return
	}
	s.log.Debug("[scheduler] %s cycle finished in %s", name, s.now().Sub(start).Round(time.Millisecond))
}

// Package scheduler owns the recurring execution model: one immediate run on
// start, then a daily trigger in a fixed timezone. Runs never overlap; a
// trigger firing while a run is still going is skipped, not queued.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron *cron.Cron
	job  func()
}

// New builds a scheduler for spec (standard 5-field cron) in the named
// timezone.
func New(spec, timezone string, job func()) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	s := &Scheduler{cron: c, job: job}
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, err
	}

	return s, nil
}

// Run performs the initial pass, starts the trigger loop and blocks until
// ctx is cancelled. An in-flight run is allowed to finish before return.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started, running initial aggregation")
	s.job()

	s.cron.Start()
	<-ctx.Done()

	slog.Info("scheduler stopping")
	<-s.cron.Stop().Done()
}

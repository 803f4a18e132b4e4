package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tm-robinson/wallabag-tools/internal/logger"
)

// stopGrace bounds how long shutdown waits for a running pass to finish
// after its context is already cancelled.
const stopGrace = 30 * time.Second

// Daemon runs the janitor on a cron schedule until stopped.
type Daemon struct {
	janitor  *Janitor
	schedule cron.Schedule
	spec     string
	log      logger.Logger
}

// NewDaemon wraps a janitor with a standard five-field cron schedule.
func NewDaemon(janitor *Janitor, spec string, log logger.Logger) (*Daemon, error) {
	if janitor == nil {
		return nil, fmt.Errorf("janitor must not be nil")
	}
	if log == nil {
		log = logger.NopLogger()
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("schedule must not be empty")
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Daemon{janitor: janitor, schedule: schedule, spec: spec, log: log}, nil
}

// Run executes one pass immediately, then follows the schedule until the
// context is cancelled. The jobs converge on an already-maintained
// collection, so the startup pass is safe right after a scheduled one.
func (d *Daemon) Run(ctx context.Context) error {
	if d == nil || d.janitor == nil {
		return fmt.Errorf("daemon is not initialized")
	}
	defer d.janitor.Close()

	d.log.Infow("daemon starting", "schedule", d.spec, "jobs", len(d.janitor.jobs))

	if err := d.janitor.RunOnce(ctx); err != nil {
		d.log.Errorw("startup run failed", "error", err)
	}

	c := cron.New()
	c.Schedule(d.schedule, cron.FuncJob(func() {
		if err := d.janitor.RunOnce(ctx); err != nil {
			d.log.Errorw("scheduled run failed", "error", err)
		}
	}))
	c.Start()
	d.log.Infow("daemon started", "next_run", d.schedule.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	d.log.Infow("daemon stopping", "reason", ctx.Err())

	stopped := c.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(stopGrace):
		d.log.Warnw("gave up waiting for a running pass to finish")
	}
	return nil
}

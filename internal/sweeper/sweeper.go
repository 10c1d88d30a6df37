// Package sweeper periodically drops expired move effects and status
// effects from engine memory.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Compactor removes expired per-character entries and returns how many it dropped.
type Compactor interface {
	CompactExpired() int
}

// Sweeper runs registered compactors on a cron schedule.
type Sweeper struct {
	schedule string
	targets  []target
}

type target struct {
	name string
	c    Compactor
}

// New creates a Sweeper for schedule, a standard cron expression or a
// descriptor such as "@every 1m".
func New(schedule string) *Sweeper {
	return &Sweeper{schedule: schedule}
}

// Add registers a compactor under name.
func (s *Sweeper) Add(name string, c Compactor) {
	s.targets = append(s.targets, target{name: name, c: c})
}

// Sweep runs every compactor once and returns the total entries removed.
func (s *Sweeper) Sweep() int {
	total := 0
	for _, t := range s.targets {
		n := t.c.CompactExpired()
		if n > 0 {
			slog.Debug("expired entries compacted", "engine", t.name, "removed", n)
		}
		total += n
	}
	return total
}

// Run schedules Sweep and blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep() }); err != nil {
		return fmt.Errorf("scheduling sweeper %q: %w", s.schedule, err)
	}

	c.Start()
	slog.Info("sweeper started", "schedule", s.schedule, "engines", len(s.targets))

	<-ctx.Done()

	// Wait for a running sweep to finish.
	<-c.Stop().Done()
	slog.Info("sweeper stopped")
	return nil
}

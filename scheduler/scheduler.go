// Package scheduler runs the aggregation pipeline on a cron cadence.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron-based pipeline runs. Jobs are serialized: a tick
// that fires while the previous run is still going is skipped, so two runs
// never touch the novelty state concurrently.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location

	mu      sync.Mutex
	entryID cron.EntryID
	running bool
}

// New creates a Scheduler in the given timezone.
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		location: loc,
	}, nil
}

// Schedule registers the task under the given cron expression. A previous
// schedule, if any, is replaced.
func (s *Scheduler) Schedule(expr string, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	entryID, err := s.cron.AddFunc(expr, func() { s.runExclusive(task) })
	if err != nil {
		return fmt.Errorf("adding cron entry %q: %w", expr, err)
	}

	s.entryID = entryID
	slog.Info("pipeline scheduled", "cron", expr, "timezone", s.location.String())
	return nil
}

func (s *Scheduler) runExclusive(task func()) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		slog.Warn("previous run still in progress, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()
	task()
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Location is the resolved scheduler timezone.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

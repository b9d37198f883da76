// Package supervisor runs one worker per scan target and keeps the fleet alive until shutdown.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
	"github.com/LeoCommon/foxhunter/internal/hunter/store"
	"github.com/LeoCommon/foxhunter/internal/hunter/worker"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/LeoCommon/foxhunter/pkg/systemd"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Supervisor struct {
	workers       []*worker.Worker
	backend       store.Backend
	statsInterval time.Duration

	mu      sync.Mutex
	cancels map[scan.Target]context.CancelFunc

	// Replaced in tests, systemd is not around there
	notify func(state string)
}

// New prepares a worker for every target, nothing runs before Run
func New(targets []scan.Target, deps worker.Deps, timing worker.Timing, statsInterval time.Duration) *Supervisor {
	s := &Supervisor{
		backend:       deps.Store,
		statsInterval: statsInterval,
		cancels:       map[scan.Target]context.CancelFunc{},
		notify:        systemd.NotifyQuiet,
	}

	for _, t := range targets {
		s.workers = append(s.workers, worker.New(t, deps, timing))
	}

	return s
}

func (s *Supervisor) Workers() []*worker.Worker {
	return s.workers
}

// Stats sums the counters of all workers
func (s *Supervisor) Stats() worker.StatsSnapshot {
	var total worker.StatsSnapshot
	for _, w := range s.workers {
		total = total.Add(w.Stats().Snapshot())
	}
	return total
}

// Cancel stops the worker of target, the others keep running.
// It reports false if no such worker is running.
func (s *Supervisor) Cancel(target scan.Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, ok := s.cancels[target]
	if !ok {
		return false
	}

	cancel()
	delete(s.cancels, target)
	return true
}

// Run probes the store, starts all workers and blocks until ctx is done.
// A failed probe is returned before any worker starts, an interrupted ctx returns nil.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := store.Probe(ctx, s.backend); err != nil {
		return fmt.Errorf("database probe failed: %w", err)
	}

	log.Info("database reachable, starting workers", zap.String("driver", s.backend.Name()), zap.Int("workers", len(s.workers)))

	g, gctx := errgroup.WithContext(ctx)

	for _, w := range s.workers {
		wctx, cancel := context.WithCancel(gctx)

		s.mu.Lock()
		s.cancels[w.Target()] = cancel
		s.mu.Unlock()

		g.Go(func() error {
			defer s.forget(w.Target())

			err := w.Run(wctx)
			if wctx.Err() != nil {
				// Stopped on purpose
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		s.reportStats(gctx)
		return nil
	})

	g.Go(func() error {
		systemd.RunWatchdog(gctx)
		return nil
	})

	s.notify(systemd.NotifyReady)

	err := g.Wait()
	s.notify(systemd.NotifyStopping)

	log.Info("all workers stopped", s.Stats().Fields()...)
	return err
}

func (s *Supervisor) forget(target scan.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.cancels[target]; ok {
		cancel()
		delete(s.cancels, target)
	}
}

func (s *Supervisor) reportStats(ctx context.Context) {
	if s.statsInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Info("scan statistics", s.Stats().Fields()...)
		}
	}
}

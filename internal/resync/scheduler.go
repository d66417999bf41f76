package resync

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Scheduler runs background passes detached from the caller. At most one pass
// per path is in flight; triggers that arrive while it runs cause exactly one
// follow-up pass so the latest content is always verified.
type Scheduler struct {
	engine *Engine
	opts   Options
	logger *slog.Logger

	group singleflight.Group
	wg    sync.WaitGroup

	mu    sync.Mutex
	dirty map[string]bool
}

// NewScheduler creates a Scheduler that runs passes with opts.
func NewScheduler(engine *Engine, opts Options) *Scheduler {
	return &Scheduler{
		engine: engine,
		opts:   opts,
		logger: slog.Default(),
		dirty:  make(map[string]bool),
	}
}

// Trigger schedules a pass for path and returns immediately.
func (s *Scheduler) Trigger(path string) {
	s.mu.Lock()
	s.dirty[path] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			s.group.Do(path, func() (any, error) {
				s.drain(path)
				return nil, nil
			})
			if !s.isDirty(path) {
				return
			}
		}
	}()
}

// Wait blocks until every triggered pass has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// drain runs passes until no trigger for path is outstanding.
func (s *Scheduler) drain(path string) {
	for {
		s.mu.Lock()
		if !s.dirty[path] {
			delete(s.dirty, path)
			s.mu.Unlock()
			return
		}
		s.dirty[path] = false
		s.mu.Unlock()

		res, err := s.engine.Resync(context.Background(), path, s.opts)
		if err != nil {
			s.logger.Warn("background resync failed", "path", path, "error", err)
			continue
		}
		s.logger.Debug("background resync finished",
			"path", path,
			"updated", res.Updated,
			"deleted", res.Deleted,
			"skipped", res.Skipped,
		)
	}
}

func (s *Scheduler) isDirty(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty[path]
}

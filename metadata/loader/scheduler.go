package loader

import (
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// Scheduler executes a set of loaders level by level. Levels run
// sequentially; loaders within a level run concurrently. The first loader
// error aborts the run: the failing loader is marked Failed and no later
// level starts.
type Scheduler struct {
	levels  [][]Loader
	workers int
	log     *zap.Logger

	mu     sync.Mutex
	states map[token.TableID]LoadState
	trace  []TraceEvent
}

// NewScheduler validates the loader set, computes the execution levels and
// returns a ready scheduler. workers bounds loader concurrency within a
// level as well as row concurrency inside each loader; values below one
// default to the machine's CPU count.
func NewScheduler(loaders []Loader, workers int, log *zap.Logger) (*Scheduler, error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	levels, err := buildSchedule(loaders)
	if err != nil {
		return nil, err
	}
	states := make(map[token.TableID]LoadState, len(loaders))
	for _, l := range loaders {
		states[l.Table()] = Pending
	}
	return &Scheduler{
		levels:  levels,
		workers: workers,
		log:     log,
		states:  states,
	}, nil
}

// Levels reports the computed execution levels as table kinds, in
// scheduling order.
func (s *Scheduler) Levels() [][]token.TableID {
	out := make([][]token.TableID, len(s.levels))
	for i, level := range s.levels {
		ids := make([]token.TableID, len(level))
		for j, l := range level {
			ids[j] = l.Table()
		}
		out[i] = ids
	}
	return out
}

// Run executes all loaders against ctx. The error returned is the first
// loader failure observed; when multiple loaders of one level fail
// concurrently, which error wins is unspecified but exactly one is
// returned.
func (s *Scheduler) Run(ctx *Context) error {
	for i, level := range s.levels {
		s.log.Debug("load level starting",
			zap.Int("level", i),
			zap.Int("loaders", len(level)),
		)

		g := new(errgroup.Group)
		g.SetLimit(s.workers)
		for _, l := range level {
			ld, lvl := l, i
			g.Go(func() error {
				s.transition(ld.Table(), Running, lvl)
				if err := s.runOne(ld, ctx); err != nil {
					s.transition(ld.Table(), Failed, lvl)
					s.log.Error("table load failed",
						zap.Stringer("table", ld.Table()),
						zap.Error(err),
					)
					return err
				}
				s.transition(ld.Table(), Completed, lvl)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		s.log.Debug("load level complete", zap.Int("level", i))
	}
	return nil
}

func (s *Scheduler) runOne(l Loader, ctx *Context) error {
	if err := l.Load(ctx); err != nil {
		return err
	}
	if sp, ok := l.(SecondPasser); ok {
		return sp.SecondPass(ctx)
	}
	return nil
}

// State reports the current state of the loader for table t. Tables
// without a loader report Pending.
func (s *Scheduler) State(t token.TableID) LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[t]
}

// Trace returns a copy of the state transitions recorded so far, in the
// order they happened.
func (s *Scheduler) Trace() []TraceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TraceEvent, len(s.trace))
	copy(out, s.trace)
	return out
}

func (s *Scheduler) transition(t token.TableID, state LoadState, level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[t] = state
	s.trace = append(s.trace, TraceEvent{Table: t, State: state, Level: level})
}

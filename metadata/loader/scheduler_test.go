package loader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

func TestSchedulerRunsDependenciesFirst(t *testing.T) {
	loaders := []Loader{
		&fakeLoader{table: token.Module},
		&fakeLoader{table: token.TypeRef, deps: []token.TableID{token.Module}},
		&fakeLoader{table: token.TypeDef, deps: []token.TableID{token.TypeRef}},
	}

	s, err := NewScheduler(loaders, 4, nil)
	require.NoError(t, err)
	require.NoError(t, s.Run(NewContext(nil, nil, 1, nil)))

	for _, l := range loaders {
		assert.Equal(t, Completed, s.State(l.Table()))
	}

	// Trace order: a table's Running event never precedes the Completed
	// event of any of its dependencies.
	completedAt := make(map[token.TableID]int)
	runningAt := make(map[token.TableID]int)
	for i, ev := range s.Trace() {
		switch ev.State {
		case Running:
			runningAt[ev.Table] = i
		case Completed:
			completedAt[ev.Table] = i
		}
	}
	assert.Less(t, completedAt[token.Module], runningAt[token.TypeRef])
	assert.Less(t, completedAt[token.TypeRef], runningAt[token.TypeDef])
}

func TestSchedulerFailFast(t *testing.T) {
	boom := mderr.Malformedf("unresolvable reference")
	loaders := []Loader{
		&fakeLoader{table: token.Module},
		&fakeLoader{
			table: token.TypeRef,
			deps:  []token.TableID{token.Module},
			load:  func(*Context) error { return boom },
		},
		&fakeLoader{table: token.TypeDef, deps: []token.TableID{token.TypeRef}},
	}

	s, err := NewScheduler(loaders, 4, nil)
	require.NoError(t, err)

	err = s.Run(NewContext(nil, nil, 1, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, mderr.ErrMalformed))

	assert.Equal(t, Completed, s.State(token.Module))
	assert.Equal(t, Failed, s.State(token.TypeRef))
	// The dependent level never starts.
	assert.Equal(t, Pending, s.State(token.TypeDef))
}

func TestSchedulerLevels(t *testing.T) {
	loaders := []Loader{
		&fakeLoader{table: token.Module},
		&fakeLoader{table: token.Field},
		&fakeLoader{table: token.Constant, deps: []token.TableID{token.Field}},
	}

	s, err := NewScheduler(loaders, 1, nil)
	require.NoError(t, err)

	levels := s.Levels()
	require.Len(t, levels, 2)
	assert.Equal(t, []token.TableID{token.Module, token.Field}, levels[0])
	assert.Equal(t, []token.TableID{token.Constant}, levels[1])
}

func TestSchedulerRejectsBadLoaderSet(t *testing.T) {
	loaders := []Loader{
		&fakeLoader{table: token.TypeRef, deps: []token.TableID{token.TypeDef}},
		&fakeLoader{table: token.TypeDef, deps: []token.TableID{token.TypeRef}},
	}
	_, err := NewScheduler(loaders, 1, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mderr.ErrMalformed))
}

func TestLoadStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "failed", Failed.String())
}

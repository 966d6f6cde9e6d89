// Package loader turns raw table rows into the resolved, cross-referenced
// entity graph. One Loader exists per table kind; a dependency scheduler
// runs them in topological order, in parallel where the declared
// dependencies allow, and each loader resolves its rows in parallel.
package loader

import "github.com/dotmeta-dev/dotmeta/metadata/token"

// Loader loads one table kind: it reads every raw row, resolves heap
// references and coded indexes, constructs owned entities, inserts them
// into the token registry, and applies annotations onto entities of
// prerequisite tables through their write-once cells.
//
// Implementations must be safe to run concurrently with loaders of
// unrelated tables: shared state is touched only through registry inserts
// and binding cells.
type Loader interface {
	// Table returns the table kind this loader processes.
	Table() token.TableID
	// Dependencies returns the table kinds that must be fully loaded
	// before this loader starts. The scheduler guarantees completion
	// order; the slice must be static and acyclic.
	Dependencies() []token.TableID
	// Load processes every row of the table.
	Load(ctx *Context) error
}

// SecondPasser is implemented by loaders whose table contains references
// into itself. The first pass builds every entity with self-references
// unresolved; SecondPass runs after it, against the now-complete registry,
// and fills them in. Whether a table needs the second pass is part of its
// loader's declared contract, not an ad hoc choice inside Load.
type SecondPasser interface {
	SecondPass(ctx *Context) error
}

// LoadState tracks one loader through the schedule.
type LoadState int

const (
	Pending LoadState = iota
	Running
	Completed
	Failed
)

// String returns the lower-case state name.
func (s LoadState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// TraceEvent records one state transition during a load run. The trace is
// how tests verify the dependency-ordering guarantee.
type TraceEvent struct {
	Table token.TableID
	State LoadState
	Level int
}

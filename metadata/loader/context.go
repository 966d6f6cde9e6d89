package loader

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/dotmeta-dev/dotmeta/metadata/heap"
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/registry"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// Context carries everything loaders need: the parsed table stream, the
// heaps, the shared token registry and the concurrency budget. One Context
// serves one load run.
type Context struct {
	Stream   *tables.Stream
	Heaps    *heap.Heaps
	Registry *registry.Registry
	Workers  int
	Log      *zap.Logger
}

// NewContext builds a load context with a fresh registry.
func NewContext(stream *tables.Stream, heaps *heap.Heaps, workers int, log *zap.Logger) *Context {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		Stream:   stream,
		Heaps:    heaps,
		Registry: registry.New(),
		Workers:  workers,
		Log:      log,
	}
}

// resolveAs fetches the entity behind table[rid] and asserts its concrete
// type. A missing row id and a type mismatch are both malformed metadata:
// a reference that cannot be satisfied means the blob lied about its
// structure.
func resolveAs[T registry.Entity](ctx *Context, table token.TableID, rid uint32) (T, error) {
	var zero T
	tok := token.New(table, rid)
	ent, ok := ctx.Registry.Get(tok)
	if !ok {
		return zero, mderr.Malformedf("unresolved reference to %s", tok)
	}
	v, ok := ent.(T)
	if !ok {
		return zero, mderr.Malformedf("reference %s resolved to unexpected entity type", tok)
	}
	return v, nil
}

// Entity looks a loaded entity up by token.
func (c *Context) Entity(tok token.Token) (registry.Entity, bool) {
	return c.Registry.Get(tok)
}

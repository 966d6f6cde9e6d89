// Package metadata is the engine's front door: Load parses a metadata
// region, runs the dependency-scheduled loaders, and hands back a File with
// the fully resolved entity graph; File.Write serializes that graph back
// into bytes through the symmetric writer.
package metadata

import (
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dotmeta-dev/dotmeta/metadata/heap"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
	"github.com/dotmeta-dev/dotmeta/metadata/loader"
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/registry"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
	"github.com/dotmeta-dev/dotmeta/metadata/writer"
)

// File is one fully loaded metadata region.
type File struct {
	// SessionID identifies this load for log correlation.
	SessionID uuid.UUID

	Root     *layout.Root
	Stream   *tables.Stream
	Heaps    *heap.Heaps
	Registry *registry.Registry

	trace  []loader.TraceEvent
	levels [][]token.TableID
}

type options struct {
	workers int
	strict  bool
	log     *zap.Logger
	loaders []loader.Loader
}

// Option adjusts how Load runs.
type Option func(*options)

// WithWorkers bounds loader and row concurrency.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithStrict makes Load reject input the lenient path tolerates: streams
// the engine does not recognize, and trailing bytes after the last declared
// table row. Canonical writer output always passes.
func WithStrict() Option {
	return func(o *options) { o.strict = true }
}

// WithLogger routes load diagnostics to the given logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithLoaders replaces the built-in loader set.
func WithLoaders(loaders []loader.Loader) Option {
	return func(o *options) { o.loaders = loaders }
}

// Load parses and resolves a complete metadata region. The first error
// encountered anywhere (container, header, row decode, resolution) aborts
// the load.
func Load(data []byte, opts ...Option) (*File, error) {
	o := options{loaders: loader.DefaultLoaders()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	sessionID := uuid.New()
	log := o.log.With(zap.String("session_id", sessionID.String()))

	root, err := layout.ParseRoot(data)
	if err != nil {
		return nil, err
	}
	if o.strict {
		for _, s := range root.Streams {
			switch s.Name {
			case layout.StreamTables, layout.StreamStrings, layout.StreamGUIDs, layout.StreamBlobs:
			default:
				return nil, mderr.Unsupportedf("stream %q is not supported", s.Name)
			}
		}
	}

	tableData, err := root.StreamData(data, layout.StreamTables)
	if err != nil {
		return nil, err
	}
	if tableData == nil {
		return nil, mderr.Malformedf("metadata region has no %q stream", layout.StreamTables)
	}
	stringData, err := root.StreamData(data, layout.StreamStrings)
	if err != nil {
		return nil, err
	}
	guidData, err := root.StreamData(data, layout.StreamGUIDs)
	if err != nil {
		return nil, err
	}
	blobData, err := root.StreamData(data, layout.StreamBlobs)
	if err != nil {
		return nil, err
	}

	stream, err := tables.ParseStream(tableData)
	if err != nil {
		return nil, err
	}
	if o.strict && stream.End() != len(tableData) {
		return nil, mderr.Malformedf("table stream carries %d bytes past the last declared row", len(tableData)-stream.End())
	}
	heaps := &heap.Heaps{
		Strings: heap.NewStrings(stringData),
		GUIDs:   heap.NewGUIDs(guidData),
		Blobs:   heap.NewBlobs(blobData),
	}

	if err := loader.EnsureCovered(stream, o.loaders); err != nil {
		return nil, err
	}

	sched, err := loader.NewScheduler(o.loaders, o.workers, log)
	if err != nil {
		return nil, err
	}

	ctx := loader.NewContext(stream, heaps, o.workers, log)
	log.Debug("loading metadata region",
		zap.String("version", root.Version),
		zap.Int("tables", len(stream.Present())),
	)
	if err := sched.Run(ctx); err != nil {
		return nil, err
	}
	log.Debug("metadata region loaded", zap.Int("entities", ctx.Registry.Len()))

	return &File{
		SessionID: sessionID,
		Root:      root,
		Stream:    stream,
		Heaps:     heaps,
		Registry:  ctx.Registry,
		trace:     sched.Trace(),
		levels:    sched.Levels(),
	}, nil
}

// LoadFile reads and loads a metadata region from disk.
func LoadFile(path string, opts ...Option) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data, opts...)
}

// Trace returns the loader state transitions from the load run.
func (f *File) Trace() []loader.TraceEvent {
	out := make([]loader.TraceEvent, len(f.trace))
	copy(out, f.trace)
	return out
}

// Levels returns the dependency levels the load executed.
func (f *File) Levels() [][]token.TableID {
	return f.levels
}

// Entity looks up a loaded entity by token.
func (f *File) Entity(tok token.Token) (registry.Entity, bool) {
	return f.Registry.Get(tok)
}

// Typed table accessors. Each returns the entities in row order.

func (f *File) Module() *loader.Module {
	for _, e := range f.Registry.Table(token.Module) {
		return e.(*loader.Module)
	}
	return nil
}

func (f *File) TypeRefs() []*loader.TypeRef {
	return entitiesOf[*loader.TypeRef](f, token.TypeRef)
}

func (f *File) TypeDefs() []*loader.TypeDef {
	return entitiesOf[*loader.TypeDef](f, token.TypeDef)
}

func (f *File) Fields() []*loader.Field {
	return entitiesOf[*loader.Field](f, token.Field)
}

func (f *File) FieldPtrs() []*loader.FieldPtr {
	return entitiesOf[*loader.FieldPtr](f, token.FieldPtr)
}

func (f *File) Params() []*loader.Param {
	return entitiesOf[*loader.Param](f, token.Param)
}

func (f *File) Constants() []*loader.Constant {
	return entitiesOf[*loader.Constant](f, token.Constant)
}

func (f *File) ClassLayouts() []*loader.ClassLayout {
	return entitiesOf[*loader.ClassLayout](f, token.ClassLayout)
}

func (f *File) FieldLayouts() []*loader.FieldLayout {
	return entitiesOf[*loader.FieldLayout](f, token.FieldLayout)
}

func (f *File) Properties() []*loader.Property {
	return entitiesOf[*loader.Property](f, token.Property)
}

func (f *File) ModuleRefs() []*loader.ModuleRef {
	return entitiesOf[*loader.ModuleRef](f, token.ModuleRef)
}

func (f *File) Assemblies() []*loader.Assembly {
	return entitiesOf[*loader.Assembly](f, token.Assembly)
}

func (f *File) AssemblyRefs() []*loader.AssemblyRef {
	return entitiesOf[*loader.AssemblyRef](f, token.AssemblyRef)
}

func (f *File) NestedClasses() []*loader.NestedClass {
	return entitiesOf[*loader.NestedClass](f, token.NestedClass)
}

func entitiesOf[T registry.Entity](f *File, id token.TableID) []T {
	rows := f.Registry.Table(id)
	out := make([]T, 0, len(rows))
	for _, e := range rows {
		out = append(out, e.(T))
	}
	return out
}

// Source builds a writer source from the loaded graph.
func (f *File) Source() *writer.Source {
	src := &writer.Source{
		Version:       f.Root.Version,
		TypeRefs:      f.TypeRefs(),
		TypeDefs:      f.TypeDefs(),
		FieldPtrs:     f.FieldPtrs(),
		Fields:        f.Fields(),
		Params:        f.Params(),
		Constants:     f.Constants(),
		ClassLayouts:  f.ClassLayouts(),
		FieldLayouts:  f.FieldLayouts(),
		Properties:    f.Properties(),
		ModuleRefs:    f.ModuleRefs(),
		Assemblies:    f.Assemblies(),
		AssemblyRefs:  f.AssemblyRefs(),
		NestedClasses: f.NestedClasses(),
	}
	if m := f.Module(); m != nil {
		src.Modules = []*loader.Module{m}
	}
	return src
}

// Write serializes the loaded graph back into a metadata region.
func (f *File) Write() ([]byte, error) {
	return writer.Write(f.Source())
}

package loader

import (
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// DefaultLoaders returns the built-in loader set, one per supported table
// kind. Registration order is the deterministic tiebreak for level
// membership, so it stays in ascending table order.
func DefaultLoaders() []Loader {
	return []Loader{
		moduleLoader{},
		typeRefLoader{},
		typeDefLoader{},
		fieldPtrLoader{},
		fieldLoader{},
		paramLoader{},
		constantLoader{},
		classLayoutLoader{},
		fieldLayoutLoader{},
		propertyLoader{},
		moduleRefLoader{},
		assemblyLoader{},
		assemblyRefLoader{},
		nestedClassLoader{},
	}
}

// EnsureCovered verifies that every table present in the stream has a
// loader. A recognized table with rows but no loader (the type-spec table,
// for one) cannot be resolved and fails as unsupported rather than being
// silently dropped.
func EnsureCovered(stream *tables.Stream, loaders []Loader) error {
	covered := make(map[token.TableID]bool, len(loaders))
	for _, l := range loaders {
		covered[l.Table()] = true
	}
	for _, id := range stream.Present() {
		if !covered[id] {
			return mderr.Unsupportedf("table %s is present but has no loader", id)
		}
	}
	return nil
}

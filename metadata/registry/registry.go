// Package registry holds the process-wide addressing scheme for resolved
// entities: a concurrent, insert-once map from Token to entity, plus an
// append-only ordered collection per table for sequential iteration.
// Inserting the same token twice is itself a malformed-metadata condition.
package registry

import (
	"sort"
	"sync"

	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// Entity is anything addressable by a Token. Every owned entity type in
// the loader package implements it.
type Entity interface {
	Token() token.Token
}

// Registry is the token-keyed entity store. Insertion is append-only per
// unique token and safe under concurrent loaders; after the loading
// schedule completes the registry is effectively immutable and reads need
// no coordination beyond the internal read lock.
type Registry struct {
	mu      sync.RWMutex
	byToken map[token.Token]Entity
	byTable map[token.TableID][]Entity
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byToken: make(map[token.Token]Entity),
		byTable: make(map[token.TableID][]Entity),
	}
}

// Insert stores e under its token. A duplicate token is a malformed-
// metadata error: two distinct rows can never share an identity.
func (r *Registry) Insert(e Entity) error {
	tok := e.Token()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byToken[tok]; exists {
		return mderr.Malformedf("duplicate token %s", tok).At(tok.Table(), tok.Row())
	}
	r.byToken[tok] = e
	r.byTable[tok.Table()] = append(r.byTable[tok.Table()], e)
	return nil
}

// Get returns the entity stored under tok.
func (r *Registry) Get(tok token.Token) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byToken[tok]
	return e, ok
}

// Table returns the entities of one table kind in row id order. Inserts
// arrive in whatever order concurrent loaders produce them, so the row
// order is restored here. The copy prevents callers from mutating the
// registry's own slice.
func (r *Registry) Table(id token.TableID) []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entities := r.byTable[id]
	out := make([]Entity, len(entities))
	copy(out, entities)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Token().Row() < out[j].Token().Row()
	})
	return out
}

// Count returns the number of entities stored for one table kind.
func (r *Registry) Count(id token.TableID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byTable[id])
}

// Len returns the total number of entities across all tables.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byToken)
}

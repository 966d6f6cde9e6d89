// Package writer serializes an entity graph back into a metadata region:
// heaps are rebuilt with deduplication, the size model is recomputed from
// the actual row counts and heap sizes, and every row is encoded through
// the same codecs the reader uses.
package writer

import (
	"github.com/dotmeta-dev/dotmeta/metadata/loader"
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// Source is the entity graph to serialize. Every slice must be ordered by
// row id, starting at 1, with no gaps: row ids are positions, not labels.
type Source struct {
	// Version is the root container version string.
	Version string

	Modules       []*loader.Module
	TypeRefs      []*loader.TypeRef
	TypeDefs      []*loader.TypeDef
	FieldPtrs     []*loader.FieldPtr
	Fields        []*loader.Field
	Params        []*loader.Param
	Constants     []*loader.Constant
	ClassLayouts  []*loader.ClassLayout
	FieldLayouts  []*loader.FieldLayout
	Properties    []*loader.Property
	ModuleRefs    []*loader.ModuleRef
	Assemblies    []*loader.Assembly
	AssemblyRefs  []*loader.AssemblyRef
	NestedClasses []*loader.NestedClass
}

// rowCounts returns the per-table row counts for the size model.
func (s *Source) rowCounts() map[token.TableID]uint32 {
	rows := make(map[token.TableID]uint32)
	set := func(id token.TableID, n int) {
		if n > 0 {
			rows[id] = uint32(n)
		}
	}
	set(token.Module, len(s.Modules))
	set(token.TypeRef, len(s.TypeRefs))
	set(token.TypeDef, len(s.TypeDefs))
	set(token.FieldPtr, len(s.FieldPtrs))
	set(token.Field, len(s.Fields))
	set(token.Param, len(s.Params))
	set(token.Constant, len(s.Constants))
	set(token.ClassLayout, len(s.ClassLayouts))
	set(token.FieldLayout, len(s.FieldLayouts))
	set(token.Property, len(s.Properties))
	set(token.ModuleRef, len(s.ModuleRefs))
	set(token.Assembly, len(s.Assemblies))
	set(token.AssemblyRef, len(s.AssemblyRefs))
	set(token.NestedClass, len(s.NestedClasses))
	return rows
}

// Validate checks the graph's cross-table invariants before serialization:
// contiguous row ids, resolvable references, and a field ownership layout
// that survives the round trip.
func (s *Source) Validate() error {
	if len(s.Modules) > 1 {
		return mderr.Malformedf("module table holds %d rows, at most one is allowed", len(s.Modules))
	}

	if err := s.validateRIDs(); err != nil {
		return err
	}

	rows := s.rowCounts()
	inRange := func(t token.TableID, rid uint32) bool {
		return rid >= 1 && rid <= rows[t]
	}

	for _, ref := range s.TypeRefs {
		tok := typeRefScope(ref)
		if tok.IsNull() {
			continue
		}
		switch tok.Table() {
		case token.Module, token.ModuleRef, token.AssemblyRef, token.TypeRef:
		default:
			return mderr.OutOfRangef("resolution scope table %s is not a candidate", tok.Table()).At(token.TypeRef, ref.RID)
		}
		if !inRange(tok.Table(), tok.Row()) {
			return mderr.Malformedf("resolution scope %s points past the table", tok).At(token.TypeRef, ref.RID)
		}
	}

	for _, td := range s.TypeDefs {
		tok := typeDefExtends(td)
		if tok.IsNull() {
			continue
		}
		switch tok.Table() {
		case token.TypeDef, token.TypeRef, token.TypeSpec:
		default:
			return mderr.OutOfRangef("base type table %s is not a candidate", tok.Table()).At(token.TypeDef, td.RID)
		}
		if !inRange(tok.Table(), tok.Row()) {
			return mderr.Malformedf("base type %s points past the table", tok).At(token.TypeDef, td.RID)
		}
	}

	for _, c := range s.Constants {
		tok := constantParent(c)
		if tok.IsNull() {
			return mderr.Malformedf("constant has no parent").At(token.Constant, c.RID)
		}
		switch tok.Table() {
		case token.Field, token.Param, token.Property:
		default:
			return mderr.OutOfRangef("constant parent table %s is not a candidate", tok.Table()).At(token.Constant, c.RID)
		}
		if !inRange(tok.Table(), tok.Row()) {
			return mderr.Malformedf("constant parent %s points past the table", tok).At(token.Constant, c.RID)
		}
	}

	for _, fp := range s.FieldPtrs {
		if fp.Target == nil || !inRange(token.Field, fp.Target.RID) {
			return mderr.Malformedf("indirection slot has no valid field target").At(token.FieldPtr, fp.RID)
		}
	}
	for _, fl := range s.FieldLayouts {
		if fl.Field == nil || !inRange(token.Field, fl.Field.RID) {
			return mderr.Malformedf("layout row has no valid field target").At(token.FieldLayout, fl.RID)
		}
	}
	for _, cl := range s.ClassLayouts {
		if cl.Parent == nil || !inRange(token.TypeDef, cl.Parent.RID) {
			return mderr.Malformedf("layout row has no valid type target").At(token.ClassLayout, cl.RID)
		}
	}
	for _, nc := range s.NestedClasses {
		if nc.Nested == nil || nc.Enclosing == nil ||
			!inRange(token.TypeDef, nc.Nested.RID) || !inRange(token.TypeDef, nc.Enclosing.RID) {
			return mderr.Malformedf("nesting row has no valid type targets").At(token.NestedClass, nc.RID)
		}
		if nc.Nested.RID == nc.Enclosing.RID {
			return mderr.Malformedf("type %s encloses itself", nc.Nested.Token()).At(token.NestedClass, nc.RID)
		}
	}

	_, err := s.fieldListStarts()
	return err
}

func (s *Source) validateRIDs() error {
	check := func(t token.TableID, rids []uint32) error {
		for i, rid := range rids {
			if rid != uint32(i)+1 {
				return mderr.Malformedf("row ids must be contiguous from 1, got %d at position %d", rid, i+1).At(t, rid)
			}
		}
		return nil
	}
	collect := func(n int, at func(int) uint32) []uint32 {
		out := make([]uint32, n)
		for i := range out {
			out[i] = at(i)
		}
		return out
	}

	if err := check(token.Module, collect(len(s.Modules), func(i int) uint32 { return s.Modules[i].RID })); err != nil {
		return err
	}
	if err := check(token.TypeRef, collect(len(s.TypeRefs), func(i int) uint32 { return s.TypeRefs[i].RID })); err != nil {
		return err
	}
	if err := check(token.TypeDef, collect(len(s.TypeDefs), func(i int) uint32 { return s.TypeDefs[i].RID })); err != nil {
		return err
	}
	if err := check(token.FieldPtr, collect(len(s.FieldPtrs), func(i int) uint32 { return s.FieldPtrs[i].RID })); err != nil {
		return err
	}
	if err := check(token.Field, collect(len(s.Fields), func(i int) uint32 { return s.Fields[i].RID })); err != nil {
		return err
	}
	if err := check(token.Param, collect(len(s.Params), func(i int) uint32 { return s.Params[i].RID })); err != nil {
		return err
	}
	if err := check(token.Constant, collect(len(s.Constants), func(i int) uint32 { return s.Constants[i].RID })); err != nil {
		return err
	}
	if err := check(token.ClassLayout, collect(len(s.ClassLayouts), func(i int) uint32 { return s.ClassLayouts[i].RID })); err != nil {
		return err
	}
	if err := check(token.FieldLayout, collect(len(s.FieldLayouts), func(i int) uint32 { return s.FieldLayouts[i].RID })); err != nil {
		return err
	}
	if err := check(token.Property, collect(len(s.Properties), func(i int) uint32 { return s.Properties[i].RID })); err != nil {
		return err
	}
	if err := check(token.ModuleRef, collect(len(s.ModuleRefs), func(i int) uint32 { return s.ModuleRefs[i].RID })); err != nil {
		return err
	}
	if err := check(token.Assembly, collect(len(s.Assemblies), func(i int) uint32 { return s.Assemblies[i].RID })); err != nil {
		return err
	}
	if err := check(token.AssemblyRef, collect(len(s.AssemblyRefs), func(i int) uint32 { return s.AssemblyRefs[i].RID })); err != nil {
		return err
	}
	return check(token.NestedClass, collect(len(s.NestedClasses), func(i int) uint32 { return s.NestedClasses[i].RID }))
}

// fieldListStarts computes each type's FieldList index from its owned
// fields. Ownership serializes as chained ranges, so the owned fields must
// form one contiguous run per type, in row order, with nothing left over;
// anything else cannot survive a round trip and is rejected.
func (s *Source) fieldListStarts() (map[uint32]uint32, error) {
	logical := make(map[uint32]uint32, len(s.Fields))
	total := uint32(len(s.Fields))
	if len(s.FieldPtrs) > 0 {
		total = uint32(len(s.FieldPtrs))
		for _, fp := range s.FieldPtrs {
			if fp.Target == nil {
				return nil, mderr.Malformedf("indirection slot has no field target").At(token.FieldPtr, fp.RID)
			}
			if _, dup := logical[fp.Target.RID]; dup {
				return nil, mderr.Malformedf("field %s appears twice in the indirection table", fp.Target.Token()).At(token.FieldPtr, fp.RID)
			}
			logical[fp.Target.RID] = fp.RID
		}
	} else {
		for _, f := range s.Fields {
			logical[f.RID] = f.RID
		}
	}

	starts := make(map[uint32]uint32, len(s.TypeDefs))
	next := uint32(1)
	for _, td := range s.TypeDefs {
		starts[td.RID] = next
		for _, f := range td.Fields {
			if f == nil {
				return nil, mderr.Malformedf("type owns a nil field").At(token.TypeDef, td.RID)
			}
			pos, ok := logical[f.RID]
			if !ok {
				return nil, mderr.Malformedf("owned field %s is not part of the field space", f.Token()).At(token.TypeDef, td.RID)
			}
			if pos != next {
				return nil, mderr.Malformedf("owned fields of type %s are not contiguous in field order", td.Token()).At(token.TypeDef, td.RID)
			}
			next++
		}
	}
	if len(s.TypeDefs) > 0 && next != total+1 {
		return nil, mderr.Malformedf("%d fields are not owned by any type", total+1-next)
	}
	return starts, nil
}

// Reference accessors prefer the resolved entity over the stored token so
// that a graph edited in memory serializes what it points at, not what it
// used to point at.

func typeRefScope(ref *loader.TypeRef) token.Token {
	if ref.Scope != nil {
		return ref.Scope.Token()
	}
	return ref.ScopeToken
}

func typeDefExtends(td *loader.TypeDef) token.Token {
	if td.Extends != nil {
		return td.Extends.Token()
	}
	return td.ExtendsToken
}

func constantParent(c *loader.Constant) token.Token {
	if c.Parent != nil {
		return c.Parent.Token()
	}
	return c.ParentToken
}

package loader

import (
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// typeRefLoader resolves type references. Resolution scopes pointing at
// modules and assemblies resolve during the first pass; a scope pointing at
// another type reference (a nested type) cannot, because the target row may
// not exist yet, so those are deferred to the second pass against the
// complete registry.
type typeRefLoader struct{}

func (typeRefLoader) Table() token.TableID { return token.TypeRef }

func (typeRefLoader) Dependencies() []token.TableID {
	return []token.TableID{token.Module, token.ModuleRef, token.AssemblyRef}
}

func (typeRefLoader) Load(ctx *Context) error {
	return ctx.Stream.TypeRefs.ForEach(ctx.Workers, func(rid uint32, row tables.TypeRefRow) error {
		name, err := ctx.Heaps.Strings.Get(row.Name)
		if err != nil {
			return mderr.Locate(err, token.TypeRef, rid)
		}
		ns, err := ctx.Heaps.Strings.Get(row.Namespace)
		if err != nil {
			return mderr.Locate(err, token.TypeRef, rid)
		}

		ref := &TypeRef{
			RID:       rid,
			RowOffset: row.Offset,
			Name:      name,
			Namespace: ns,
		}
		if !row.Scope.IsNull() {
			ref.ScopeToken = row.Scope.Token()
			if row.Scope.Table != token.TypeRef {
				ent, ok := ctx.Registry.Get(ref.ScopeToken)
				if !ok {
					return mderr.Malformedf("unresolved resolution scope %s", ref.ScopeToken).At(token.TypeRef, rid)
				}
				ref.Scope = ent
			}
		}
		return ctx.Registry.Insert(ref)
	})
}

func (typeRefLoader) SecondPass(ctx *Context) error {
	for _, ent := range ctx.Registry.Table(token.TypeRef) {
		ref := ent.(*TypeRef)
		if ref.Scope != nil || ref.ScopeToken.IsNull() {
			continue
		}
		enclosing, err := resolveAs[*TypeRef](ctx, token.TypeRef, ref.ScopeToken.Row())
		if err != nil {
			return mderr.Locate(err, token.TypeRef, ref.RID)
		}
		if enclosing == ref {
			return mderr.Malformedf("type reference is its own resolution scope").At(token.TypeRef, ref.RID)
		}
		ref.Scope = enclosing
	}
	return nil
}

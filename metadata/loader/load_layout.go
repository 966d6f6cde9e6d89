package loader

import (
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// classLayoutLoader applies explicit packing and size onto types.
type classLayoutLoader struct{}

func (classLayoutLoader) Table() token.TableID          { return token.ClassLayout }
func (classLayoutLoader) Dependencies() []token.TableID { return []token.TableID{token.TypeDef} }

func (classLayoutLoader) Load(ctx *Context) error {
	return ctx.Stream.ClassLayouts.ForEach(ctx.Workers, func(rid uint32, row tables.ClassLayoutRow) error {
		parent, err := resolveAs[*TypeDef](ctx, token.TypeDef, row.Parent)
		if err != nil {
			return mderr.Locate(err, token.ClassLayout, rid)
		}
		info := ClassLayoutInfo{PackingSize: row.PackingSize, ClassSize: row.ClassSize}
		if err := parent.Layout.Set(info); err != nil {
			return mderr.Malformedf("duplicate layout for type %s", parent.Token()).At(token.ClassLayout, rid)
		}
		return ctx.Registry.Insert(&ClassLayout{
			RID:       rid,
			RowOffset: row.Offset,
			Info:      info,
			Parent:    parent,
		})
	})
}

// nestedClassLoader links nested types to their enclosing types.
type nestedClassLoader struct{}

func (nestedClassLoader) Table() token.TableID          { return token.NestedClass }
func (nestedClassLoader) Dependencies() []token.TableID { return []token.TableID{token.TypeDef} }

func (nestedClassLoader) Load(ctx *Context) error {
	return ctx.Stream.NestedClasses.ForEach(ctx.Workers, func(rid uint32, row tables.NestedClassRow) error {
		nested, err := resolveAs[*TypeDef](ctx, token.TypeDef, row.NestedClass)
		if err != nil {
			return mderr.Locate(err, token.NestedClass, rid)
		}
		enclosing, err := resolveAs[*TypeDef](ctx, token.TypeDef, row.EnclosingClass)
		if err != nil {
			return mderr.Locate(err, token.NestedClass, rid)
		}
		if nested == enclosing {
			return mderr.Malformedf("type %s encloses itself", nested.Token()).At(token.NestedClass, rid)
		}
		if err := nested.Enclosing.Set(enclosing); err != nil {
			return mderr.Malformedf("type %s has two enclosing types", nested.Token()).At(token.NestedClass, rid)
		}
		return ctx.Registry.Insert(&NestedClass{
			RID:       rid,
			RowOffset: row.Offset,
			Nested:    nested,
			Enclosing: enclosing,
		})
	})
}

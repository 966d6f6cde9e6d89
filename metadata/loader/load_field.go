package loader

import (
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

type fieldLoader struct{}

func (fieldLoader) Table() token.TableID          { return token.Field }
func (fieldLoader) Dependencies() []token.TableID { return nil }

func (fieldLoader) Load(ctx *Context) error {
	return ctx.Stream.Fields.ForEach(ctx.Workers, func(rid uint32, row tables.FieldRow) error {
		name, err := ctx.Heaps.Strings.Get(row.Name)
		if err != nil {
			return mderr.Locate(err, token.Field, rid)
		}
		sig, err := ctx.Heaps.Blobs.Get(row.Signature)
		if err != nil {
			return mderr.Locate(err, token.Field, rid)
		}
		return ctx.Registry.Insert(&Field{
			RID:       rid,
			RowOffset: row.Offset,
			Flags:     row.Flags,
			Name:      name,
			Signature: sig,
		})
	})
}

// fieldPtrLoader resolves the field indirection table. Each row maps a
// logical field position to a physical field row; a slot pointing at a
// missing field is malformed.
type fieldPtrLoader struct{}

func (fieldPtrLoader) Table() token.TableID          { return token.FieldPtr }
func (fieldPtrLoader) Dependencies() []token.TableID { return []token.TableID{token.Field} }

func (fieldPtrLoader) Load(ctx *Context) error {
	return ctx.Stream.FieldPtrs.ForEach(ctx.Workers, func(rid uint32, row tables.FieldPtrRow) error {
		target, err := resolveAs[*Field](ctx, token.Field, row.Field)
		if err != nil {
			return mderr.Locate(err, token.FieldPtr, rid)
		}
		return ctx.Registry.Insert(&FieldPtr{RID: rid, RowOffset: row.Offset, Target: target})
	})
}

// fieldLayoutLoader applies explicit byte offsets onto fields. Two layout
// rows naming the same field collide on the field's write-once cell, which
// is reported as malformed metadata.
type fieldLayoutLoader struct{}

func (fieldLayoutLoader) Table() token.TableID          { return token.FieldLayout }
func (fieldLayoutLoader) Dependencies() []token.TableID { return []token.TableID{token.Field} }

func (fieldLayoutLoader) Load(ctx *Context) error {
	return ctx.Stream.FieldLayouts.ForEach(ctx.Workers, func(rid uint32, row tables.FieldLayoutRow) error {
		field, err := resolveAs[*Field](ctx, token.Field, row.Field)
		if err != nil {
			return mderr.Locate(err, token.FieldLayout, rid)
		}
		if err := field.LayoutOffset.Set(row.ByteOffset); err != nil {
			return mderr.Malformedf("duplicate layout offset for field %s", field.Token()).At(token.FieldLayout, rid)
		}
		return ctx.Registry.Insert(&FieldLayout{
			RID:        rid,
			RowOffset:  row.Offset,
			ByteOffset: row.ByteOffset,
			Field:      field,
		})
	})
}

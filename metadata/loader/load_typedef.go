package loader

import (
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// typeDefLoader resolves type definitions: heap lookups, the Extends coded
// index, and the owned field range. Field ownership is a chained range
// (each row's FieldList up to the next row's FieldList), resolved through
// the field-pointer indirection when that table is present. Extends entries
// pointing back into the type-definition table resolve in the second pass.
type typeDefLoader struct{}

func (typeDefLoader) Table() token.TableID { return token.TypeDef }

func (typeDefLoader) Dependencies() []token.TableID {
	return []token.TableID{token.TypeRef, token.Field, token.FieldPtr}
}

func (typeDefLoader) Load(ctx *Context) error {
	defs := ctx.Stream.TypeDefs
	total := defs.RowCount()
	viaPtr := ctx.Stream.FieldPtrs.RowCount() > 0
	logicalFields := ctx.Stream.Fields.RowCount()
	if viaPtr {
		logicalFields = ctx.Stream.FieldPtrs.RowCount()
	}

	return defs.ForEach(ctx.Workers, func(rid uint32, row tables.TypeDefRow) error {
		name, err := ctx.Heaps.Strings.Get(row.Name)
		if err != nil {
			return mderr.Locate(err, token.TypeDef, rid)
		}
		ns, err := ctx.Heaps.Strings.Get(row.Namespace)
		if err != nil {
			return mderr.Locate(err, token.TypeDef, rid)
		}

		td := &TypeDef{
			RID:       rid,
			RowOffset: row.Offset,
			Flags:     row.Flags,
			Name:      name,
			Namespace: ns,
		}

		if !row.Extends.IsNull() {
			td.ExtendsToken = row.Extends.Token()
			switch row.Extends.Table {
			case token.TypeRef:
				base, err := resolveAs[*TypeRef](ctx, token.TypeRef, row.Extends.Row)
				if err != nil {
					return mderr.Locate(err, token.TypeDef, rid)
				}
				td.Extends = base
			case token.TypeDef:
				// Forward or backward self-table reference; filled in
				// once every row exists.
			default:
				return mderr.Unsupportedf("base type in table %s is not supported", row.Extends.Table).At(token.TypeDef, rid)
			}
		}

		start := row.FieldList
		end := logicalFields + 1
		if rid < total {
			next, err := defs.Row(rid + 1)
			if err != nil {
				return err
			}
			end = next.FieldList
		}
		if start == 0 || start > logicalFields+1 || end < start || end > logicalFields+1 {
			return mderr.Malformedf("field range [%d, %d) is invalid for %d fields", start, end, logicalFields).At(token.TypeDef, rid)
		}
		for i := start; i < end; i++ {
			f, err := fieldAt(ctx, i, viaPtr)
			if err != nil {
				return mderr.Locate(err, token.TypeDef, rid)
			}
			td.Fields = append(td.Fields, f)
		}

		return ctx.Registry.Insert(td)
	})
}

// fieldAt maps a logical field position to its field entity, following the
// field-pointer table when the module uses indirection.
func fieldAt(ctx *Context, logical uint32, viaPtr bool) (*Field, error) {
	if !viaPtr {
		return resolveAs[*Field](ctx, token.Field, logical)
	}
	fp, err := resolveAs[*FieldPtr](ctx, token.FieldPtr, logical)
	if err != nil {
		return nil, err
	}
	return fp.Target, nil
}

func (typeDefLoader) SecondPass(ctx *Context) error {
	for _, ent := range ctx.Registry.Table(token.TypeDef) {
		td := ent.(*TypeDef)
		if td.Extends != nil || td.ExtendsToken.IsNull() || td.ExtendsToken.Table() != token.TypeDef {
			continue
		}
		base, err := resolveAs[*TypeDef](ctx, token.TypeDef, td.ExtendsToken.Row())
		if err != nil {
			return mderr.Locate(err, token.TypeDef, td.RID)
		}
		if base == td {
			return mderr.Malformedf("type extends itself").At(token.TypeDef, td.RID)
		}
		td.Extends = base
	}
	return nil
}

package loader

import (
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

type paramLoader struct{}

func (paramLoader) Table() token.TableID          { return token.Param }
func (paramLoader) Dependencies() []token.TableID { return nil }

func (paramLoader) Load(ctx *Context) error {
	return ctx.Stream.Params.ForEach(ctx.Workers, func(rid uint32, row tables.ParamRow) error {
		name, err := ctx.Heaps.Strings.Get(row.Name)
		if err != nil {
			return mderr.Locate(err, token.Param, rid)
		}
		return ctx.Registry.Insert(&Param{
			RID:       rid,
			RowOffset: row.Offset,
			Flags:     row.Flags,
			Sequence:  row.Sequence,
			Name:      name,
		})
	})
}

type propertyLoader struct{}

func (propertyLoader) Table() token.TableID          { return token.Property }
func (propertyLoader) Dependencies() []token.TableID { return nil }

func (propertyLoader) Load(ctx *Context) error {
	return ctx.Stream.Properties.ForEach(ctx.Workers, func(rid uint32, row tables.PropertyRow) error {
		name, err := ctx.Heaps.Strings.Get(row.Name)
		if err != nil {
			return mderr.Locate(err, token.Property, rid)
		}
		sig, err := ctx.Heaps.Blobs.Get(row.Type)
		if err != nil {
			return mderr.Locate(err, token.Property, rid)
		}
		return ctx.Registry.Insert(&Property{
			RID:       rid,
			RowOffset: row.Offset,
			Flags:     row.Flags,
			Name:      name,
			Signature: sig,
		})
	})
}

// constantLoader applies default values onto fields, parameters and
// properties through their write-once cells. A constant without a parent,
// a parent of an unexpected kind, and a second constant for one parent are
// all malformed.
type constantLoader struct{}

func (constantLoader) Table() token.TableID { return token.Constant }

func (constantLoader) Dependencies() []token.TableID {
	return []token.TableID{token.Field, token.Param, token.Property}
}

func (constantLoader) Load(ctx *Context) error {
	return ctx.Stream.Constants.ForEach(ctx.Workers, func(rid uint32, row tables.ConstantRow) error {
		raw, err := ctx.Heaps.Blobs.Get(row.Value)
		if err != nil {
			return mderr.Locate(err, token.Constant, rid)
		}
		value := ConstantValue{Type: row.Type, Raw: raw}

		if row.Parent.IsNull() {
			return mderr.Malformedf("constant has no parent").At(token.Constant, rid)
		}
		parentTok := row.Parent.Token()
		parent, ok := ctx.Registry.Get(parentTok)
		if !ok {
			return mderr.Malformedf("unresolved constant parent %s", parentTok).At(token.Constant, rid)
		}

		switch p := parent.(type) {
		case *Field:
			err = p.Default.Set(value)
		case *Param:
			err = p.Default.Set(value)
		case *Property:
			err = p.Default.Set(value)
		default:
			return mderr.Malformedf("constant parent %s is not a field, parameter or property", parentTok).At(token.Constant, rid)
		}
		if err != nil {
			return mderr.Malformedf("duplicate default value for %s", parentTok).At(token.Constant, rid)
		}

		return ctx.Registry.Insert(&Constant{
			RID:         rid,
			RowOffset:   row.Offset,
			Value:       value,
			ParentToken: parentTok,
			Parent:      parent,
		})
	})
}

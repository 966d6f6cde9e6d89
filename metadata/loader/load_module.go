package loader

import (
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// moduleLoader resolves the module table. No dependencies: it sits in the
// first scheduling level alongside the other leaf tables.
type moduleLoader struct{}

func (moduleLoader) Table() token.TableID          { return token.Module }
func (moduleLoader) Dependencies() []token.TableID { return nil }

func (moduleLoader) Load(ctx *Context) error {
	return ctx.Stream.Modules.ForEach(ctx.Workers, func(rid uint32, row tables.ModuleRow) error {
		name, err := ctx.Heaps.Strings.Get(row.Name)
		if err != nil {
			return mderr.Locate(err, token.Module, rid)
		}
		mvid, err := ctx.Heaps.GUIDs.Get(row.Mvid)
		if err != nil {
			return mderr.Locate(err, token.Module, rid)
		}
		encID, err := ctx.Heaps.GUIDs.Get(row.EncID)
		if err != nil {
			return mderr.Locate(err, token.Module, rid)
		}
		encBase, err := ctx.Heaps.GUIDs.Get(row.EncBaseID)
		if err != nil {
			return mderr.Locate(err, token.Module, rid)
		}
		return ctx.Registry.Insert(&Module{
			RID:        rid,
			RowOffset:  row.Offset,
			Generation: row.Generation,
			Name:       name,
			Mvid:       mvid,
			EncID:      encID,
			EncBaseID:  encBase,
		})
	})
}

type moduleRefLoader struct{}

func (moduleRefLoader) Table() token.TableID          { return token.ModuleRef }
func (moduleRefLoader) Dependencies() []token.TableID { return nil }

func (moduleRefLoader) Load(ctx *Context) error {
	return ctx.Stream.ModuleRefs.ForEach(ctx.Workers, func(rid uint32, row tables.ModuleRefRow) error {
		name, err := ctx.Heaps.Strings.Get(row.Name)
		if err != nil {
			return mderr.Locate(err, token.ModuleRef, rid)
		}
		return ctx.Registry.Insert(&ModuleRef{RID: rid, RowOffset: row.Offset, Name: name})
	})
}

type assemblyLoader struct{}

func (assemblyLoader) Table() token.TableID          { return token.Assembly }
func (assemblyLoader) Dependencies() []token.TableID { return nil }

func (assemblyLoader) Load(ctx *Context) error {
	return ctx.Stream.Assemblies.ForEach(ctx.Workers, func(rid uint32, row tables.AssemblyRow) error {
		name, err := ctx.Heaps.Strings.Get(row.Name)
		if err != nil {
			return mderr.Locate(err, token.Assembly, rid)
		}
		culture, err := ctx.Heaps.Strings.Get(row.Culture)
		if err != nil {
			return mderr.Locate(err, token.Assembly, rid)
		}
		key, err := ctx.Heaps.Blobs.Get(row.PublicKey)
		if err != nil {
			return mderr.Locate(err, token.Assembly, rid)
		}
		return ctx.Registry.Insert(&Assembly{
			RID:       rid,
			RowOffset: row.Offset,
			HashAlgID: row.HashAlgID,
			Major:     row.Major,
			Minor:     row.Minor,
			Build:     row.Build,
			Revision:  row.Revision,
			Flags:     row.Flags,
			PublicKey: key,
			Name:      name,
			Culture:   culture,
		})
	})
}

type assemblyRefLoader struct{}

func (assemblyRefLoader) Table() token.TableID          { return token.AssemblyRef }
func (assemblyRefLoader) Dependencies() []token.TableID { return nil }

func (assemblyRefLoader) Load(ctx *Context) error {
	return ctx.Stream.AssemblyRefs.ForEach(ctx.Workers, func(rid uint32, row tables.AssemblyRefRow) error {
		name, err := ctx.Heaps.Strings.Get(row.Name)
		if err != nil {
			return mderr.Locate(err, token.AssemblyRef, rid)
		}
		culture, err := ctx.Heaps.Strings.Get(row.Culture)
		if err != nil {
			return mderr.Locate(err, token.AssemblyRef, rid)
		}
		key, err := ctx.Heaps.Blobs.Get(row.PublicKeyOrToken)
		if err != nil {
			return mderr.Locate(err, token.AssemblyRef, rid)
		}
		hash, err := ctx.Heaps.Blobs.Get(row.HashValue)
		if err != nil {
			return mderr.Locate(err, token.AssemblyRef, rid)
		}
		return ctx.Registry.Insert(&AssemblyRef{
			RID:              rid,
			RowOffset:        row.Offset,
			Major:            row.Major,
			Minor:            row.Minor,
			Build:            row.Build,
			Revision:         row.Revision,
			Flags:            row.Flags,
			PublicKeyOrToken: key,
			Name:             name,
			Culture:          culture,
			HashValue:        hash,
		})
	})
}

package tables

import (
	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
)

// ModuleRow is the raw Module record: the module's generation counter, its
// name in the strings heap and three GUID heap indexes (module version id
// plus the two edit-and-continue ids).
type ModuleRow struct {
	Offset     uint64
	Generation uint16
	Name       uint32
	Mvid       uint32
	EncID      uint32
	EncBaseID  uint32
}

// ModuleCodec encodes and decodes ModuleRow.
type ModuleCodec struct{}

func (ModuleCodec) Size(sizes *layout.TableSizes) int {
	return 2 + sizes.StringBytes() + 3*sizes.GUIDBytes()
}

func (ModuleCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (ModuleRow, error) {
	row := ModuleRow{Offset: uint64(r.Offset())}
	var err error
	if row.Generation, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Name, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	if row.Mvid, err = readGUIDIndex(r, sizes); err != nil {
		return row, err
	}
	if row.EncID, err = readGUIDIndex(r, sizes); err != nil {
		return row, err
	}
	if row.EncBaseID, err = readGUIDIndex(r, sizes); err != nil {
		return row, err
	}
	return row, nil
}

func (ModuleCodec) Write(w *buffer.Writer, row ModuleRow, sizes *layout.TableSizes) error {
	w.Uint16(row.Generation)
	if err := writeStringIndex(w, row.Name, sizes); err != nil {
		return err
	}
	if err := writeGUIDIndex(w, row.Mvid, sizes); err != nil {
		return err
	}
	if err := writeGUIDIndex(w, row.EncID, sizes); err != nil {
		return err
	}
	return writeGUIDIndex(w, row.EncBaseID, sizes)
}

// ModuleRefRow is the raw ModuleRef record: just a name in the strings heap.
type ModuleRefRow struct {
	Offset uint64
	Name   uint32
}

// ModuleRefCodec encodes and decodes ModuleRefRow.
type ModuleRefCodec struct{}

func (ModuleRefCodec) Size(sizes *layout.TableSizes) int {
	return sizes.StringBytes()
}

func (ModuleRefCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (ModuleRefRow, error) {
	row := ModuleRefRow{Offset: uint64(r.Offset())}
	var err error
	row.Name, err = readStringIndex(r, sizes)
	return row, err
}

func (ModuleRefCodec) Write(w *buffer.Writer, row ModuleRefRow, sizes *layout.TableSizes) error {
	return writeStringIndex(w, row.Name, sizes)
}

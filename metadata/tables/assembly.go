package tables

import (
	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
)

// AssemblyRow is the raw Assembly record: hash algorithm, four version
// parts, flags, the public key blob and name/culture strings.
type AssemblyRow struct {
	Offset    uint64
	HashAlgID uint32
	Major     uint16
	Minor     uint16
	Build     uint16
	Revision  uint16
	Flags     uint32
	PublicKey uint32
	Name      uint32
	Culture   uint32
}

// AssemblyCodec encodes and decodes AssemblyRow.
type AssemblyCodec struct{}

func (AssemblyCodec) Size(sizes *layout.TableSizes) int {
	return 16 + sizes.BlobBytes() + 2*sizes.StringBytes()
}

func (AssemblyCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (AssemblyRow, error) {
	row := AssemblyRow{Offset: uint64(r.Offset())}
	var err error
	if row.HashAlgID, err = r.Uint32(); err != nil {
		return row, err
	}
	if row.Major, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Minor, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Build, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Revision, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Flags, err = r.Uint32(); err != nil {
		return row, err
	}
	if row.PublicKey, err = readBlobIndex(r, sizes); err != nil {
		return row, err
	}
	if row.Name, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	if row.Culture, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	return row, nil
}

func (AssemblyCodec) Write(w *buffer.Writer, row AssemblyRow, sizes *layout.TableSizes) error {
	w.Uint32(row.HashAlgID)
	w.Uint16(row.Major)
	w.Uint16(row.Minor)
	w.Uint16(row.Build)
	w.Uint16(row.Revision)
	w.Uint32(row.Flags)
	if err := writeBlobIndex(w, row.PublicKey, sizes); err != nil {
		return err
	}
	if err := writeStringIndex(w, row.Name, sizes); err != nil {
		return err
	}
	return writeStringIndex(w, row.Culture, sizes)
}

// AssemblyRefRow is the raw AssemblyRef record: four version parts, flags,
// public key (or token) and hash blobs, and name/culture strings.
type AssemblyRefRow struct {
	Offset           uint64
	Major            uint16
	Minor            uint16
	Build            uint16
	Revision         uint16
	Flags            uint32
	PublicKeyOrToken uint32
	Name             uint32
	Culture          uint32
	HashValue        uint32
}

// AssemblyRefCodec encodes and decodes AssemblyRefRow.
type AssemblyRefCodec struct{}

func (AssemblyRefCodec) Size(sizes *layout.TableSizes) int {
	return 12 + 2*sizes.BlobBytes() + 2*sizes.StringBytes()
}

func (AssemblyRefCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (AssemblyRefRow, error) {
	row := AssemblyRefRow{Offset: uint64(r.Offset())}
	var err error
	if row.Major, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Minor, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Build, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Revision, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Flags, err = r.Uint32(); err != nil {
		return row, err
	}
	if row.PublicKeyOrToken, err = readBlobIndex(r, sizes); err != nil {
		return row, err
	}
	if row.Name, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	if row.Culture, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	if row.HashValue, err = readBlobIndex(r, sizes); err != nil {
		return row, err
	}
	return row, nil
}

func (AssemblyRefCodec) Write(w *buffer.Writer, row AssemblyRefRow, sizes *layout.TableSizes) error {
	w.Uint16(row.Major)
	w.Uint16(row.Minor)
	w.Uint16(row.Build)
	w.Uint16(row.Revision)
	w.Uint32(row.Flags)
	if err := writeBlobIndex(w, row.PublicKeyOrToken, sizes); err != nil {
		return err
	}
	if err := writeStringIndex(w, row.Name, sizes); err != nil {
		return err
	}
	if err := writeStringIndex(w, row.Culture, sizes); err != nil {
		return err
	}
	return writeBlobIndex(w, row.HashValue, sizes)
}

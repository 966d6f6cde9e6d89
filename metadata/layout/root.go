package layout

import (
	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
)

// rootMagic is the signature that opens the metadata region.
const rootMagic = 0x424A5342

// Canonical stream names.
const (
	StreamTables  = "#~"
	StreamStrings = "#Strings"
	StreamGUIDs   = "#GUID"
	StreamBlobs   = "#Blob"
)

// StreamHeader locates one named stream inside the metadata region.
// Offsets are relative to the start of the region.
type StreamHeader struct {
	Offset uint32
	Size   uint32
	Name   string
}

// Root is the decoded metadata region directory: the format version and
// the byte ranges of the table stream and the heaps.
type Root struct {
	Major   uint16
	Minor   uint16
	Version string
	Streams []StreamHeader
}

// Stream returns the header for the named stream.
func (r *Root) Stream(name string) (StreamHeader, bool) {
	for _, s := range r.Streams {
		if s.Name == name {
			return s, true
		}
	}
	return StreamHeader{}, false
}

// StreamData slices the named stream's bytes out of the full region. A
// missing heap stream yields an empty slice; the table stream is required
// by the caller, not here.
func (r *Root) StreamData(data []byte, name string) ([]byte, error) {
	s, ok := r.Stream(name)
	if !ok {
		return nil, nil
	}
	end := uint64(s.Offset) + uint64(s.Size)
	if end > uint64(len(data)) {
		return nil, mderr.Truncatedf(uint64(s.Offset), "stream %q of %d bytes runs past the buffer end", name, s.Size)
	}
	return data[s.Offset:end], nil
}

// ParseRoot decodes the metadata region directory and bounds-checks every
// declared stream range against the buffer, so truncation surfaces before
// any table is loaded.
func ParseRoot(data []byte) (*Root, error) {
	r := buffer.NewReader(data)
	magic, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if magic != rootMagic {
		return nil, mderr.Malformedf("bad metadata signature 0x%08X", magic)
	}
	major, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	minor, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	if _, err := r.Uint32(); err != nil { // reserved
		return nil, err
	}
	versionLen, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if versionLen > 255 {
		return nil, mderr.Malformedf("version string length %d is implausible", versionLen)
	}
	versionRaw, err := r.Bytes(int(versionLen))
	if err != nil {
		return nil, err
	}
	if _, err := r.Uint16(); err != nil { // flags
		return nil, err
	}
	streamCount, err := r.Uint16()
	if err != nil {
		return nil, err
	}

	root := &Root{
		Major:   major,
		Minor:   minor,
		Version: trimNULs(versionRaw),
	}
	for i := 0; i < int(streamCount); i++ {
		offset, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		size, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		name, err := readStreamName(r)
		if err != nil {
			return nil, err
		}
		if uint64(offset)+uint64(size) > uint64(len(data)) {
			return nil, mderr.Truncatedf(uint64(offset), "stream %q of %d bytes runs past the buffer end", name, size)
		}
		root.Streams = append(root.Streams, StreamHeader{Offset: offset, Size: size, Name: name})
	}
	return root, nil
}

// readStreamName reads a NUL-terminated name padded to a 4-byte boundary.
func readStreamName(r *buffer.Reader) (string, error) {
	var name []byte
	for {
		chunk, err := r.Bytes(4)
		if err != nil {
			return "", err
		}
		done := false
		for _, b := range chunk {
			if b == 0 {
				done = true
				break
			}
			name = append(name, b)
		}
		if done {
			return string(name), nil
		}
		if len(name) > 32 {
			return "", mderr.Malformedf("stream name exceeds 32 bytes")
		}
	}
}

func trimNULs(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}

// NamedStream pairs a stream name with its contents for serialization.
type NamedStream struct {
	Name string
	Data []byte
}

// BuildRoot assembles a complete metadata region from the given streams:
// directory first, stream bodies after, each aligned to 4 bytes.
func BuildRoot(version string, streams []NamedStream) []byte {
	w := buffer.NewWriter()
	w.Uint32(rootMagic)
	w.Uint16(1)
	w.Uint16(1)
	w.Uint32(0)
	versionPadded := pad4(len(version))
	w.Uint32(uint32(versionPadded))
	w.Raw([]byte(version))
	w.Pad(versionPadded - len(version))
	w.Uint16(0)
	w.Uint16(uint16(len(streams)))

	// Directory size must be known before offsets can be assigned.
	dirSize := w.Len()
	for _, s := range streams {
		dirSize += 8 + pad4(len(s.Name)+1)
	}

	offset := pad4(dirSize)
	for _, s := range streams {
		w.Uint32(uint32(offset))
		w.Uint32(uint32(len(s.Data)))
		w.Raw([]byte(s.Name))
		w.Pad(pad4(len(s.Name)+1) - len(s.Name))
		offset += pad4(len(s.Data))
	}

	w.Pad(pad4(w.Len()) - w.Len())
	for _, s := range streams {
		w.Raw(s.Data)
		w.Pad(pad4(len(s.Data)) - len(s.Data))
	}
	return w.Bytes()
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

package tables

import (
	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// Heap and table index field helpers shared by the row codecs. Each pair
// mirrors exactly: the write side emits the same width the read side
// consumed for the same size model.

func readStringIndex(r *buffer.Reader, sizes *layout.TableSizes) (uint32, error) {
	return r.Index(sizes.StringWide())
}

func writeStringIndex(w *buffer.Writer, v uint32, sizes *layout.TableSizes) error {
	return w.Index(v, sizes.StringWide())
}

func readGUIDIndex(r *buffer.Reader, sizes *layout.TableSizes) (uint32, error) {
	return r.Index(sizes.GUIDWide())
}

func writeGUIDIndex(w *buffer.Writer, v uint32, sizes *layout.TableSizes) error {
	return w.Index(v, sizes.GUIDWide())
}

func readBlobIndex(r *buffer.Reader, sizes *layout.TableSizes) (uint32, error) {
	return r.Index(sizes.BlobWide())
}

func writeBlobIndex(w *buffer.Writer, v uint32, sizes *layout.TableSizes) error {
	return w.Index(v, sizes.BlobWide())
}

func readTableIndex(r *buffer.Reader, sizes *layout.TableSizes, target token.TableID) (uint32, error) {
	return r.Index(sizes.TableIndexWide(target))
}

func writeTableIndex(w *buffer.Writer, v uint32, sizes *layout.TableSizes, target token.TableID) error {
	return w.Index(v, sizes.TableIndexWide(target))
}

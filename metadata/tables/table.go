// Package tables defines the raw row types of every supported metadata
// table, the per-row codecs that decode and encode them under a table size
// model, and the generic read-only container that exposes one table's rows.
//
// Raw rows contain only integers: heap offsets, table row indexes and
// coded-index references. Resolution into owned entities happens in the
// loader package; everything here is position and width arithmetic.
package tables

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// RowCodec reads and writes one row of a table at a given byte offset,
// with field widths dictated by the size model. Write followed by Read on
// the same buffer must reproduce the row bit for bit.
type RowCodec[T any] interface {
	// Size returns the encoded row size in bytes under the size model.
	Size(sizes *layout.TableSizes) int
	// Read decodes one row at the reader's position. rowID is the
	// 1-based id of the row being read, recorded for diagnostics.
	Read(r *buffer.Reader, rowID uint32, sizes *layout.TableSizes) (T, error)
	// Write encodes one row at the writer's position.
	Write(w *buffer.Writer, row T, sizes *layout.TableSizes) error
}

// Table is the immutable raw view of one metadata table inside the table
// stream. Rows are decoded on demand; the backing bytes are shared, never
// copied, and safe for concurrent readers.
type Table[T any] struct {
	id       token.TableID
	rowCount uint32
	rowSize  int
	data     []byte // the whole table stream
	base     int    // offset of this table's first row within data
	sizes    *layout.TableSizes
	codec    RowCodec[T]
}

// New slices one table out of the stream data starting at base. A stream
// shorter than rowCount full rows is a truncation error; no partial table
// is ever returned.
func New[T any](id token.TableID, codec RowCodec[T], sizes *layout.TableSizes, data []byte, base int, rowCount uint32) (*Table[T], error) {
	rowSize := codec.Size(sizes)
	need := int(rowCount) * rowSize
	if base+need > len(data) {
		return nil, mderr.Truncatedf(uint64(base),
			"%s declares %d rows of %d bytes but only %d bytes remain",
			id, rowCount, rowSize, len(data)-base)
	}
	return &Table[T]{
		id:       id,
		rowCount: rowCount,
		rowSize:  rowSize,
		data:     data,
		base:     base,
		sizes:    sizes,
		codec:    codec,
	}, nil
}

// ID returns the table kind.
func (t *Table[T]) ID() token.TableID { return t.id }

// RowCount returns the number of rows.
func (t *Table[T]) RowCount() uint32 { return t.rowCount }

// RowSize returns the encoded size of one row in bytes.
func (t *Table[T]) RowSize() int { return t.rowSize }

// End returns the stream offset one past this table's last row.
func (t *Table[T]) End() int { return t.base + int(t.rowCount)*t.rowSize }

// Row decodes the row with the given 1-based id.
func (t *Table[T]) Row(rowID uint32) (T, error) {
	var zero T
	if rowID == 0 || rowID > t.rowCount {
		return zero, mderr.OutOfRangef("row %d outside table of %d rows", rowID, t.rowCount).At(t.id, rowID)
	}
	r := buffer.NewReaderAt(t.data, t.base+int(rowID-1)*t.rowSize)
	row, err := t.codec.Read(r, rowID, t.sizes)
	if err != nil {
		return zero, mderr.Locate(err, t.id, rowID)
	}
	return row, nil
}

// All decodes every row in order.
func (t *Table[T]) All() ([]T, error) {
	out := make([]T, 0, t.rowCount)
	for i := uint32(1); i <= t.rowCount; i++ {
		row, err := t.Row(i)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// ForEach decodes and processes rows in parallel: rows within a table are
// independent. The first error wins and remaining results are discarded.
func (t *Table[T]) ForEach(workers int, fn func(rowID uint32, row T) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := uint32(1); i <= t.rowCount; i++ {
		rowID := i
		g.Go(func() error {
			row, err := t.Row(rowID)
			if err != nil {
				return err
			}
			return fn(rowID, row)
		})
	}
	return g.Wait()
}

// WriteAll encodes rows back into w in order, preserving the layout the
// size model dictates.
func WriteAll[T any](w *buffer.Writer, codec RowCodec[T], sizes *layout.TableSizes, rows []T) error {
	for _, row := range rows {
		if err := codec.Write(w, row, sizes); err != nil {
			return err
		}
	}
	return nil
}

package tilefile

import (
	"fmt"
	"math"
	"os"

	"github.com/robert-malhotra/go-blockreduce/blockreduce"
	binpkg "github.com/robert-malhotra/go-blockreduce/internal/binary"
)

// File is an open tile file. Data is stored row-major as little-endian
// float64 values at a fixed offset after the header, so a row range maps to
// one contiguous file range. Disjoint row ranges may be read and written
// from concurrent goroutines; os.File's ReadAt and WriteAt make that safe.
type File struct {
	path     string
	file     *os.File
	reader   *binpkg.Reader
	writer   *binpkg.Writer
	header   *header
	writable bool
	closed   bool
}

// File implements the blockreduce store contract.
var _ blockreduce.Store = (*File)(nil)

// Open opens a tile file for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	reader := binpkg.NewReader(f)
	h, err := readHeader(reader)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &File{
		path:   path,
		file:   f,
		reader: reader,
		header: h,
	}, nil
}

// Create creates a tile file of the given shape, pre-sized to its full data
// length, open for reading and writing. An existing file is truncated.
func Create(path string, rows, cols, layers int, opts ...Option) (*File, error) {
	co := &createOptions{}
	for _, opt := range opts {
		opt(co)
	}

	h := &header{
		elemSize:  8,
		rows:      rows,
		cols:      cols,
		layers:    layers,
		noData:    co.noData,
		hasNoData: co.hasNoData,
	}
	if err := h.validate(); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	writer := binpkg.NewWriter(f)
	if err := writeHeader(writer, h); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	size := int64(headerSize) + int64(rows)*int64(cols)*int64(layers)*8
	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("sizing file: %w", err)
	}

	return &File{
		path:     path,
		file:     f,
		reader:   binpkg.NewReader(f),
		writer:   writer,
		header:   h,
		writable: true,
	}, nil
}

// OpenWritable opens an existing tile file for reading and writing.
func OpenWritable(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	reader := binpkg.NewReader(f)
	h, err := readHeader(reader)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &File{
		path:     path,
		file:     f,
		reader:   reader,
		writer:   binpkg.NewWriter(f),
		header:   h,
		writable: true,
	}, nil
}

// Close closes the underlying file. Further operations return ErrClosed.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Dims returns the row and column counts.
func (f *File) Dims() (int, int) {
	return f.header.rows, f.header.cols
}

// Layers returns the layer count.
func (f *File) Layers() int {
	return f.header.layers
}

// ElemSize returns the on-disk element size in bytes.
func (f *File) ElemSize() int {
	return f.header.elemSize
}

// NoData returns the missing-value sentinel and whether one is set.
func (f *File) NoData() (float64, bool) {
	return f.header.noData, f.header.hasNoData
}

// ReadRows reads the given row range. Cells equal to the no-data sentinel
// come back as NaN.
func (f *File) ReadRows(start, rows int) (*blockreduce.Block, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if err := f.checkRange(start, rows); err != nil {
		return nil, err
	}

	b := blockreduce.NewBlock(rows, f.header.cols, f.header.layers)
	r := f.reader.At(f.dataOffset(start))
	if err := r.ReadFloat64s(b.Data); err != nil {
		return nil, fmt.Errorf("reading rows [%d,%d): %w", start, start+rows, err)
	}

	if f.header.hasNoData {
		for i, v := range b.Data {
			if v == f.header.noData {
				b.Data[i] = math.NaN()
			}
		}
	}
	return b, nil
}

// WriteRows writes a block at the given start row. NaN cells are stored as
// the no-data sentinel when one is set.
func (f *File) WriteRows(start int, b *blockreduce.Block) error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	if b.Cols != f.header.cols || b.Layers != f.header.layers {
		return fmt.Errorf("%w: block %dx%dx%d, file %dx%dx%d", ErrInvalidShape,
			b.Rows, b.Cols, b.Layers, f.header.rows, f.header.cols, f.header.layers)
	}
	if err := f.checkRange(start, b.Rows); err != nil {
		return err
	}

	data := b.Data
	if f.header.hasNoData {
		data = make([]float64, len(b.Data))
		for i, v := range b.Data {
			if math.IsNaN(v) {
				data[i] = f.header.noData
			} else {
				data[i] = v
			}
		}
	}

	w := f.writer.At(f.dataOffset(start))
	if err := w.WriteFloat64s(data); err != nil {
		return fmt.Errorf("writing rows [%d,%d): %w", start, start+b.Rows, err)
	}
	return nil
}

// dataOffset returns the file offset of the first element of a row.
func (f *File) dataOffset(row int) int64 {
	stride := int64(f.header.cols) * int64(f.header.layers) * 8
	return int64(headerSize) + int64(row)*stride
}

func (f *File) checkRange(start, rows int) error {
	if start < 0 || rows < 1 || start+rows > f.header.rows {
		return fmt.Errorf("rows [%d,%d) out of range [0,%d)",
			start, start+rows, f.header.rows)
	}
	return nil
}

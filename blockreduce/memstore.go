package blockreduce

import "fmt"

// MemStore is a dense in-memory Store. It holds float64 elements and starts
// out entirely missing (all NaN). Concurrent reads and writes of disjoint
// row ranges are safe; overlapping concurrent writes are not.
type MemStore struct {
	rows   int
	cols   int
	layers int
	data   []float64
}

// NewMemStore allocates an all-missing store of the given shape.
func NewMemStore(rows, cols, layers int) *MemStore {
	data := make([]float64, rows*cols*layers)
	for i := range data {
		data[i] = Missing()
	}
	return &MemStore{rows: rows, cols: cols, layers: layers, data: data}
}

// Dims returns the row and column counts.
func (m *MemStore) Dims() (int, int) {
	return m.rows, m.cols
}

// Layers returns the layer count.
func (m *MemStore) Layers() int {
	return m.layers
}

// ElemSize returns the element size in bytes.
func (m *MemStore) ElemSize() int {
	return 8
}

// At returns the element at (row, col, layer).
func (m *MemStore) At(row, col, layer int) float64 {
	return m.data[(row*m.cols+col)*m.layers+layer]
}

// Set stores v at (row, col, layer).
func (m *MemStore) Set(row, col, layer int, v float64) {
	m.data[(row*m.cols+col)*m.layers+layer] = v
}

// ReadRows copies the given row range into a new block.
func (m *MemStore) ReadRows(start, rows int) (*Block, error) {
	if err := m.checkRange(start, rows); err != nil {
		return nil, err
	}
	b := NewBlock(rows, m.cols, m.layers)
	stride := m.cols * m.layers
	copy(b.Data, m.data[start*stride:(start+rows)*stride])
	return b, nil
}

// WriteRows copies a block into the given row range.
func (m *MemStore) WriteRows(start int, b *Block) error {
	if b.Cols != m.cols || b.Layers != m.layers {
		return fmt.Errorf("block shape %dx%dx%d does not match store %dx%dx%d",
			b.Rows, b.Cols, b.Layers, m.rows, m.cols, m.layers)
	}
	if err := m.checkRange(start, b.Rows); err != nil {
		return err
	}
	stride := m.cols * m.layers
	copy(m.data[start*stride:(start+b.Rows)*stride], b.Data)
	return nil
}

func (m *MemStore) checkRange(start, rows int) error {
	if start < 0 || rows < 1 || start+rows > m.rows {
		return fmt.Errorf("rows [%d,%d) out of range [0,%d)", start, start+rows, m.rows)
	}
	return nil
}

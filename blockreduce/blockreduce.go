// Package blockreduce computes streaming statistical reductions over 2-D/3-D
// array data that is too large to hold in memory. The array is partitioned
// into row-aligned blocks sized against an explicit memory budget; each block
// is read from a Store, reduced cell-wise across the layer dimension, and the
// single-layer result written back to an output Store at the same row range.
//
// Blocks are independent: a block's output depends only on its own input
// rows, so the block size chosen by the planner affects performance only,
// never results. Missing values are represented as IEEE NaN and are excluded
// from every reduction.
package blockreduce

import "math"

// Store is the contract for block-addressable 2-D/3-D array storage.
// Implementations must support reads of disjoint row ranges from concurrent
// goroutines, and writes of disjoint row ranges likewise when used as a
// reduction output.
type Store interface {
	// Dims returns the row and column counts.
	Dims() (rows, cols int)

	// Layers returns the number of layers (bands) per cell.
	Layers() int

	// ElemSize returns the on-disk size of one element in bytes.
	ElemSize() int

	// ReadRows reads the given row range as a rows x cols x layers block.
	ReadRows(start, rows int) (*Block, error)

	// WriteRows writes a block at the given start row. The block's column
	// and layer counts must match the store's.
	WriteRows(start int, b *Block) error
}

// Block is an in-memory slice of array data in row-major order with the
// layer index innermost: element (r, c, l) lives at ((r*Cols)+c)*Layers + l.
// Missing values are NaN.
type Block struct {
	Rows   int
	Cols   int
	Layers int
	Data   []float64
}

// NewBlock allocates a zero-filled block of the given shape.
func NewBlock(rows, cols, layers int) *Block {
	return &Block{
		Rows:   rows,
		Cols:   cols,
		Layers: layers,
		Data:   make([]float64, rows*cols*layers),
	}
}

// At returns the element at (row, col, layer).
func (b *Block) At(row, col, layer int) float64 {
	return b.Data[(row*b.Cols+col)*b.Layers+layer]
}

// Set stores v at (row, col, layer).
func (b *Block) Set(row, col, layer int, v float64) {
	b.Data[(row*b.Cols+col)*b.Layers+layer] = v
}

// cell returns the contiguous layer values for (row, col).
func (b *Block) cell(row, col int) []float64 {
	base := (row*b.Cols + col) * b.Layers
	return b.Data[base : base+b.Layers]
}

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Missing returns the missing-value sentinel.
func Missing() float64 {
	return math.NaN()
}

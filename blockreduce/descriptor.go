package blockreduce

import "fmt"

// Descriptor describes the shape and element size of an array to be planned.
// All fields must be positive.
type Descriptor struct {
	Rows     int
	Cols     int
	Layers   int
	ElemSize int
}

// DescriptorOf derives a Descriptor from a store.
func DescriptorOf(s Store) Descriptor {
	rows, cols := s.Dims()
	return Descriptor{
		Rows:     rows,
		Cols:     cols,
		Layers:   s.Layers(),
		ElemSize: s.ElemSize(),
	}
}

// Validate checks the descriptor invariants.
func (d Descriptor) Validate() error {
	if d.Rows < 1 || d.Cols < 1 || d.Layers < 1 || d.ElemSize < 1 {
		return fmt.Errorf("%w: %dx%dx%d elements of %d bytes",
			ErrInvalidDescriptor, d.Rows, d.Cols, d.Layers, d.ElemSize)
	}
	return nil
}

// BytesPerRow returns the footprint of one full row across all layers.
func (d Descriptor) BytesPerRow() uint64 {
	return uint64(d.Cols) * uint64(d.Layers) * uint64(d.ElemSize)
}

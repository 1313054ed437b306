package blockreduce

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidDescriptor = errors.New("invalid array descriptor")
	ErrInvalidBudget     = errors.New("memory budget resolves to zero bytes")
	ErrBudgetExceeded    = errors.New("memory budget exceeded")
	ErrShapeMismatch     = errors.New("store shape mismatch")
	ErrUnknownKind       = errors.New("unknown reduction kind")
)

// StoreOp identifies which store operation failed.
type StoreOp string

// Store operations.
const (
	OpRead  StoreOp = "read"
	OpWrite StoreOp = "write"
)

// StoreError wraps an I/O failure from a Store with the operation and the
// row range it hit. A StoreError aborts the run; the output store's contents
// are undefined afterwards and must be discarded by the caller.
type StoreError struct {
	Op    StoreOp
	Start int
	Rows  int
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s rows [%d,%d): %v", e.Op, e.Start, e.Start+e.Rows, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

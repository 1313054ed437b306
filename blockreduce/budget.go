package blockreduce

import (
	"fmt"

	"github.com/c2h5oh/datasize"
)

// Budget is the memory ceiling a plan must respect. Either Bytes is set to
// an absolute ceiling, or Fraction is set to take a share of Of, a
// caller-reported available-memory quantity. The planner never samples
// system memory itself, so identical budgets always plan identically.
//
// Copies is the number of simultaneous in-memory copies of a block the
// chosen reduction needs (1 for a streaming sum, 2 for an accumulator plus
// input, and so on). Zero means 1. It is an empirical, per-reduction
// constant, not something derived from layer counts.
type Budget struct {
	Bytes    datasize.ByteSize
	Fraction float64
	Of       datasize.ByteSize
	Copies   int
}

// AbsoluteBudget returns a budget with a fixed byte ceiling and one copy.
func AbsoluteBudget(bytes datasize.ByteSize) Budget {
	return Budget{Bytes: bytes}
}

// FractionalBudget returns a budget taking a fraction of a caller-reported
// available quantity, with one copy.
func FractionalBudget(fraction float64, of datasize.ByteSize) Budget {
	return Budget{Fraction: fraction, Of: of}
}

// copies returns the effective copy multiplier.
func (b Budget) copies() uint64 {
	if b.Copies < 1 {
		return 1
	}
	return uint64(b.Copies)
}

// Resolve returns the byte ceiling the budget denotes.
// The ceiling must be positive or the budget is invalid.
func (b Budget) Resolve() (uint64, error) {
	if b.Bytes > 0 {
		return uint64(b.Bytes), nil
	}
	if b.Fraction > 0 && b.Of > 0 {
		if ceiling := uint64(b.Fraction * float64(b.Of)); ceiling > 0 {
			return ceiling, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrInvalidBudget, b)
}

func (b Budget) String() string {
	if b.Bytes > 0 {
		return fmt.Sprintf("%s x%d", b.Bytes.HumanReadable(), b.copies())
	}
	return fmt.Sprintf("%.2f of %s x%d", b.Fraction, b.Of.HumanReadable(), b.copies())
}

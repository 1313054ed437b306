package blockreduce

import "fmt"

// Range is a contiguous run of rows, [Start, Start+Rows).
type Range struct {
	Start int
	Rows  int
}

// End returns the exclusive end row.
func (r Range) End() int {
	return r.Start + r.Rows
}

// Plan is an ordered partition of an array's rows into budget-sized blocks.
// The ranges cover [0, rows) exactly once, contiguous and increasing. A plan
// is immutable once built; compute it once per run with NewPlan.
type Plan struct {
	// RowsPerBlock is the block height every range uses, except a shorter
	// final remainder.
	RowsPerBlock int

	// Ranges is the ordered block partition.
	Ranges []Range

	// Clamped reports the degenerate case where even a single row exceeds
	// the budget: the plan proceeds at one row per block anyway, and the
	// caller may want to retry with a larger budget. This is the warning
	// counterpart of ErrBudgetExceeded, not a failure.
	Clamped bool

	ceiling    uint64 // resolved byte ceiling the plan was built against
	blockBytes uint64 // footprint of one full block, copies included
}

// NewPlan partitions the described array into row blocks whose footprint
// stays within the budget, for sequential execution (one block in memory at
// a time). It is a pure function of its inputs: identical (descriptor,
// budget) pairs always produce identical plans.
func NewPlan(d Descriptor, b Budget) (Plan, error) {
	return NewPlanWorkers(d, b, 1)
}

// NewPlanWorkers plans for concurrent execution of up to workers blocks at
// once. Concurrency multiplies the in-memory footprint, so each block gets
// a 1/workers share of the budget and the whole run still fits the ceiling.
func NewPlanWorkers(d Descriptor, b Budget, workers int) (Plan, error) {
	if err := d.Validate(); err != nil {
		return Plan{}, err
	}
	ceiling, err := b.Resolve()
	if err != nil {
		return Plan{}, err
	}
	if workers < 1 {
		return Plan{}, fmt.Errorf("%w: %d workers", ErrInvalidBudget, workers)
	}

	perRow := d.BytesPerRow() * b.copies()
	rowsPerBlock := int(ceiling / uint64(workers) / perRow)

	clamped := false
	if rowsPerBlock < 1 {
		// A single row already exceeds the per-block share of the
		// budget. Proceed at minimum granularity rather than failing.
		rowsPerBlock = 1
		clamped = true
	}
	if rowsPerBlock > d.Rows {
		rowsPerBlock = d.Rows
	}

	ranges := make([]Range, 0, (d.Rows+rowsPerBlock-1)/rowsPerBlock)
	for start := 0; start < d.Rows; start += rowsPerBlock {
		ranges = append(ranges, Range{Start: start, Rows: min(rowsPerBlock, d.Rows-start)})
	}

	return Plan{
		RowsPerBlock: rowsPerBlock,
		Ranges:       ranges,
		Clamped:      clamped,
		ceiling:      ceiling,
		blockBytes:   uint64(rowsPerBlock) * perRow,
	}, nil
}

// Rows returns the total number of rows the plan covers.
func (p Plan) Rows() int {
	if len(p.Ranges) == 0 {
		return 0
	}
	return p.Ranges[len(p.Ranges)-1].End()
}

// Blocks returns the number of blocks in the plan.
func (p Plan) Blocks() int {
	return len(p.Ranges)
}

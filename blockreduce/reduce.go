package blockreduce

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"
)

// Reducer executes block plans against a pair of stores. The input store is
// only read, the output store only written; both must have the same row and
// column counts and the output store exactly one layer.
type Reducer struct {
	in  Store
	out Store
	cfg config
}

// New validates the store shapes and returns a Reducer.
func New(in, out Store, opts ...Option) (*Reducer, error) {
	inRows, inCols := in.Dims()
	outRows, outCols := out.Dims()
	if inRows != outRows || inCols != outCols {
		return nil, fmt.Errorf("%w: input %dx%d, output %dx%d",
			ErrShapeMismatch, inRows, inCols, outRows, outCols)
	}
	if out.Layers() != 1 {
		return nil, fmt.Errorf("%w: output store has %d layers, want 1",
			ErrShapeMismatch, out.Layers())
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Reducer{in: in, out: out, cfg: cfg}, nil
}

// Reduce runs the plan to completion. Each range is read from the input
// store, reduced with kind, and written to the output store at the same
// start row. Any read or write failure aborts the run with a *StoreError
// naming the failing range; the output store must then be discarded, no
// cleanup of already-written blocks is attempted. Cancellation via ctx is
// honored between blocks; a block in flight finishes first.
func (r *Reducer) Reduce(ctx context.Context, plan Plan, kind Kind) error {
	if !kind.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	if rows, _ := r.in.Dims(); plan.Rows() != rows {
		return fmt.Errorf("%w: plan covers %d rows, store has %d",
			ErrShapeMismatch, plan.Rows(), rows)
	}

	if plan.Clamped {
		level.Warn(r.cfg.logger).Log(
			"msg", "single row exceeds memory budget, proceeding one row per block",
			"ceiling_bytes", plan.ceiling,
			"row_bytes", plan.blockBytes,
		)
	}
	level.Debug(r.cfg.logger).Log(
		"msg", "starting reduction",
		"kind", kind,
		"blocks", plan.Blocks(),
		"rows_per_block", plan.RowsPerBlock,
		"workers", r.cfg.workers,
	)

	start := time.Now()
	var err error
	if r.cfg.workers > 1 {
		err = r.reduceParallel(ctx, plan, kind)
	} else {
		err = r.reduceSequential(ctx, plan, kind)
	}
	r.cfg.metrics.observeRun(time.Since(start).Seconds())

	if err != nil {
		level.Error(r.cfg.logger).Log("msg", "reduction aborted", "kind", kind, "err", err)
		return err
	}
	level.Debug(r.cfg.logger).Log("msg", "reduction complete", "kind", kind,
		"duration", time.Since(start))
	return nil
}

func (r *Reducer) reduceSequential(ctx context.Context, plan Plan, kind Kind) error {
	for _, rng := range plan.Ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.process(rng, kind); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reducer) reduceParallel(ctx context.Context, plan Plan, kind Kind) error {
	// The planner's ceiling is per block; running workers blocks at once
	// multiplies the footprint, so the same ceiling must cover all of them.
	if total := uint64(r.cfg.workers) * plan.blockBytes; total > plan.ceiling {
		return fmt.Errorf("%w: %d workers need %d bytes, ceiling is %d",
			ErrBudgetExceeded, r.cfg.workers, total, plan.ceiling)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.workers)
	for _, rng := range plan.Ranges {
		// Stop dispatching once a worker failed or the caller cancelled;
		// blocks already running finish on their own.
		if gctx.Err() != nil {
			break
		}
		rng := rng
		g.Go(func() error {
			return r.process(rng, kind)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// process runs the read-reduce-write pipeline for one range. Output ranges
// are disjoint, so completion order does not matter.
func (r *Reducer) process(rng Range, kind Kind) error {
	in, err := r.in.ReadRows(rng.Start, rng.Rows)
	if err != nil {
		return &StoreError{Op: OpRead, Start: rng.Start, Rows: rng.Rows, Err: err}
	}

	out := reduceBlock(kind, in)

	if err := r.out.WriteRows(rng.Start, out); err != nil {
		return &StoreError{Op: OpWrite, Start: rng.Start, Rows: rng.Rows, Err: err}
	}

	r.cfg.metrics.observeBlock(
		len(in.Data)*r.in.ElemSize(),
		len(out.Data)*r.out.ElemSize(),
	)
	return nil
}

package tilefile

// Option configures file creation.
type Option func(*createOptions)

type createOptions struct {
	noData    float64
	hasNoData bool
}

// WithNoData designates a sentinel value for missing cells, the usual
// raster convention. On read the sentinel becomes NaN; on write NaN becomes
// the sentinel. Without it, NaN is stored directly.
func WithNoData(v float64) Option {
	return func(o *createOptions) {
		o.noData = v
		o.hasNoData = true
	}
}

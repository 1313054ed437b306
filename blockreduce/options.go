package blockreduce

import (
	"github.com/go-kit/log"
)

// Option configures a Reducer.
type Option func(*config)

type config struct {
	workers int
	logger  log.Logger
	metrics *Metrics
}

func defaultConfig() config {
	return config{
		workers: 1,
		logger:  log.NewNopLogger(),
	}
}

// WithWorkers sets the number of blocks processed concurrently. Values
// below 1 are ignored. With more than one worker the total concurrent
// footprint (workers x block footprint) is validated against the plan's
// ceiling at run time.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics attaches run metrics. The default records nothing.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

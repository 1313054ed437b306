package blockreduce

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects per-run counters. All methods are nil-safe so a Reducer
// without metrics pays nothing.
type Metrics struct {
	blocksProcessed prometheus.Counter
	readBytes       prometheus.Counter
	writtenBytes    prometheus.Counter
	reduceDuration  prometheus.Histogram
}

// NewMetrics registers and returns reduction metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		blocksProcessed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "blockreduce",
			Name:      "blocks_processed_total",
			Help:      "Total number of blocks read, reduced and written.",
		}),
		readBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "blockreduce",
			Name:      "read_bytes_total",
			Help:      "Total bytes read from input stores.",
		}),
		writtenBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "blockreduce",
			Name:      "written_bytes_total",
			Help:      "Total bytes written to output stores.",
		}),
		reduceDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "blockreduce",
			Name:      "reduce_duration_seconds",
			Help:      "Wall time of complete Reduce runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeBlock(readBytes, writtenBytes int) {
	if m == nil {
		return
	}
	m.blocksProcessed.Inc()
	m.readBytes.Add(float64(readBytes))
	m.writtenBytes.Add(float64(writtenBytes))
}

func (m *Metrics) observeRun(seconds float64) {
	if m == nil {
		return
	}
	m.reduceDuration.Observe(seconds)
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the shredding service.
type Metrics struct {
	// Shred runs by shredder and outcome
	ShredRuns *prometheus.CounterVec

	// Per-shredder transaction duration
	ShredDuration *prometheus.HistogramVec

	// Export files generated
	ExportFiles prometheus.Counter
}

// New creates a Metrics instance with all shredding metrics registered.
func New() *Metrics {
	return &Metrics{
		ShredRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "eventshred_shred_runs_total",
			Help: "Total shred transactions by shredder and outcome",
		}, []string{"shredder", "outcome"}), // outcome: "ok", "error"

		ShredDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventshred_shred_duration_seconds",
			Help:    "Duration of one shredder's destructive transaction",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"shredder"}),

		ExportFiles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventshred_export_files_total",
			Help: "Pre-deletion export files generated",
		}),
	}
}

// ObserveShred records one shred transaction.
func (m *Metrics) ObserveShred(shredder, outcome string, d time.Duration) {
	if m != nil {
		m.ShredRuns.WithLabelValues(shredder, outcome).Inc()
		m.ShredDuration.WithLabelValues(shredder).Observe(d.Seconds())
	}
}

// AddExportFiles records generated export files.
func (m *Metrics) AddExportFiles(n int) {
	if m != nil {
		m.ExportFiles.Add(float64(n))
	}
}

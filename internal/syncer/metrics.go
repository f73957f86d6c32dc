package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the engine does; useful on long-lived sessions
// and on the server's own roster if it ever runs one.
type Metrics struct {
	Reconciliations *prometheus.CounterVec
	Uploads         prometheus.Counter
	UploadFailures  prometheus.Counter
	Coalesced       prometheus.Counter
}

// NewMetrics registers the engine counters. registry may be nil, in
// which case the counters still work but are not exported.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		Reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cuaderno_sync_reconciliations_total",
			Help: "Startup/sign-in reconciliations by outcome.",
		}, []string{"outcome"}),
		Uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cuaderno_sync_uploads_total",
			Help: "Snapshot uploads attempted.",
		}),
		UploadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cuaderno_sync_upload_failures_total",
			Help: "Snapshot uploads that failed.",
		}),
		Coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cuaderno_sync_coalesced_total",
			Help: "Debounce triggers absorbed into a pending upload.",
		}),
	}
	if registry != nil {
		registry.MustRegister(m.Reconciliations, m.Uploads, m.UploadFailures, m.Coalesced)
	}
	return m
}

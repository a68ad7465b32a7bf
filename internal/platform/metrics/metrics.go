package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors shared by the content modules.
type Metrics struct {
	RecordWrites          *prometheus.CounterVec
	DocumentConflicts     *prometheus.CounterVec
	RealtimeSubscribers   prometheus.Gauge
	RealtimeDropped       *prometheus.CounterVec
	RealtimePublishErrors prometheus.Counter
}

// New registers the collectors with reg, or the default registry when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RecordWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_record_writes_total",
			Help: "Successful row writes by table and change type",
		}, []string{"table", "type"}),
		DocumentConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_document_conflicts_total",
			Help: "Rejected document operations by reason",
		}, []string{"reason"}),
		RealtimeSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "civic_realtime_subscribers",
			Help: "Current number of realtime subscribers",
		}),
		RealtimeDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_realtime_dropped_total",
			Help: "Changes dropped because a subscriber buffer was full",
		}, []string{"table"}),
		RealtimePublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "civic_realtime_publish_errors_total",
			Help: "Changes that could not be forwarded to the change feed",
		}),
	}
}

func (m *Metrics) IncrementRecordWrites(table, changeType string) {
	m.RecordWrites.WithLabelValues(table, changeType).Inc()
}

func (m *Metrics) IncrementDocumentConflict(reason string) {
	m.DocumentConflicts.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementSubscribers() { m.RealtimeSubscribers.Inc() }
func (m *Metrics) DecrementSubscribers() { m.RealtimeSubscribers.Dec() }

func (m *Metrics) IncrementDropped(table string) {
	m.RealtimeDropped.WithLabelValues(table).Inc()
}

func (m *Metrics) IncrementPublishErrors() { m.RealtimePublishErrors.Inc() }

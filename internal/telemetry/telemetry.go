package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Tracker fans telemetry out to Prometheus and the structured log. All
// methods are fire-and-forget; callers never consume a return value.
type Tracker struct {
	logger *zap.Logger

	events       *prometheus.CounterVec
	exceptions   *prometheus.CounterVec
	analysisTime prometheus.Histogram
	payments     *prometheus.CounterVec
}

// NewTracker registers the tracker's collectors with reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func NewTracker(logger *zap.Logger, reg prometheus.Registerer) *Tracker {
	factory := promauto.With(reg)
	return &Tracker{
		logger: logger,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_events_total",
			Help: "Count of emitted telemetry events by name",
		}, []string{"event"}),
		exceptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_exceptions_total",
			Help: "Count of tracked exceptions by component",
		}, []string{"component"}),
		analysisTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_analysis_duration_seconds",
			Help:    "Duration of risk analysis runs",
			Buckets: prometheus.DefBuckets,
		}),
		payments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_processed_total",
			Help: "Payment outcomes by gateway and status",
		}, []string{"gateway", "status"}),
	}
}

// TrackEvent records a named event with string properties.
func (t *Tracker) TrackEvent(name string, properties map[string]string) {
	t.events.WithLabelValues(name).Inc()

	fields := make([]zap.Field, 0, len(properties)+1)
	fields = append(fields, zap.String("event", name))
	for k, v := range properties {
		fields = append(fields, zap.String(k, v))
	}
	t.logger.Info("telemetry event", fields...)
}

// TrackMetric records a numeric measurement.
func (t *Tracker) TrackMetric(name string, value float64) {
	switch name {
	case "risk_analysis_duration_seconds":
		t.analysisTime.Observe(value)
	default:
		t.logger.Debug("telemetry metric",
			zap.String("metric", name),
			zap.Float64("value", value))
	}
}

// TrackException records an error attributed to a component.
func (t *Tracker) TrackException(err error, component string) {
	t.exceptions.WithLabelValues(component).Inc()
	t.logger.Error("telemetry exception",
		zap.String("component", component),
		zap.Error(err))
}

// TrackPayment records a payment outcome for a gateway.
func (t *Tracker) TrackPayment(gateway, status string) {
	t.payments.WithLabelValues(gateway, status).Inc()
}

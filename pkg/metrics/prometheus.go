package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions   *prometheus.CounterVec
	deviation     *prometheus.GaugeVec
	adjustments   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on reg, or on the default registry when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_predictions_total",
				Help: "Total number of prediction requests by outcome",
			},
			[]string{"symbol", "period", "result"},
		),
		deviation: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coincast_prediction_deviation_percent",
				Help: "Deviation of the last prediction from the live price",
			},
			[]string{"symbol"},
		),
		adjustments: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_prediction_adjustments_total",
				Help: "Predictions changed by an adjuster",
			},
			[]string{"symbol", "adjuster"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_notifications_total",
				Help: "Deviation notifications by outcome",
			},
			[]string{"result"},
		),
		deliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coincast_relay_deliveries_total",
				Help: "Relay message deliveries by outcome",
			},
			[]string{"result"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coincast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordPrediction(symbol, period, result string) {
	r.predictions.WithLabelValues(symbol, period, result).Inc()
}

func (r *Recorder) RecordDeviation(symbol string, pct float64) {
	r.deviation.WithLabelValues(symbol).Set(pct)
}

func (r *Recorder) RecordAdjustment(symbol, adjuster string) {
	r.adjustments.WithLabelValues(symbol, adjuster).Inc()
}

func (r *Recorder) RecordNotification(result string) {
	r.notifications.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordDelivery(result string) {
	r.deliveries.WithLabelValues(result).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordPrediction(string, string, string) {}
func (Nop) RecordDeviation(string, float64)         {}
func (Nop) RecordAdjustment(string, string)         {}
func (Nop) RecordNotification(string)               {}
func (Nop) RecordDelivery(string)                   {}
func (Nop) RecordLatency(string, float64)           {}

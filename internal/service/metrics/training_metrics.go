package metrics

import (
	"math"
	"sync"

	"CoinCast/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	TrainingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coincast",
			Subsystem: "training",
			Name:      "duration_seconds",
			Help:      "Wall time of one symbol's training run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"symbol"},
	)

	TrainingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coincast",
			Subsystem: "training",
			Name:      "runs_total",
			Help:      "Training runs by symbol and result",
		},
		[]string{"symbol", "result"},
	)

	TrainingLoss = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "coincast",
			Subsystem: "training",
			Name:      "loss",
			Help:      "Final MSE of the last successful run",
		},
		[]string{"symbol", "split"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(TrainingDuration, TrainingRuns, TrainingLoss)
	})
}

// ObserveTraining records the outcome of one symbol's run.
func ObserveTraining(r models.TrainingResult) {
	TrainingDuration.WithLabelValues(r.Symbol).Observe(r.Duration.Seconds())
	if !r.OK() {
		TrainingRuns.WithLabelValues(r.Symbol, "error").Inc()
		return
	}
	TrainingRuns.WithLabelValues(r.Symbol, "ok").Inc()
	TrainingLoss.WithLabelValues(r.Symbol, "train").Set(r.TrainLoss)
	if !math.IsNaN(r.ValLoss) {
		TrainingLoss.WithLabelValues(r.Symbol, "validation").Set(r.ValLoss)
	}
}

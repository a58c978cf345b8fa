package repository

import (
	"context"
	"errors"

	"CoinCast/internal/domain/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// HistoryFetcher loads closing prices oldest first.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, symbol string, g models.Granularity, limit int) (models.PriceSeries, error)
}

// SubscriptionStore keeps the userId to chat mapping. Upserts for the same
// userId are last-write-wins.
type SubscriptionStore interface {
	Get(ctx context.Context, userID string) (*models.Subscription, error)
	Upsert(ctx context.Context, sub *models.Subscription) error
}

// PredictionRecorder persists served predictions for later analysis.
type PredictionRecorder interface {
	Record(ctx context.Context, p *models.Prediction) error
	Close() error
}

// EventPublisher announces served predictions to downstream consumers.
type EventPublisher interface {
	PublishPrediction(ctx context.Context, e models.PredictionEvent) error
	Close() error
}

type Metrics interface {
	RecordPrediction(symbol, period, result string)
	RecordDeviation(symbol string, pct float64)
	RecordAdjustment(symbol, adjuster string)
	RecordNotification(result string)
	RecordDelivery(result string)
	RecordLatency(op string, seconds float64)
}

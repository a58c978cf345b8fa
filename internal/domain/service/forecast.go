package service

import (
	"context"

	"CoinCast/internal/domain/models"
)

// Forecaster turns fetched history and the live price into a next-step price.
// history is the series as fetched; live has not been substituted into it.
type Forecaster interface {
	Name() string
	// Supports must be cheap and never touch the network.
	Supports(symbol string) bool
	Forecast(ctx context.Context, symbol string, history models.PriceSeries, live float64) (float64, error)
}

// PredictionAdjuster post-processes a forecast using the recent unscaled window.
type PredictionAdjuster interface {
	Name() string
	Adjust(predicted, live float64, window []float64) float64
}

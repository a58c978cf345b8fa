package repository

import (
	"context"
	"database/sql"
	"fmt"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"
)

// ClickHouseSchema returns the statements that create the predictions table.
func ClickHouseSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.predictions (
			id String,
			created_at DateTime64(3),
			symbol LowCardinality(String),
			period LowCardinality(String),
			engine LowCardinality(String),
			live_price Float64,
			raw_prediction Float64,
			prediction Float64,
			adjusted UInt8,
			deviation_pct Float64,
			notified UInt8
		) ENGINE = MergeTree ORDER BY (symbol, created_at)`, database),
	}
}

// ClickHousePredictionRecorder appends predictions for analytics.
type ClickHousePredictionRecorder struct {
	db    *sql.DB
	table string
}

func NewClickHousePredictionRecorder(db *sql.DB, database string) *ClickHousePredictionRecorder {
	return &ClickHousePredictionRecorder{db: db, table: database + ".predictions"}
}

func (r *ClickHousePredictionRecorder) Record(ctx context.Context, p *models.Prediction) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, created_at, symbol, period, engine, live_price,
		raw_prediction, prediction, adjusted, deviation_pct, notified) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.table)
	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.CreatedAt, p.Symbol, p.Period, p.Engine, p.LivePrice,
		p.RawPrediction, p.Value, boolToUInt8(p.Adjusted), p.DeviationPct, boolToUInt8(p.Notified),
	)
	if err != nil {
		return fmt.Errorf("clickhouse insert prediction: %w", err)
	}
	return nil
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (r *ClickHousePredictionRecorder) Close() error { return nil }

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// NopPredictionRecorder discards predictions.
type NopPredictionRecorder struct{}

func (NopPredictionRecorder) Record(context.Context, *models.Prediction) error { return nil }
func (NopPredictionRecorder) Close() error                                     { return nil }

var (
	_ repository.PredictionRecorder = (*ClickHousePredictionRecorder)(nil)
	_ repository.PredictionRecorder = NopPredictionRecorder{}
)

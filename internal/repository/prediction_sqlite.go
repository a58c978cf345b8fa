package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"

	_ "modernc.org/sqlite"
)

// SQLitePredictionRecorder keeps an audit trail of served predictions.
type SQLitePredictionRecorder struct {
	db *sql.DB
}

// NewSQLitePredictionRecorder opens or creates the database and migrates it.
func NewSQLitePredictionRecorder(path string) (*SQLitePredictionRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer; WAL lets readers run alongside it
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	r := &SQLitePredictionRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLitePredictionRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id             TEXT PRIMARY KEY,
			created_at     INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			period         TEXT NOT NULL,
			engine         TEXT NOT NULL,
			live_price     REAL NOT NULL,
			raw_prediction REAL NOT NULL,
			prediction     REAL NOT NULL,
			adjusted       INTEGER NOT NULL,
			window_average REAL,
			deviation_pct  REAL,
			notified       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_symbol_ts ON predictions(symbol, created_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLitePredictionRecorder) Record(ctx context.Context, p *models.Prediction) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO predictions
		(id, created_at, symbol, period, engine, live_price, raw_prediction, prediction, adjusted, window_average, deviation_pct, notified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CreatedAt.UnixMilli(), p.Symbol, p.Period, p.Engine,
		p.LivePrice, p.RawPrediction, p.Value, p.Adjusted, p.WindowAverage, p.DeviationPct, p.Notified,
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// Recent returns the latest predictions for symbol, newest first.
func (r *SQLitePredictionRecorder) Recent(ctx context.Context, symbol string, limit int) ([]models.Prediction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, created_at, symbol, period, engine, live_price,
		raw_prediction, prediction, adjusted, window_average, deviation_pct, notified
		FROM predictions WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []models.Prediction
	for rows.Next() {
		var p models.Prediction
		var ts int64
		if err := rows.Scan(&p.ID, &ts, &p.Symbol, &p.Period, &p.Engine, &p.LivePrice,
			&p.RawPrediction, &p.Value, &p.Adjusted, &p.WindowAverage, &p.DeviationPct, &p.Notified); err != nil {
			return nil, err
		}
		p.CreatedAt = time.UnixMilli(ts).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLitePredictionRecorder) Close() error {
	return r.db.Close()
}

var _ repository.PredictionRecorder = (*SQLitePredictionRecorder)(nil)

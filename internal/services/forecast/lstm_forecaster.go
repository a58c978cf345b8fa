package forecast

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"CoinCast/internal/domain/models"
	domsvc "CoinCast/internal/domain/service"
	"CoinCast/internal/services/lstm"
	applogger "CoinCast/pkg/logger"
)

// ModelPath returns the artifact path for symbol inside dir.
func ModelPath(dir, symbol string) string {
	return filepath.Join(dir, strings.ToUpper(symbol)+"_lstm_model.json")
}

// ScalerPath returns the scaler path for symbol inside dir.
func ScalerPath(dir, symbol string) string {
	return filepath.Join(dir, strings.ToUpper(symbol)+"_scaler.json")
}

// Entry pairs a trained network with the scaler it was trained with.
type Entry struct {
	Network *lstm.Network
	Scaler  *MinMaxScaler
}

// Registry holds loaded models by symbol. It is built once and never mutated,
// so lookups need no locking.
type Registry struct {
	windowSize int
	entries    map[string]Entry
}

// NewRegistry validates each entry against windowSize.
func NewRegistry(windowSize int, entries map[string]Entry) (*Registry, error) {
	r := &Registry{windowSize: windowSize, entries: make(map[string]Entry, len(entries))}
	for sym, e := range entries {
		if e.Network == nil || e.Scaler == nil {
			return nil, fmt.Errorf("%s: model or scaler missing", sym)
		}
		steps, features := e.Network.InputShape()
		if steps != windowSize || features != 1 {
			return nil, fmt.Errorf("%w: %s expects (%d, %d), window is (%d, 1)",
				models.ErrShapeMismatch, sym, steps, features, windowSize)
		}
		r.entries[strings.ToUpper(sym)] = e
	}
	return r, nil
}

// LoadRegistry reads the artifacts of every symbol from dir. A missing or
// mismatched artifact is an error.
func LoadRegistry(dir string, symbols []string, windowSize int, l *applogger.Logger) (*Registry, error) {
	entries := make(map[string]Entry, len(symbols))
	var errs []error
	for _, sym := range symbols {
		sym = strings.ToUpper(sym)
		a, err := lstm.Load(ModelPath(dir, sym))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sym, err))
			continue
		}
		sc, err := LoadScaler(ScalerPath(dir, sym))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sym, err))
			continue
		}
		entries[sym] = Entry{Network: a.Network, Scaler: sc}
		if l != nil {
			l.Info("model loaded",
				applogger.String("symbol", sym),
				applogger.Any("trained_at", a.TrainedAt),
			)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return NewRegistry(windowSize, entries)
}

func (r *Registry) Lookup(symbol string) (Entry, bool) {
	e, ok := r.entries[symbol]
	return e, ok
}

// LSTMForecaster serves predictions from a Registry.
type LSTMForecaster struct {
	registry *Registry
}

func NewLSTMForecaster(r *Registry) *LSTMForecaster {
	return &LSTMForecaster{registry: r}
}

func (*LSTMForecaster) Name() string { return "lstm" }

func (f *LSTMForecaster) Supports(symbol string) bool {
	_, ok := f.registry.Lookup(symbol)
	return ok
}

// Forecast substitutes live for the last fetched close before scaling.
func (f *LSTMForecaster) Forecast(_ context.Context, symbol string, history models.PriceSeries, live float64) (float64, error) {
	e, ok := f.registry.Lookup(symbol)
	if !ok {
		return 0, fmt.Errorf("%w: %s", models.ErrUnsupportedSymbol, symbol)
	}
	if len(history) == 0 {
		return 0, models.ErrNoData
	}
	w, err := Prepare(history, live, f.registry.windowSize, e.Scaler)
	if err != nil {
		return 0, err
	}
	scaled, err := e.Network.Predict(w.Steps())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrShapeMismatch, err)
	}
	return e.Scaler.Inverse(scaled), nil
}

var _ domsvc.Forecaster = (*LSTMForecaster)(nil)

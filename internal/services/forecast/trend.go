package forecast

import (
	"context"
	"fmt"
	"strings"

	"CoinCast/internal/domain/models"
	domsvc "CoinCast/internal/domain/service"
)

// TrendForecaster applies the mean step-to-step percentage change of the
// fetched closes to the live price. It needs no trained artifacts.
type TrendForecaster struct {
	symbols map[string]struct{}
}

// NewTrendForecaster supports every symbol in the allow-list.
func NewTrendForecaster(symbols []string) *TrendForecaster {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(s)] = struct{}{}
	}
	return &TrendForecaster{symbols: set}
}

func (*TrendForecaster) Name() string { return "trend" }

func (f *TrendForecaster) Supports(symbol string) bool {
	_, ok := f.symbols[symbol]
	return ok
}

func (f *TrendForecaster) Forecast(_ context.Context, symbol string, history models.PriceSeries, live float64) (float64, error) {
	if !f.Supports(symbol) {
		return 0, fmt.Errorf("%w: %s", models.ErrUnsupportedSymbol, symbol)
	}
	if len(history) == 0 {
		return 0, models.ErrNoData
	}
	closes := history.Closes()
	if len(closes) < 2 {
		return live, nil
	}
	changes := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		changes = append(changes, (closes[i]-closes[i-1])/closes[i-1])
	}
	return live * (1 + Mean(changes)), nil
}

var _ domsvc.Forecaster = (*TrendForecaster)(nil)

package forecast

import (
	"fmt"

	"CoinCast/internal/domain/models"
)

// Window is a scaled model input of shape (1, len(Values), 1).
type Window struct {
	Values []float64
}

// Shape returns (samples, timesteps, features).
func (w Window) Shape() (int, int, int) { return 1, len(w.Values), 1 }

// Steps returns the window as timesteps x features.
func (w Window) Steps() [][]float64 {
	out := make([][]float64, len(w.Values))
	for i, v := range w.Values {
		out[i] = []float64{v}
	}
	return out
}

// Prepare substitutes live for the last sample, scales the whole series and
// keeps the last windowSize values. series itself is not modified.
func Prepare(series models.PriceSeries, live float64, windowSize int, scaler *MinMaxScaler) (Window, error) {
	if windowSize < 1 {
		return Window{}, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if len(series) < windowSize {
		return Window{}, fmt.Errorf("%w: have %d samples, need %d", models.ErrInsufficientData, len(series), windowSize)
	}
	scaled := scaler.TransformAll(series.WithLive(live).Closes())
	return Window{Values: scaled[len(scaled)-windowSize:]}, nil
}

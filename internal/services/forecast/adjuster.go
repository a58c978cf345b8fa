package forecast

import (
	"fmt"

	domsvc "CoinCast/internal/domain/service"
)

// MomentumAdjuster pushes the forecast above the live price when the live
// price is above the window average: live + (live - avg) * Factor.
type MomentumAdjuster struct {
	Factor float64
}

func (MomentumAdjuster) Name() string { return "momentum" }

func (a MomentumAdjuster) Adjust(predicted, live float64, window []float64) float64 {
	if len(window) == 0 {
		return predicted
	}
	avg := Mean(window)
	if live > avg {
		return live + (live-avg)*a.Factor
	}
	return predicted
}

// NoopAdjuster returns forecasts unchanged.
type NoopAdjuster struct{}

func (NoopAdjuster) Name() string { return "none" }

func (NoopAdjuster) Adjust(predicted, _ float64, _ []float64) float64 { return predicted }

// NewAdjuster selects an adjuster by name.
func NewAdjuster(name string, factor float64) (domsvc.PredictionAdjuster, error) {
	switch name {
	case "momentum":
		return MomentumAdjuster{Factor: factor}, nil
	case "none", "":
		return NoopAdjuster{}, nil
	default:
		return nil, fmt.Errorf("unknown adjuster %q", name)
	}
}

// Mean is the arithmetic mean; it returns 0 for an empty slice.
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

var (
	_ domsvc.PredictionAdjuster = MomentumAdjuster{}
	_ domsvc.PredictionAdjuster = NoopAdjuster{}
)

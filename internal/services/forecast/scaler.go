package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"CoinCast/pkg/util"
)

// MinMaxScaler maps [DataMin, DataMax] linearly onto [FeatureMin, FeatureMax].
// Values outside the fitted range are extrapolated, never clipped.
type MinMaxScaler struct {
	DataMin    float64 `json:"data_min"`
	DataMax    float64 `json:"data_max"`
	FeatureMin float64 `json:"feature_min"`
	FeatureMax float64 `json:"feature_max"`
}

// FitMinMax fits a scaler onto the [0, 1] range.
func FitMinMax(values []float64) (*MinMaxScaler, error) {
	if len(values) == 0 {
		return nil, errors.New("cannot fit scaler on empty data")
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("cannot fit scaler on non-finite value %v", v)
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return &MinMaxScaler{DataMin: lo, DataMax: hi, FeatureMin: 0, FeatureMax: 1}, nil
}

// scale returns the multiplier; a constant series gets a unit data range.
func (s *MinMaxScaler) scale() float64 {
	rng := s.DataMax - s.DataMin
	if rng == 0 {
		rng = 1
	}
	return (s.FeatureMax - s.FeatureMin) / rng
}

func (s *MinMaxScaler) Transform(v float64) float64 {
	return (v-s.DataMin)*s.scale() + s.FeatureMin
}

func (s *MinMaxScaler) Inverse(v float64) float64 {
	return (v-s.FeatureMin)/s.scale() + s.DataMin
}

func (s *MinMaxScaler) TransformAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = s.Transform(v)
	}
	return out
}

func (s *MinMaxScaler) validate() error {
	for _, v := range []float64{s.DataMin, s.DataMax, s.FeatureMin, s.FeatureMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("scaler has non-finite parameters")
		}
	}
	if s.DataMax < s.DataMin || s.FeatureMax <= s.FeatureMin {
		return errors.New("scaler ranges are inverted")
	}
	return nil
}

// Save writes the scaler atomically as JSON.
func (s *MinMaxScaler) Save(path string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal scaler: %w", err)
	}
	return util.WriteFileAtomic(path, b, 0o644)
}

// LoadScaler reads a scaler written by Save.
func LoadScaler(path string) (*MinMaxScaler, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}
	var s MinMaxScaler
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode scaler %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scaler %s: %w", path, err)
	}
	return &s, nil
}

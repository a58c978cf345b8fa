package models

import (
	"fmt"
	"math"
	"time"
)

// Granularity is the spacing between historical samples.
type Granularity string

const (
	GranularityMinute Granularity = "minute"
	GranularityHour   Granularity = "hour"
	GranularityDay    Granularity = "day"
)

// Valid reports whether g is a supported granularity.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityMinute, GranularityHour, GranularityDay:
		return true
	default:
		return false
	}
}

// PricePoint is one closing price sample.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// PriceSeries is ordered oldest first.
type PriceSeries []PricePoint

// Validate checks that timestamps strictly increase and every close is positive.
func (s PriceSeries) Validate() error {
	for i, p := range s {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			return fmt.Errorf("%w: non-positive close %v at index %d", ErrMalformedSeries, p.Close, i)
		}
		if i > 0 && !p.Time.After(s[i-1].Time) {
			return fmt.Errorf("%w: timestamp at index %d does not increase", ErrMalformedSeries, i)
		}
	}
	return nil
}

// Closes returns the closing prices in order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

// WithLive returns a copy whose last close is replaced by live. The length
// never changes; an empty series stays empty.
func (s PriceSeries) WithLive(live float64) PriceSeries {
	out := make(PriceSeries, len(s))
	copy(out, s)
	if len(out) > 0 {
		out[len(out)-1].Close = live
	}
	return out
}

// Tail returns the last n closes, or all of them when n exceeds the length.
func (s PriceSeries) Tail(n int) []float64 {
	closes := s.Closes()
	if n >= len(closes) {
		return closes
	}
	return closes[len(closes)-n:]
}

package util

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNotPositive = errors.New("value must be positive")

// ParsePositiveFloat parses a decimal string and rejects zero, negatives,
// NaN and infinities.
func ParsePositiveFloat(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	f := d.InexactFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, ErrNotPositive
	}
	return f, nil
}

// Fixed2 renders f rounded half away from zero to two decimal places.
func Fixed2(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

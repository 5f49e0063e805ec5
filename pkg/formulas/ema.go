package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateEMA calculates the Exponential Moving Average
//
// EMA Formula:
//
//	EMA_today = (Price_today × multiplier) + (EMA_yesterday × (1 - multiplier))
//	where multiplier = 2 / (period + 1)
//
// Returns nil for an empty series. With fewer values than length the mean
// of all values is returned.
func CalculateEMA(values []float64, length int) *float64 {
	if len(values) == 0 || length <= 0 {
		return nil
	}

	if len(values) < length {
		sma := Mean(values)
		return &sma
	}

	ema := talib.Ema(values, length)
	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	sma := Mean(values[len(values)-length:])
	return &sma
}

// CalculateSMA calculates the Simple Moving Average of the last length values.
func CalculateSMA(values []float64, length int) *float64 {
	if length <= 0 || len(values) < length {
		return nil
	}

	sma := talib.Sma(values, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// Package history keeps the recent sell-price series of the tracked item.
package history

import (
	"time"

	"github.com/aristath/flipper/pkg/formulas"
)

// DefaultCapacity keeps one hour of 15 second polls.
const DefaultCapacity = 240

// Default moving average periods.
const (
	ShortPeriod = 4
	LongPeriod  = 20
)

// Point is one observed price.
type Point struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// Stats summarizes a series.
type Stats struct {
	Count  int      `json:"count"`
	Last   float64  `json:"last"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Mean   float64  `json:"mean"`
	StdDev float64  `json:"std_dev"`
	SMA    *float64 `json:"sma,omitempty"`
	EMA    *float64 `json:"ema,omitempty"`
}

// Series is a bounded, oldest-first list of points.
// It is not safe for concurrent use.
type Series struct {
	capacity int
	points   []Point
}

// NewSeries creates a series holding at most capacity points.
func NewSeries(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{capacity: capacity, points: make([]Point, 0, capacity)}
}

// Add appends a point, dropping the oldest when full.
func (s *Series) Add(at time.Time, value float64) {
	if len(s.points) == s.capacity {
		copy(s.points, s.points[1:])
		s.points = s.points[:len(s.points)-1]
	}
	s.points = append(s.points, Point{At: at, Value: value})
}

// Reset drops all points.
func (s *Series) Reset() {
	s.points = s.points[:0]
}

// Len returns the number of points.
func (s *Series) Len() int {
	return len(s.points)
}

// Points returns a copy of the points.
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Values returns the point values in order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}
	return out
}

// Stats summarizes the series.
func (s *Series) Stats() Stats {
	values := s.Values()
	if len(values) == 0 {
		return Stats{}
	}

	lo, hi := formulas.MinMax(values)
	return Stats{
		Count:  len(values),
		Last:   values[len(values)-1],
		Min:    lo,
		Max:    hi,
		Mean:   formulas.Mean(values),
		StdDev: formulas.StdDev(values),
		SMA:    formulas.CalculateSMA(values, ShortPeriod),
		EMA:    formulas.CalculateEMA(values, LongPeriod),
	}
}

// ChartRange returns y-axis bounds with a 5% margin of the spread, or 1% of
// the value when the series is flat. ok is false with fewer than two points.
func (s *Series) ChartRange() (lo, hi float64, ok bool) {
	if len(s.points) < 2 {
		return 0, 0, false
	}
	lo, hi = formulas.MinMax(s.Values())
	margin := (hi - lo) * 0.05
	if hi == lo {
		margin = lo * 0.01
	}
	return lo - margin, hi + margin, true
}

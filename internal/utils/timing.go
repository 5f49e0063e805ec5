// Package utils provides small helpers shared across packages.
package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Timer measures one operation and warns when it runs longer than slowAfter.
// A zero slowAfter never warns.
type Timer struct {
	start     time.Time
	name      string
	slowAfter time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewTimer starts a timer.
func NewTimer(name string, slowAfter time.Duration, log zerolog.Logger) *Timer {
	return &Timer{
		start:     time.Now(),
		name:      name,
		slowAfter: slowAfter,
		log:       log,
		now:       time.Now,
	}
}

// Stop logs the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	duration := t.now().Sub(t.start)

	t.log.Debug().
		Str("operation", t.name).
		Dur("duration_ms", duration).
		Msg("Operation completed")

	if t.slowAfter > 0 && duration > t.slowAfter {
		t.log.Warn().
			Str("operation", t.name).
			Dur("duration", duration).
			Dur("threshold", t.slowAfter).
			Msg("Slow operation detected")
	}

	return duration
}

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	func (s *Service) Refresh() {
//	    defer utils.OperationTimer("refresh", 10*time.Second, s.log)()
//	}
func OperationTimer(operation string, slowAfter time.Duration, log zerolog.Logger) func() {
	timer := NewTimer(operation, slowAfter, log)
	return func() {
		timer.Stop()
	}
}

// MeasureQuery measures a database statement and logs the rows it touched.
func MeasureQuery(queryName string, log zerolog.Logger) func(rowsAffected int64) {
	start := time.Now()

	return func(rowsAffected int64) {
		duration := time.Since(start)

		log.Debug().
			Str("query", queryName).
			Dur("duration_ms", duration).
			Int64("rows_affected", rowsAffected).
			Msg("Database query completed")

		if duration > 5*time.Second {
			log.Warn().
				Str("query", queryName).
				Dur("duration", duration).
				Int64("rows_affected", rowsAffected).
				Msg("Slow database query detected")
		}
	}
}

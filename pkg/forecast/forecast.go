// Package forecast computes the recurring monthly reset boundary and
// extrapolates budget exhaustion from the current burn rate.
package forecast

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownTimezone reports a timezone identifier that could not be
// loaded. Callers that receive it have already been given a usable UTC
// fallback; the error exists so they can log the condition.
var ErrUnknownTimezone = errors.New("unknown timezone")

// Predictor derives reset and depletion times.
type Predictor struct {
	log *zap.Logger
}

// NewPredictor creates a Predictor that logs timezone fallbacks.
func NewPredictor(log *zap.Logger) *Predictor {
	return &Predictor{log: log}
}

// Location resolves a timezone name, falling back to UTC for unknown
// identifiers. The returned location is always usable; err is
// ErrUnknownTimezone when the fallback was taken.
func Location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, ErrUnknownTimezone
	}
	return loc, nil
}

// NextReset returns the first instant of the first day of the next
// calendar month, evaluated in the named timezone and expressed back in
// now's location. An unknown timezone falls back to UTC with a warning,
// never an error.
func (p *Predictor) NextReset(now time.Time, tzName string) time.Time {
	loc, err := Location(tzName)
	if err != nil {
		p.log.Warn("unknown timezone, falling back to UTC", zap.String("timezone", tzName))
	}

	local := now.In(loc)
	// time.Date normalizes month 13 into January of the next year.
	reset := time.Date(local.Year(), local.Month()+1, 1, 0, 0, 0, 0, loc)
	return reset.In(now.Location())
}

// PredictedExhaustion linearly extrapolates when the remaining token
// budget runs out at the given burn rate (tokens per minute). With no
// positive burn rate or no remaining budget the prediction is the reset
// time itself: no depletion before renewal.
func (p *Predictor) PredictedExhaustion(now time.Time, tokensRemaining int64, burnRate float64, resetTime time.Time) time.Time {
	if burnRate <= 0 || tokensRemaining <= 0 {
		return resetTime
	}
	minutes := float64(tokensRemaining) / burnRate
	return now.Add(time.Duration(minutes * float64(time.Minute)))
}

// DepletesBeforeReset reports whether the predicted exhaustion precedes
// the reset boundary, i.e. the budget runs out before it renews.
func DepletesBeforeReset(predicted, reset time.Time) bool {
	return predicted.Before(reset)
}

// Package alerts evaluates a fixed threshold table against current
// usage, firing at most one alert per (kind, credential, calendar day).
package alerts

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/burndown-ai/burndown/pkg/models"
	"github.com/burndown-ai/burndown/pkg/store"
)

// threshold is one entry of the fixed alert table.
type threshold struct {
	kind    models.AlertKind
	value   float64
	message string
	observe func(u models.CurrentUsage) (float64, bool)
}

func usageObserver(frac float64) func(models.CurrentUsage) (float64, bool) {
	return func(u models.CurrentUsage) (float64, bool) {
		pct := u.UsedFraction()
		return pct, pct >= frac
	}
}

func costObserver(limit float64) func(models.CurrentUsage) (float64, bool) {
	return func(u models.CurrentUsage) (float64, bool) {
		return u.TotalCost, u.TotalCost >= limit
	}
}

// thresholds is the fixed business-rule table; it is not configurable
// scheduling policy.
var thresholds = []threshold{
	{models.AlertUsage50, 0.5, "Token usage exceeded 50%", usageObserver(0.5)},
	{models.AlertUsage75, 0.75, "Token usage exceeded 75%", usageObserver(0.75)},
	{models.AlertUsage90, 0.9, "Token usage exceeded 90%", usageObserver(0.9)},
	{models.AlertCost10, 10.0, "Monthly cost exceeded $10", costObserver(10.0)},
	{models.AlertCost50, 50.0, "Monthly cost exceeded $50", costObserver(50.0)},
	{models.AlertHighBurnRate, 500.0, "High burn rate detected (>500 tokens/min)", func(u models.CurrentUsage) (float64, bool) {
		return u.BurnRate, u.BurnRate >= 500.0
	}},
}

// Engine checks usage against the threshold table and records fired
// alerts in the ledger.
type Engine struct {
	store *store.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewEngine creates an Engine backed by the given ledger store.
func NewEngine(s *store.Store, log *zap.Logger) *Engine {
	return &Engine{store: s, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Evaluate fires an alert for each satisfied threshold that has not
// already fired today for the same credential, and returns the newly
// inserted alerts. Repeated calls within the same calendar day are
// idempotent; a new day resets eligibility.
func (e *Engine) Evaluate(ctx context.Context, credentialID string, usage models.CurrentUsage) ([]models.Alert, error) {
	now := e.now()
	var fired []models.Alert
	for _, t := range thresholds {
		observed, satisfied := t.observe(usage)
		if !satisfied {
			continue
		}
		alert := models.Alert{
			CredentialID: credentialID,
			Kind:         t.kind,
			Threshold:    t.value,
			Observed:     observed,
			Message:      t.message,
			Active:       true,
			TriggeredAt:  now,
		}
		inserted, err := e.store.InsertAlertIfNew(ctx, alert)
		if err != nil {
			return fired, fmt.Errorf("evaluate %s: %w", t.kind, err)
		}
		if inserted {
			e.log.Info("alert fired",
				zap.String("kind", string(t.kind)),
				zap.Float64("threshold", t.value),
				zap.Float64("observed", observed))
			fired = append(fired, alert)
		}
	}
	return fired, nil
}

// Recent returns active alerts triggered within the trailing window.
func (e *Engine) Recent(ctx context.Context, window time.Duration, credentialID string) ([]models.Alert, error) {
	return e.store.ActiveAlertsSince(ctx, e.now().Add(-window), credentialID)
}

// Deactivate marks one alert inactive.
func (e *Engine) Deactivate(ctx context.Context, id int64) error {
	return e.store.DeactivateAlert(ctx, id)
}

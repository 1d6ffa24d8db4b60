package models

import "time"

// AlertKind names a threshold in the fixed alert table.
type AlertKind string

const (
	AlertUsage50      AlertKind = "usage_50"
	AlertUsage75      AlertKind = "usage_75"
	AlertUsage90      AlertKind = "usage_90"
	AlertCost10       AlertKind = "cost_10"
	AlertCost50       AlertKind = "cost_50"
	AlertHighBurnRate AlertKind = "high_burn_rate"
)

// Alert is a fired threshold notification. At most one alert of a given
// kind exists per (credential, calendar day); it stays active until
// explicitly deactivated.
type Alert struct {
	ID           int64     `json:"id"`
	CredentialID string    `json:"credential_id,omitempty"`
	Kind         AlertKind `json:"kind"`
	Threshold    float64   `json:"threshold"`
	Observed     float64   `json:"observed"`
	Message      string    `json:"message"`
	Active       bool      `json:"active"`
	TriggeredAt  time.Time `json:"triggered_at"`
}

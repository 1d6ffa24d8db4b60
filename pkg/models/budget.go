package models

// BudgetSetting holds the monthly budget for one credential scope.
// One row per (month, credential), upserted.
type BudgetSetting struct {
	Month           string    `json:"month" yaml:"month"` // YYYY-MM
	CredentialID    string    `json:"credential_id,omitempty" yaml:"credential_id,omitempty"`
	BudgetLimit     float64   `json:"budget_limit" yaml:"budget_limit"`
	TokenLimit      int64     `json:"token_limit" yaml:"token_limit"`
	AlertThresholds []float64 `json:"alert_thresholds" yaml:"alert_thresholds"`
}

package models

// DailySummary is a derived rollup keyed by (calendar date, credential).
// It is recomputed in full from usage events and upserted idempotently,
// never incrementally drifted.
type DailySummary struct {
	Date         string   `json:"date"` // YYYY-MM-DD
	CredentialID string   `json:"credential_id,omitempty"`
	TotalTokens  int64    `json:"total_tokens"`
	TotalCost    float64  `json:"total_cost"`
	CallCount    int      `json:"call_count"`
	ModelsUsed   []string `json:"models_used"`
	AvgBurnRate  float64  `json:"avg_burn_rate"`
	PeakBurnRate float64  `json:"peak_burn_rate"`
}

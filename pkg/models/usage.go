package models

import "time"

// Usage holds token counts reported for a single API call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// UsageEvent is one logged API call. Events are immutable once written.
type UsageEvent struct {
	ID               int64     `json:"id"`
	SessionID        string    `json:"session_id"`
	CredentialID     string    `json:"credential_id,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	Cost             float64   `json:"cost"`
}

// CurrentUsage is the snapshot the monitor loop feeds to the alert
// engine and the depletion predictor each cycle.
type CurrentUsage struct {
	TokensUsed int64   `json:"tokens_used"`
	TokenLimit int64   `json:"token_limit"`
	TotalCost  float64 `json:"total_cost"`
	BurnRate   float64 `json:"burn_rate"`
}

// UsedFraction returns tokens used as a fraction of the limit, or 0
// when no limit is set.
func (u CurrentUsage) UsedFraction() float64 {
	if u.TokenLimit <= 0 {
		return 0
	}
	return float64(u.TokensUsed) / float64(u.TokenLimit)
}

// ModelUsage aggregates usage for one model over a window.
type ModelUsage struct {
	Model       string  `json:"model"`
	TotalTokens int64   `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost"`
	CallCount   int     `json:"call_count"`
}

// HourlyUsage is the average token volume for one hour of the day.
type HourlyUsage struct {
	Hour      int     `json:"hour"`
	AvgTokens float64 `json:"avg_tokens"`
	CallCount int     `json:"call_count"`
}

// CredentialUsage is one row of a cross-credential comparison.
type CredentialUsage struct {
	CredentialID string  `json:"credential_id"`
	Name         string  `json:"name"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost"`
	CallCount    int     `json:"call_count"`
}

// Analytics bundles the historical views for a trailing window.
type Analytics struct {
	PeriodDays int            `json:"period_days"`
	Daily      []DailySummary `json:"daily"`
	ByModel    []ModelUsage   `json:"by_model"`
	ByHour     []HourlyUsage  `json:"by_hour"`
}

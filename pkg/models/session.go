package models

import "time"

// Session is a bounded accounting period for one credential scope.
// At most one session per scope is active at any instant; opening a new
// session closes the prior one. Sessions never reopen.
type Session struct {
	ID               string     `json:"id"`
	CredentialID     string     `json:"credential_id,omitempty"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	PromptTokens     int64      `json:"prompt_tokens"`
	CompletionTokens int64      `json:"completion_tokens"`
	TotalTokens      int64      `json:"total_tokens"`
	TotalCost        float64    `json:"total_cost"`
	Model            string     `json:"model,omitempty"`
	Active           bool       `json:"active"`
}

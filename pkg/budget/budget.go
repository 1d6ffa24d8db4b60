// Package budget computes monthly budget status by comparing the
// configured (month, credential) budget row against the spend and token
// volume actually recorded in the ledger.
package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/burndown-ai/burndown/pkg/store"
)

// ErrBudgetExceeded is returned when recorded spend has reached the
// monthly dollar limit.
var ErrBudgetExceeded = errors.New("budget exceeded")

// Status is the budget position for one (month, credential) scope.
type Status struct {
	Month        string  `json:"month"`
	CredentialID string  `json:"credential_id,omitempty"`
	BudgetLimit  float64 `json:"budget_limit"`
	SpentUSD     float64 `json:"spent_usd"`
	RemainingUSD float64 `json:"remaining_usd"`
	TokenLimit   int64   `json:"token_limit"`
	TokensUsed   int64   `json:"tokens_used"`
	Exceeded     bool    `json:"exceeded"`
}

// Checker reports and enforces monthly budgets from the ledger.
type Checker struct {
	store *store.Store
}

// NewChecker creates a Checker backed by the given ledger store.
func NewChecker(s *store.Store) *Checker {
	return &Checker{store: s}
}

// Status loads the budget row for (month, credential) and folds in the
// month's recorded totals. month is YYYY-MM; store.ErrNotFound passes
// through when no budget is set.
func (c *Checker) Status(ctx context.Context, month, credentialID string) (*Status, error) {
	setting, err := c.store.Budget(ctx, month, credentialID)
	if err != nil {
		return nil, err
	}

	start, end, err := monthBounds(month)
	if err != nil {
		return nil, err
	}
	tokens, spent, err := c.store.MonthTotals(ctx, start, end, credentialID)
	if err != nil {
		return nil, err
	}

	return &Status{
		Month:        setting.Month,
		CredentialID: credentialID,
		BudgetLimit:  setting.BudgetLimit,
		SpentUSD:     spent,
		RemainingUSD: setting.BudgetLimit - spent,
		TokenLimit:   setting.TokenLimit,
		TokensUsed:   tokens,
		Exceeded:     setting.BudgetLimit > 0 && spent >= setting.BudgetLimit,
	}, nil
}

// Check returns ErrBudgetExceeded when the month's recorded spend has
// reached the configured limit. A scope with no budget row passes.
func (c *Checker) Check(ctx context.Context, month, credentialID string) error {
	status, err := c.Status(ctx, month, credentialID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if status.Exceeded {
		return fmt.Errorf("%s: %w", month, ErrBudgetExceeded)
	}
	return nil
}

// monthBounds returns [first of month, first of next month) in UTC.
func monthBounds(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse month %q: %w", month, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// CurrentMonth formats now as the YYYY-MM budget key.
func CurrentMonth(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// Package session enforces the one-active-session-per-credential rule
// and folds event totals into the owning session.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/burndown-ai/burndown/pkg/models"
	"github.com/burndown-ai/burndown/pkg/store"
)

// Manager opens sessions and records usage events against them.
type Manager struct {
	store *store.Store
	now   func() time.Time
}

// NewManager creates a Manager backed by the given ledger store.
func NewManager(s *store.Store) *Manager {
	return &Manager{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// Open starts a new session for the credential scope, closing any
// session currently active in that scope. With an empty explicitID a
// session id is derived from the current time plus a disambiguator.
// Sessions transition Open -> Closed exactly once and never reopen.
func (m *Manager) Open(ctx context.Context, credentialID, explicitID string) (string, error) {
	id := explicitID
	if id == "" {
		id = generateID(m.now())
	}
	if err := m.store.OpenSession(ctx, id, credentialID, m.now()); err != nil {
		return "", err
	}
	return id, nil
}

// Record appends a usage event to a session. The event append and the
// session total increment are one transaction in the store; concurrent
// recorders for the same session cannot lose updates.
func (m *Manager) Record(ctx context.Context, sessionID, model string, promptTokens, completionTokens int, cost float64, credentialID string) error {
	if sessionID == "" {
		return fmt.Errorf("record event: empty session id")
	}
	if promptTokens < 0 || completionTokens < 0 {
		return fmt.Errorf("record event: negative token count")
	}
	return m.store.RecordEvent(ctx, models.UsageEvent{
		SessionID:        sessionID,
		CredentialID:     credentialID,
		Timestamp:        m.now(),
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		Cost:             cost,
	})
}

// Active returns the active session for a credential scope, or
// store.ErrNotFound if none is open.
func (m *Manager) Active(ctx context.Context, credentialID string) (*models.Session, error) {
	return m.store.ActiveSession(ctx, credentialID)
}

// generateID derives a session id like sess_20260831T120000_a3f9c2d1.
func generateID(now time.Time) string {
	return fmt.Sprintf("sess_%s_%s", now.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}

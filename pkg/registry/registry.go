// Package registry manages tracked credentials. Secrets are hashed
// before storage and never persisted or returned in plain form.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/burndown-ai/burndown/pkg/models"
	"github.com/burndown-ai/burndown/pkg/store"
)

// maskMarker prefixes the trailing characters of a secret in listings.
const maskMarker = "****"

// Registry is CRUD over tracked credentials.
type Registry struct {
	store *store.Store
}

// New creates a Registry backed by the given ledger store.
func New(s *store.Store) *Registry {
	return &Registry{store: s}
}

// Register stores a new credential and returns its id. The display name
// must be unique; a clash returns store.ErrDuplicateName.
func (r *Registry) Register(ctx context.Context, secret, name, description string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("register credential: empty secret")
	}
	if name == "" {
		return "", fmt.Errorf("register credential: empty name")
	}

	cred := models.Credential{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		SecretHash:  HashSecret(secret),
		Mask:        Mask(secret),
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.store.InsertCredential(ctx, cred); err != nil {
		return "", err
	}
	return cred.ID, nil
}

// Deactivate soft-deletes a credential by id or name. Its sessions and
// events remain in the ledger.
func (r *Registry) Deactivate(ctx context.Context, idOrName string) error {
	return r.store.DeactivateCredential(ctx, idOrName)
}

// Get returns the listing view of one credential by id or name.
func (r *Registry) Get(ctx context.Context, idOrName string) (*models.CredentialSummary, error) {
	cred, err := r.store.CredentialByIDOrName(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	return summarize(cred), nil
}

// List returns the listing view of every credential.
func (r *Registry) List(ctx context.Context) ([]models.CredentialSummary, error) {
	creds, err := r.store.ListCredentials(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.CredentialSummary, 0, len(creds))
	for i := range creds {
		summaries = append(summaries, *summarize(&creds[i]))
	}
	return summaries, nil
}

// UsageSummary sums tokens, cost, and call count for one credential
// over the trailing windowDays.
func (r *Registry) UsageSummary(ctx context.Context, id string, windowDays int) (*models.CredentialUsage, error) {
	cred, err := r.store.CredentialByIDOrName(ctx, id)
	if err != nil {
		return nil, err
	}
	usage, err := r.store.CredentialUsage(ctx, cred.ID, windowDays)
	if err != nil {
		return nil, err
	}
	usage.Name = cred.Name
	return usage, nil
}

func summarize(cred *models.Credential) *models.CredentialSummary {
	return &models.CredentialSummary{
		ID:          cred.ID,
		Name:        cred.Name,
		Description: cred.Description,
		Mask:        cred.Mask,
		Active:      cred.Active,
		CreatedAt:   cred.CreatedAt,
	}
}

// HashSecret returns the SHA-256 hex digest of a secret.
func HashSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// Mask returns the display form of a secret: a fixed marker followed by
// its last 4 characters.
func Mask(secret string) string {
	if len(secret) <= 4 {
		return maskMarker + secret
	}
	return maskMarker + secret[len(secret)-4:]
}

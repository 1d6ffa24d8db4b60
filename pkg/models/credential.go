package models

import "time"

// Credential identifies a tracked API key. Only a one-way hash of the
// secret is stored, alongside a display mask for listings.
type Credential struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SecretHash  string    `json:"-"`
	Mask        string    `json:"mask"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CredentialSummary is the listing view of a credential. It carries the
// display mask, never the secret or its hash.
type CredentialSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Mask        string    `json:"mask"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

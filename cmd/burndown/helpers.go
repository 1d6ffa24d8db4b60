package main

import (
	"context"
	"time"

	"github.com/burndown-ai/burndown/pkg/config"
	"github.com/burndown-ai/burndown/pkg/store"
)

func timeNowUTC() time.Time { return time.Now().UTC() }

// openStore loads config and opens the ledger for a one-shot command.
func openStore(configPath string) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

// resolveScope maps a credential id or name to a credential id. An
// empty value selects the default unscoped credential.
func resolveScope(ctx context.Context, st *store.Store, idOrName string) (string, error) {
	if idOrName == "" {
		return "", nil
	}
	cred, err := st.CredentialByIDOrName(ctx, idOrName)
	if err != nil {
		return "", err
	}
	return cred.ID, nil
}

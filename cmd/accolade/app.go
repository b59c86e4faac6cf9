package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alecgard/accolade/internal/config"
	"github.com/alecgard/accolade/internal/docstore"
	"github.com/alecgard/accolade/internal/identity"
	"github.com/alecgard/accolade/internal/metrics"
)

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore connects to the configured document store. When m is set the
// store reports every operation and a postgres pool exposes its gauges.
func openStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (docstore.Store, error) {
	db, err := docstore.Open(ctx, cfg.Store.Driver, cfg.Store.URL, cfg.Store.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Driver == config.DriverMemory {
		slog.Warn("using the in-memory store; data is lost on exit")
	}
	if m == nil {
		return db, nil
	}
	if pg, ok := db.(*docstore.Postgres); ok {
		m.RegisterDBPoolCollector(pg.PoolStats)
	}
	return docstore.Instrument(db, cfg.Store.Driver, m), nil
}

// newIdentity builds the identity provider from the service credential.
func newIdentity(db docstore.Store, cfg *config.Config, limiter identity.Limiter) (*identity.Service, error) {
	sa, err := config.LoadServiceAccount()
	if err != nil {
		return nil, err
	}
	ids, err := identity.NewService(db, identity.Credential{
		ProjectID:   sa.ProjectID,
		ClientEmail: sa.ClientEmail,
		SigningKey:  sa.SigningKey,
	}, identity.Options{
		TokenTTL:   cfg.Identity.TokenTTL,
		SessionTTL: cfg.Identity.SessionTTL,
		Limiter:    limiter,
	})
	if err != nil {
		return nil, fmt.Errorf("creating identity service: %w", err)
	}
	return ids, nil
}

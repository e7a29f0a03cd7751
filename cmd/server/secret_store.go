package main

import (
	"context"

	"github.com/kevin07696/settlement-service/internal/adapters/secrets"
	"github.com/kevin07696/settlement-service/internal/config"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// resolveSecrets replaces every "secret://" reference in cfg with its value
func resolveSecrets(ctx context.Context, cfg *config.Config, store ports.SecretStore) error {
	return secrets.ResolveAll(ctx, store,
		&cfg.Cron.Secret,
		&cfg.Gateways.AsaasAccessToken,
		&cfg.Gateways.StripeSigningSecret,
		&cfg.Database.URL,
		&cfg.Redis.URL,
	)
}

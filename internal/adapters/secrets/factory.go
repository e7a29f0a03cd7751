package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/config"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// NewFromConfig creates the secret backend named by SECRETS_BACKEND.
// Supports:
//   - env (default): configuration values are used literally, no store
//   - local: files under SECRETS_LOCAL_PATH (development)
//   - aws: AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault KV at VAULT_ADDR
func NewFromConfig(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretStore, error) {
	switch cfg.Backend {
	case "", "env":
		return nil, nil

	case "local":
		logger.Warn("Using local file secret store - NOT for production use!",
			zap.String("path", cfg.LocalPath),
		)
		return NewLocalSecretStore(cfg.LocalPath, logger), nil

	case "aws":
		store, err := NewAWSSecretStore(ctx, AWSConfig{
			Region:   cfg.AWSRegion,
			Profile:  cfg.AWSProfile,
			Endpoint: cfg.AWSEndpoint,
			CacheTTL: cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init aws secrets manager: %w", err)
		}
		logger.Info("AWS Secrets Manager initialized",
			zap.String("region", cfg.AWSRegion),
			zap.Duration("cache_ttl", cfg.CacheTTL),
		)
		return store, nil

	case "vault":
		vc := DefaultVaultConfig(cfg.VaultAddress)
		if cfg.VaultAuth != "" {
			vc.AuthMethod = cfg.VaultAuth
		}
		if cfg.VaultMount != "" {
			vc.MountPath = cfg.VaultMount
		}
		vc.Token = cfg.VaultToken
		vc.RoleID = cfg.VaultRoleID
		vc.SecretID = cfg.VaultSecret
		vc.CacheTTL = cfg.CacheTTL

		store, err := NewVaultSecretStore(ctx, vc, logger)
		if err != nil {
			return nil, fmt.Errorf("init vault: %w", err)
		}
		logger.Info("Vault secret store initialized",
			zap.String("address", vc.Address),
			zap.String("auth_method", vc.AuthMethod),
			zap.String("mount_path", vc.MountPath),
		)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.Backend)
	}
}

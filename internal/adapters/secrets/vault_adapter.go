package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// VaultConfig configures the HashiCorp Vault backend
type VaultConfig struct {
	Address string

	// Authentication method: "token" or "approle"
	AuthMethod string
	Token      string
	RoleID     string
	SecretID   string

	// Vault Enterprise namespace
	Namespace string

	// KV mount path (default "secret") and engine version "v1" or "v2" (default "v2")
	MountPath string
	KVVersion string

	CacheTTL time.Duration
}

// DefaultVaultConfig returns token auth against a KV v2 mount at "secret"
func DefaultVaultConfig(address string) VaultConfig {
	return VaultConfig{
		Address:    address,
		AuthMethod: "token",
		MountPath:  "secret",
		KVVersion:  "v2",
		CacheTTL:   5 * time.Minute,
	}
}

// VaultSecretStore reads secrets from a Vault KV engine
type VaultSecretStore struct {
	client *vault.Client
	config VaultConfig
	logger *zap.Logger
	cache  *secretCache
}

// NewVaultSecretStore creates an authenticated Vault store
func NewVaultSecretStore(ctx context.Context, cfg VaultConfig, logger *zap.Logger) (*VaultSecretStore, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault secret store initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
		zap.String("kv_version", cfg.KVVersion),
	)

	return &VaultSecretStore{client: client, config: cfg, logger: logger, cache: newSecretCache(cfg.CacheTTL)}, nil
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg VaultConfig) error {
	switch cfg.AuthMethod {
	case "token", "":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// GetSecret reads path from the KV mount. The value is the "value" key of the
// secret data, or its only string field.
func (s *VaultSecretStore) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := s.cache.get(path); cached != nil {
		return cached, nil
	}

	fullPath := fmt.Sprintf("%s/%s", s.config.MountPath, path)
	if s.config.KVVersion != "v1" {
		fullPath = fmt.Sprintf("%s/data/%s", s.config.MountPath, path)
	}

	raw, err := s.client.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		s.logger.Error("Failed to retrieve secret from Vault",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	secret, err := parseVaultData(raw.Data, s.config.KVVersion != "v1")
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", path, err)
	}

	s.cache.set(path, secret)
	return secret, nil
}

func parseVaultData(data map[string]interface{}, kv2 bool) (*ports.Secret, error) {
	secret := &ports.Secret{Version: "1", Metadata: map[string]string{}}

	if kv2 {
		if meta, ok := data["metadata"].(map[string]interface{}); ok {
			if v, ok := meta["version"].(json.Number); ok {
				secret.Version = v.String()
			}
			if ct, ok := meta["created_time"].(string); ok {
				secret.CreatedAt = ct
			}
		}
		inner, ok := data["data"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid KV v2 secret format")
		}
		data = inner
	}

	var strs []string
	for k, v := range data {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if k == "value" {
			secret.Value = str
			continue
		}
		secret.Metadata[k] = str
		strs = append(strs, str)
	}
	if secret.Value == "" && len(strs) == 1 {
		secret.Value = strs[0]
	}
	if secret.Value == "" {
		return nil, fmt.Errorf("secret value is empty or not found")
	}
	return secret, nil
}

package ports

import "context"

// Secret is a value read from a secret backend
type Secret struct {
	Metadata  map[string]string
	Value     string
	Version   string
	CreatedAt string
}

// SecretStore reads secrets from a backend (AWS Secrets Manager, Vault, local files).
// Path format depends on the backend:
//   - AWS: "settlement-service/cron-secret" or a full ARN
//   - Vault: "settlement-service/gateways/asaas" under the configured KV mount
//   - Local: a file path relative to the base directory
type SecretStore interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}

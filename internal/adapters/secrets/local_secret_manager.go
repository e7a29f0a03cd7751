package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// LocalSecretStore reads secrets from files under a base directory.
// For development only.
type LocalSecretStore struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSecretStore creates a filesystem-backed store
func NewLocalSecretStore(basePath string, logger *zap.Logger) *LocalSecretStore {
	return &LocalSecretStore{basePath: basePath, logger: logger}
}

// GetSecret reads basePath/path. Files may hold the raw value or a JSON
// object {"value": "...", "tags": {...}, "created_at": "..."}.
func (s *LocalSecretStore) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	clean := filepath.Clean("/" + path)
	data, err := os.ReadFile(filepath.Join(s.basePath, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("secret not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	var doc struct {
		Tags      map[string]string `json:"tags"`
		Value     string            `json:"value"`
		CreatedAt string            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &doc); err == nil && doc.Value != "" {
		return &ports.Secret{Value: doc.Value, Version: "v1", Metadata: doc.Tags, CreatedAt: doc.CreatedAt}, nil
	}

	s.logger.Debug("Read plain-text secret", zap.String("path", path))
	return &ports.Secret{Value: strings.TrimSpace(string(data)), Version: "v1"}, nil
}

package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// RefPrefix marks a configuration value as a reference into the secret store
const RefPrefix = "secret://"

// Resolve returns value unchanged unless it is a "secret://path" reference, in
// which case the secret at path is fetched from store.
func Resolve(ctx context.Context, store ports.SecretStore, value string) (string, error) {
	path, ok := strings.CutPrefix(value, RefPrefix)
	if !ok {
		return value, nil
	}
	if store == nil {
		return "", fmt.Errorf("secret reference %q but no secret backend configured", value)
	}

	secret, err := store.GetSecret(ctx, path)
	if err != nil {
		return "", err
	}
	return secret.Value, nil
}

// ResolveAll resolves every pointed-to value in place, stopping at the first failure
func ResolveAll(ctx context.Context, store ports.SecretStore, values ...*string) error {
	for _, v := range values {
		if v == nil || *v == "" {
			continue
		}
		resolved, err := Resolve(ctx, store, *v)
		if err != nil {
			return err
		}
		*v = resolved
	}
	return nil
}

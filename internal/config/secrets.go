package config

import (
	"context"
	"fmt"
	"strings"
)

// SecretSource resolves a named secret to its latest value.
type SecretSource interface {
	AccessSecret(ctx context.Context, name string) (string, error)
}

// FillMissingSecrets fetches every credential that the environment left empty.
// Values already present in the environment always win.
func (c *Config) FillMissingSecrets(ctx context.Context, src SecretSource) error {
	for _, f := range c.secretFields() {
		if strings.TrimSpace(*f.value) != "" {
			continue
		}
		v, err := src.AccessSecret(ctx, f.name)
		if err != nil {
			return fmt.Errorf("resolving secret %s: %w", f.name, err)
		}
		*f.value = strings.TrimSpace(v)
	}
	return nil
}

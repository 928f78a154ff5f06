package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"

	"github.com/seu-repo/evcharge/pkg/config"
)

type SecretManager struct {
	client      *api.Client
	databaseKey string
}

func NewSecretManager(cfg config.VaultConfig) (*SecretManager, error) {
	vcfg := api.DefaultConfig()
	vcfg.Address = cfg.Address

	client, err := api.NewClient(vcfg)
	if err != nil {
		return nil, err
	}

	client.SetToken(cfg.Token)

	return &SecretManager{client: client, databaseKey: cfg.DatabaseKey}, nil
}

// GetDatabaseURL reads connection_string from the configured KV v2 path.
func (sm *SecretManager) GetDatabaseURL(ctx context.Context) (string, error) {
	secret, err := sm.client.Logical().ReadWithContext(ctx, sm.databaseKey)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", sm.databaseKey, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret %s not found", sm.databaseKey)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("secret %s has no data section", sm.databaseKey)
	}
	url, ok := data["connection_string"].(string)
	if !ok || url == "" {
		return "", fmt.Errorf("secret %s has no connection_string", sm.databaseKey)
	}
	return url, nil
}

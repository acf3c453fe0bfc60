package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// SecretManager reads runtime secrets from Vault KV v2. It is optional: when
// Vault is not configured, the same values come from the environment.
type SecretManager struct {
	client *api.Client
}

func NewSecretManager(address, token string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client}, nil
}

// GetDatabaseCredentials returns the secondary index connection string.
func (sm *SecretManager) GetDatabaseCredentials() (string, error) {
	return sm.readField("secret/data/database", "connection_string")
}

// GetJWTSecret returns the token signing key.
func (sm *SecretManager) GetJWTSecret() (string, error) {
	return sm.readField("secret/data/auth", "jwt_secret")
}

// GetGatewayToken returns the bearer token for the chain gateway.
func (sm *SecretManager) GetGatewayToken() (string, error) {
	return sm.readField("secret/data/chain-gateway", "token")
}

func (sm *SecretManager) readField(path, field string) (string, error) {
	secret, err := sm.client.Logical().Read(path)
	if err != nil {
		return "", err
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault: no secret at %s", path)
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("vault: unexpected payload at %s", path)
	}
	value, ok := data[field].(string)
	if !ok {
		return "", fmt.Errorf("vault: field %s missing at %s", field, path)
	}
	return value, nil
}

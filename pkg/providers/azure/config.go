package azure

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/de-tools/costpilot/pkg/models/domain"
	"gopkg.in/ini.v1"
)

const (
	DefaultProfile = "default"
	DefaultRegion  = "eastus"

	clientSecretEnv = "AZURE_CLIENT_SECRET"
)

type Config struct {
	SubscriptionID string
	TenantID       string
	ClientID       string
	Region         string
}

// LoadConfig reads a named profile from ~/.azure/config, the same file
// the Azure CLI maintains. Used by the operator CLI; the server resolves
// per-org connections from the store instead.
func LoadConfig(profile string) (*Config, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("unable to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".azure", "config")
	cfg, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load Azure config file: %w", err)
	}

	section, err := cfg.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found in Azure config: %w", profile, err)
	}

	config := &Config{
		SubscriptionID: section.Key("subscription").String(),
		TenantID:       section.Key("tenant").String(),
		ClientID:       section.Key("client_id").String(),
		Region:         section.Key("region").MustString(DefaultRegion),
	}

	if config.SubscriptionID == "" {
		return nil, fmt.Errorf("subscription ID not found in profile %s", profile)
	}

	return config, nil
}

// Connection converts a CLI profile into the connection shape the rest
// of the system works with.
func (c *Config) Connection(orgID string) domain.Connection {
	return domain.Connection{
		OrgID:          orgID,
		SubscriptionID: c.SubscriptionID,
		TenantID:       c.TenantID,
		ClientID:       c.ClientID,
		Enabled:        true,
	}
}

// credentialFor builds a token credential for one connection: a client
// secret credential when the connection and environment carry the full
// service principal, the local Azure CLI login otherwise.
func credentialFor(conn domain.Connection) (azcore.TokenCredential, error) {
	secret := os.Getenv(clientSecretEnv)
	if conn.TenantID != "" && conn.ClientID != "" && secret != "" {
		cred, err := azidentity.NewClientSecretCredential(conn.TenantID, conn.ClientID, secret, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client secret credential: %w", err)
		}
		return cred, nil
	}

	cred, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure CLI credential: %w", err)
	}
	return cred, nil
}

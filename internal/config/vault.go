package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"talentmatch/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KV v2 paths. An empty path is skipped.
type VaultSecrets struct {
	APIKeys   string `mapstructure:"apiKeys"`   // "keys": comma-separated server API keys
	GeminiKey string `mapstructure:"geminiKey"` // "api_key"
	Database  string `mapstructure:"database"`  // "url": Postgres connection string
	Events    string `mapstructure:"events"`    // "url": AMQP broker
	S3        string `mapstructure:"s3"`        // "access_key_id", "secret_access_key"
}

// VaultSecret is one KV v2 secret version.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// kvReader reads KV v2 secrets. *VaultClient is the production reader.
type kvReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil
// when Vault is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", apiCfg.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Connected to Vault",
		"address", apiCfg.Address,
		"namespace", cfg.Namespace,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken prefers the configured token over the token file.
func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 reads the latest version of a KV v2 secret.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}
	vc.logger.Debug("Reading secret from Vault", "path", path)

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return decodeKV2(secret.Data, path)
}

// decodeKV2 unpacks the {"data": ..., "metadata": {"version": n}} envelope.
func decodeKV2(raw map[string]any, path string) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	version, err := parseVersionValue(metadata["version"], path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue accepts the numeric shapes the JSON decoder may produce.
func parseVersionValue(v any, path string) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, v)
	}
}

// secretBinding copies one string field of a secret into the config.
type secretBinding struct {
	name  string
	path  string
	key   string
	apply func(cfg *Config, value string)
}

func secretBindings(cfg *Config) []secretBinding {
	s := cfg.Vault.Secrets
	return []secretBinding{
		{"api_keys", s.APIKeys, "keys", func(c *Config, v string) { c.Server.APIKeys = splitKeys(v) }},
		{"gemini_key", s.GeminiKey, "api_key", applyGeminiKeyToConfig},
		{"database_url", s.Database, "url", func(c *Config, v string) { c.Store.DatabaseURL = v }},
		{"events_url", s.Events, "url", func(c *Config, v string) { c.Events.URL = v }},
	}
}

// ApplyVaultSecrets overrides config values with secrets from Vault.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}
	client, err := NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return applySecrets(client, cfg, logger)
}

func applySecrets(kv kvReader, cfg *Config, logger *errors.Logger) error {
	loaded := 0
	for _, b := range secretBindings(cfg) {
		if b.path == "" {
			continue
		}
		secret, err := kv.GetSecretV2(b.path)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", b.name, err)
		}
		value, err := stringField(secret, b.path, b.key)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", b.name, err)
		}
		if value == "" {
			logger.Warn("Empty secret value in Vault", "secret", b.name, "path", b.path)
			continue
		}
		b.apply(cfg, value)
		loaded++
		logger.Debug("Secret applied from Vault", "secret", b.name, "version", secret.Version, "value", maskSecret(value))
	}

	if path := cfg.Vault.Secrets.S3; path != "" {
		secret, err := kv.GetSecretV2(path)
		if err != nil {
			return fmt.Errorf("failed to load s3 credentials from vault: %w", err)
		}
		loaded += applyS3Credentials(cfg, secret)
	}

	logger.Info("Secrets loaded from Vault", "applied", loaded)
	return nil
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return s, nil
}

func splitKeys(v string) []string {
	var keys []string
	for _, k := range strings.Split(v, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func maskSecret(v string) string {
	if len(v) > 8 {
		return v[:4] + "****" + v[len(v)-4:]
	}
	return "****"
}

// applyGeminiKeyToConfig sets the global key and fills every operation
// section that has no key of its own.
func applyGeminiKeyToConfig(cfg *Config, key string) {
	cfg.AI.APIKey = key
	for _, op := range Operations {
		section, _ := cfg.operation(op)
		if section.APIKey == "" {
			section.APIKey = key
		}
	}
}

// applyS3Credentials copies whichever credential fields the secret carries
func applyS3Credentials(cfg *Config, secret *VaultSecret) int {
	loaded := 0
	if v, ok := secret.Data["access_key_id"].(string); ok && v != "" {
		cfg.Ingest.S3.AccessKeyID = v
		loaded++
	}
	if v, ok := secret.Data["secret_access_key"].(string); ok && v != "" {
		cfg.Ingest.S3.SecretAccessKey = v
		loaded++
	}
	return loaded
}

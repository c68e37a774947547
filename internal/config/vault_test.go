package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"talentmatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV serves secrets from memory and records the paths read.
type fakeKV struct {
	secrets map[string]map[string]any
	reads   []string
}

func (f *fakeKV) GetSecretV2(path string) (*VaultSecret, error) {
	f.reads = append(f.reads, path)
	data, ok := f.secrets[path]
	if !ok {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return &VaultSecret{Data: data, Version: 3}, nil
}

func vaultConfig(secrets VaultSecrets) *Config {
	return &Config{Vault: VaultConfig{Enabled: true, Secrets: secrets}}
}

func TestApplySecrets(t *testing.T) {
	kv := &fakeKV{secrets: map[string]map[string]any{
		"secret/data/api":    {"keys": "k1, k2,,k3 "},
		"secret/data/gemini": {"api_key": "gemini-key-123456"},
		"secret/data/db":     {"url": "postgres://u:p@db/talent"},
		"secret/data/amqp":   {"url": "amqp://guest:guest@mq/"},
		"secret/data/s3":     {"access_key_id": "AKIA123", "secret_access_key": "s3cr3t"},
	}}
	cfg := vaultConfig(VaultSecrets{
		APIKeys:   "secret/data/api",
		GeminiKey: "secret/data/gemini",
		Database:  "secret/data/db",
		Events:    "secret/data/amqp",
		S3:        "secret/data/s3",
	})

	require.NoError(t, applySecrets(kv, cfg, errors.Discard()))

	assert.Equal(t, []string{"k1", "k2", "k3"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-key-123456", cfg.AI.APIKey)
	assert.Equal(t, "gemini-key-123456", cfg.AI.Embed.APIKey)
	assert.Equal(t, "postgres://u:p@db/talent", cfg.Store.DatabaseURL)
	assert.Equal(t, "amqp://guest:guest@mq/", cfg.Events.URL)
	assert.Equal(t, "AKIA123", cfg.Ingest.S3.AccessKeyID)
	assert.Equal(t, "s3cr3t", cfg.Ingest.S3.SecretAccessKey)
}

func TestApplySecretsSkipsEmptyPaths(t *testing.T) {
	kv := &fakeKV{secrets: map[string]map[string]any{
		"secret/data/db": {"url": "postgres://db"},
	}}
	cfg := vaultConfig(VaultSecrets{Database: "secret/data/db"})
	cfg.Events.URL = "amqp://from-file"

	require.NoError(t, applySecrets(kv, cfg, errors.Discard()))
	assert.Equal(t, []string{"secret/data/db"}, kv.reads)
	assert.Equal(t, "postgres://db", cfg.Store.DatabaseURL)
	assert.Equal(t, "amqp://from-file", cfg.Events.URL)
}

func TestApplySecretsEmptyValueKeepsConfig(t *testing.T) {
	kv := &fakeKV{secrets: map[string]map[string]any{
		"secret/data/db": {"url": ""},
	}}
	cfg := vaultConfig(VaultSecrets{Database: "secret/data/db"})
	cfg.Store.DatabaseURL = "postgres://local"

	require.NoError(t, applySecrets(kv, cfg, errors.Discard()))
	assert.Equal(t, "postgres://local", cfg.Store.DatabaseURL)
}

func TestApplySecretsErrors(t *testing.T) {
	tests := []struct {
		name    string
		secrets map[string]map[string]any
		paths   VaultSecrets
		want    string
	}{
		{
			name:  "missing secret",
			paths: VaultSecrets{GeminiKey: "secret/data/none"},
			want:  "failed to load gemini_key from vault",
		},
		{
			name:    "missing key",
			secrets: map[string]map[string]any{"secret/data/db": {"dsn": "x"}},
			paths:   VaultSecrets{Database: "secret/data/db"},
			want:    "key 'url' not found",
		},
		{
			name:    "non-string value",
			secrets: map[string]map[string]any{"secret/data/api": {"keys": 7}},
			paths:   VaultSecrets{APIKeys: "secret/data/api"},
			want:    "is not a string",
		},
		{
			name:  "missing s3 secret",
			paths: VaultSecrets{S3: "secret/data/s3"},
			want:  "failed to load s3 credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := applySecrets(&fakeKV{secrets: tt.secrets}, vaultConfig(tt.paths), errors.Discard())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: false, Secrets: VaultSecrets{Database: "secret/data/db"}}}
	require.NoError(t, ApplyVaultSecrets(cfg, errors.Discard()))
	assert.Empty(t, cfg.Store.DatabaseURL)
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	cfg := &Config{AI: AIConfig{Embed: OperationAIConfig{APIKey: "existing-embed-key"}}}

	applyGeminiKeyToConfig(cfg, "test-gemini-key")

	assert.Equal(t, "test-gemini-key", cfg.AI.APIKey)
	assert.Equal(t, "test-gemini-key", cfg.AI.Evaluate.APIKey)
	assert.Equal(t, "test-gemini-key", cfg.AI.Extract.APIKey)
	assert.Equal(t, "test-gemini-key", cfg.AI.Summarize.APIKey)
	assert.Equal(t, "test-gemini-key", cfg.AI.Describe.APIKey)
	assert.Equal(t, "existing-embed-key", cfg.AI.Embed.APIKey)
}

func TestApplyS3Credentials(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		expected   int
		wantKeyID  string
		wantSecret string
	}{
		{
			name:       "both fields",
			data:       map[string]any{"access_key_id": "AKIA123", "secret_access_key": "s3cr3t"},
			expected:   2,
			wantKeyID:  "AKIA123",
			wantSecret: "s3cr3t",
		},
		{
			name:       "key id only",
			data:       map[string]any{"access_key_id": "AKIA123"},
			expected:   1,
			wantKeyID:  "AKIA123",
			wantSecret: "preset",
		},
		{
			name:       "empty and non-string values are ignored",
			data:       map[string]any{"access_key_id": "", "secret_access_key": 42},
			expected:   0,
			wantKeyID:  "preset",
			wantSecret: "preset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Ingest: IngestConfig{S3: S3Config{AccessKeyID: "preset", SecretAccessKey: "preset"}}}
			loaded := applyS3Credentials(cfg, &VaultSecret{Data: tt.data})

			assert.Equal(t, tt.expected, loaded)
			assert.Equal(t, tt.wantKeyID, cfg.Ingest.S3.AccessKeyID)
			assert.Equal(t, tt.wantSecret, cfg.Ingest.S3.SecretAccessKey)
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	writeToken := func(t *testing.T, content string) string {
		path := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}

	t.Run("token from config wins", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token", TokenFile: writeToken(t, "file-token")})
		require.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file is trimmed", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{TokenFile: writeToken(t, "  file-token  \n")})
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("blank token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: writeToken(t, "   \n  \n")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})

	t.Run("no token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.Error(t, err)
	})
}

func TestDecodeKV2(t *testing.T) {
	tests := []struct {
		name        string
		raw         map[string]any
		wantData    map[string]any
		wantVersion int64
		wantErr     string
	}{
		{
			name: "valid secret",
			raw: map[string]any{
				"data":     map[string]any{"url": "postgres://db"},
				"metadata": map[string]any{"version": float64(4)},
			},
			wantData:    map[string]any{"url": "postgres://db"},
			wantVersion: 4,
		},
		{
			name: "string version",
			raw: map[string]any{
				"data":     map[string]any{},
				"metadata": map[string]any{"version": "12"},
			},
			wantData:    map[string]any{},
			wantVersion: 12,
		},
		{
			name:    "missing data",
			raw:     map[string]any{"metadata": map[string]any{"version": int64(1)}},
			wantErr: "missing 'data' field",
		},
		{
			name:    "data wrong type",
			raw:     map[string]any{"data": "not-a-map", "metadata": map[string]any{}},
			wantErr: "missing 'data' field",
		},
		{
			name:    "missing metadata",
			raw:     map[string]any{"data": map[string]any{}},
			wantErr: "missing 'metadata' field",
		},
		{
			name:    "missing version",
			raw:     map[string]any{"data": map[string]any{}, "metadata": map[string]any{"other": 1}},
			wantErr: "missing 'version' field",
		},
		{
			name:    "unparseable version",
			raw:     map[string]any{"data": map[string]any{}, "metadata": map[string]any{"version": "v2"}},
			wantErr: "could not parse secret version",
		},
		{
			name:    "unsupported version type",
			raw:     map[string]any{"data": map[string]any{}, "metadata": map[string]any{"version": []int{1}}},
			wantErr: "unexpected type for version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := decodeKV2(tt.raw, "secret/data/test")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, secret.Data)
			assert.Equal(t, tt.wantVersion, secret.Version)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "gemi****3456", maskSecret("gemini-key-123456"))
	assert.Equal(t, "****", maskSecret("short"))
}

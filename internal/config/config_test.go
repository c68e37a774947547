package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaults(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	cfg, err := load(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := loadDefaults(t)

	assert.Equal(t, 0.7, cfg.Screening.VectorWeight)
	assert.Equal(t, 4, cfg.Screening.Concurrency)
	assert.Equal(t, 50, cfg.Screening.SafetyLimit)
	assert.Equal(t, 768, cfg.Store.VectorDimension)
	assert.Equal(t, int32(768), cfg.AI.Embed.Dimensions)
	assert.Equal(t, "gemini-embedding-001", cfg.AI.Embed.Model)
	assert.Equal(t, "screening_updates", cfg.Events.Exchange)
	assert.Equal(t, []string{"pdf"}, cfg.Ingest.AllowedKinds)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
}

func TestGetOperationConfigFallbacks(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.AI.APIKey = "global-key"
	cfg.AI.Describe.APIKey = "describe-key"

	eval, err := cfg.GetOperationConfig(OpEvaluate)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", eval.Model)
	assert.Equal(t, "global-key", eval.APIKey)
	require.NotNil(t, eval.Temperature)
	assert.Equal(t, float32(0), *eval.Temperature)
	require.NotNil(t, eval.Timeout)
	assert.Equal(t, 60*time.Second, *eval.Timeout)

	describe := cfg.MustOperationConfig(OpDescribe)
	assert.Equal(t, "describe-key", describe.APIKey)

	embed := cfg.MustOperationConfig(OpEmbed)
	assert.Equal(t, "gemini-embedding-001", embed.Model)

	_, err = cfg.GetOperationConfig("tailor")
	assert.Error(t, err)
}

func TestGetOperationConfigDoesNotMutateSection(t *testing.T) {
	cfg := &Config{AI: AIConfig{Model: "global-model", APIKey: "k"}}
	_ = cfg.MustOperationConfig(OpExtract)
	assert.Empty(t, cfg.AI.Extract.Model)
	assert.Nil(t, cfg.AI.Extract.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := loadDefaults(t)
		cfg.AI.APIKey = "key"
		cfg.Store.DatabaseURL = "postgres://localhost/talentmatch"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing api key", func(c *Config) { c.AI.APIKey = "" }, "API key"},
		{"missing database", func(c *Config) { c.Store.DatabaseURL = "" }, "database URL"},
		{"dimension mismatch", func(c *Config) { c.AI.Embed.Dimensions = 1536 }, "must match"},
		{"vector weight", func(c *Config) { c.Screening.VectorWeight = 1.5 }, "vector weight"},
		{"concurrency", func(c *Config) { c.Screening.Concurrency = 0 }, "concurrency"},
		{"events url", func(c *Config) { c.Events.Enabled = true }, "events URL"},
		{"s3 bucket", func(c *Config) { c.Ingest.S3.Enabled = true }, "bucket"},
		{"default format", func(c *Config) { c.App.DefaultFormat = "yaml" }, "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestServerAPIKeyFallback(t *testing.T) {
	t.Setenv("TALENTMATCH_SERVER_APIKEYS", " k1 , ,k2")
	cfg := &Config{}
	cfg.applyServerAPIKeyFallbacks()
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)

	cfg = &Config{Server: ServerConfig{APIKeys: []string{"configured"}}}
	cfg.applyServerAPIKeyFallbacks()
	assert.Equal(t, []string{"configured"}, cfg.Server.APIKeys)
}

func TestMaskDatabaseURL(t *testing.T) {
	assert.Equal(t, "postgres://app:***@db:5432/tm", maskDatabaseURL("postgres://app:hunter2@db:5432/tm"))
	assert.Equal(t, "postgres://db/tm", maskDatabaseURL("postgres://db/tm"))
	assert.Equal(t, "", maskDatabaseURL(""))
}

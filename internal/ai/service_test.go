package ai

import (
	"testing"
	"time"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"
)

func TestNewServiceUnsupportedProvider(t *testing.T) {
	cfg := &config.Config{AI: config.AIConfig{
		Provider:         "openai",
		Model:            "gpt-4o",
		Timeout:          30 * time.Second,
		UseSystemPrompts: true,
	}}

	_, err := NewService(cfg, errors.Discard(), nil)
	if err == nil {
		t.Fatal("Expected error for unsupported provider")
	}
	if !errors.Is(err, errors.ErrorTypeConfig) {
		t.Errorf("Expected config error, got %v", err)
	}
}

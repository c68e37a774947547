package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()

	systemPromptContent := "You are a strict technical recruiter."
	userPromptContent := "Score this candidate: %s against %s"

	systemPromptFile := filepath.Join(tempDir, "system.evaluate.md")
	userPromptFile := filepath.Join(tempDir, "user.evaluate.md")

	if err := os.WriteFile(systemPromptFile, []byte(systemPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test system prompt file: %v", err)
	}
	if err := os.WriteFile(userPromptFile, []byte("\n"+userPromptContent+"\n\n"), 0600); err != nil {
		t.Fatalf("Failed to create test user prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			Evaluate: OperationAIConfig{
				Prompts: PromptConfig{
					System:     "inline system prompt",
					SystemFile: systemPromptFile,
					UserFile:   userPromptFile,
				},
			},
			Summarize: OperationAIConfig{
				Prompts: PromptConfig{User: "inline summary prompt"},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	if config.AI.Evaluate.Prompts.System != systemPromptContent {
		t.Errorf("Expected file to override inline system prompt, got '%s'", config.AI.Evaluate.Prompts.System)
	}
	if config.AI.Evaluate.Prompts.User != userPromptContent {
		t.Errorf("Expected trimmed user prompt '%s', got '%s'", userPromptContent, config.AI.Evaluate.Prompts.User)
	}
	if config.AI.Evaluate.Prompts.SystemFile != systemPromptFile {
		t.Error("Expected system prompt file path to be preserved")
	}
	if config.AI.Summarize.Prompts.User != "inline summary prompt" {
		t.Error("Expected inline prompt without a file to be left alone")
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()

	validFile := filepath.Join(tempDir, "valid.md")
	if err := os.WriteFile(validFile, []byte("Valid content"), 0600); err != nil {
		t.Fatalf("Failed to create valid test file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			Describe: OperationAIConfig{
				Prompts: PromptConfig{SystemFile: validFile},
			},
		},
	}

	if err := config.validatePromptFiles(); err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	config.AI.Extract.Prompts.UserFile = filepath.Join(tempDir, "nonexistent.md")
	if err := config.validatePromptFiles(); err == nil {
		t.Error("Expected validation to fail for non-existent file")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	content := "Test prompt content"
	testFile := filepath.Join(tempDir, "test.md")
	if err := os.WriteFile(testFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loaded, err := loadPromptFromFile(testFile, "system", OpEvaluate)
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}
	if loaded != content {
		t.Errorf("Expected content '%s', got '%s'", content, loaded)
	}

	if _, err := loadPromptFromFile(filepath.Join(tempDir, "missing.md"), "system", OpEvaluate); err == nil {
		t.Error("Expected error for non-existent file")
	}

	emptyFile := filepath.Join(tempDir, "empty.md")
	if err := os.WriteFile(emptyFile, []byte("   \n\t  "), 0600); err != nil {
		t.Fatalf("Failed to create empty test file: %v", err)
	}
	if _, err := loadPromptFromFile(emptyFile, "user", OpEvaluate); err == nil {
		t.Error("Expected error for empty file")
	}
}

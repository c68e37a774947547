package common

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"talentmatch/internal/errors"
	"talentmatch/internal/types"
)

func TestRunCommandWritesFormattedOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "summary.md")
	cfg := CommandConfig{OutputFile: out, OutputFormat: "json"}

	var logged bool
	err := RunCommand(context.Background(), errors.Discard(), cfg,
		func(context.Context) (*types.ScreeningSummary, error) {
			return &types.ScreeningSummary{JobID: "ab12cd34", LLMEvaluated: 3}, nil
		},
		func(CommandConfig) { logged = true })
	if err != nil {
		t.Fatalf("RunCommand failed: %v", err)
	}
	if !logged {
		t.Error("Expected log details to be called")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(string(data), `"job_id": "ab12cd34"`) {
		t.Errorf("unexpected output: %s", data)
	}
}

func TestRunCommandPropagatesOperationError(t *testing.T) {
	want := errors.NewNotFoundError(errors.ErrCodeJobNotFound, "job not found", nil)
	err := RunCommand(context.Background(), errors.Discard(), CommandConfig{OutputFormat: "json"},
		func(context.Context) (*types.ScreeningSummary, error) { return nil, want }, nil)
	if err != want {
		t.Errorf("Expected operation error, got %v", err)
	}
}

func TestOpenInputFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "alice.pdf")
	if err := os.WriteFile(good, []byte("%PDF"), 0600); err != nil {
		t.Fatal(err)
	}
	fp := NewFileProcessor(errors.Discard())

	files, closeAll, err := fp.OpenInputFiles(good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(files))
	}
	closeAll()

	tests := []struct {
		name     string
		path     string
		wantType errors.ErrorType
	}{
		{"missing", filepath.Join(dir, "nope.pdf"), errors.ErrorTypeIO},
		{"directory", dir, errors.ErrorTypeValidation},
		{"empty", "", errors.ErrorTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := fp.OpenInputFiles(good, tt.path)
			if errors.TypeOf(err) != tt.wantType {
				t.Errorf("Expected %s error, got %v", tt.wantType, err)
			}
		})
	}
}

func TestWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "reports", "ranked.json")
	fp := NewFileProcessor(errors.Discard())

	for _, content := range []string{"first", "second"} {
		if err := fp.WriteFile(out, content); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	got, err := fp.ReadFile(out)
	if err != nil || got != "second" {
		t.Fatalf("ReadFile = %q, %v", got, err)
	}
	entries, err := os.ReadDir(filepath.Dir(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the output file, found %d entries", len(entries))
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestHandleOutputToWriter(t *testing.T) {
	var buf strings.Builder
	oh := NewOutputHandler(errors.Discard())
	oh.out = &buf

	summary := &types.ScreeningSummary{JobID: "ab12cd34", SemanticMatched: 4}
	if err := oh.HandleOutput(summary, CommandConfig{OutputFormat: "json"}); err != nil {
		t.Fatalf("HandleOutput failed: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "}\n") {
		t.Errorf("Expected JSON followed by a newline, got %q", buf.String())
	}
}

func TestHandleOutputUnsupportedType(t *testing.T) {
	oh := NewOutputHandler(errors.Discard())
	oh.out = io.Discard

	err := oh.HandleOutput(map[string]int{"a": 1}, CommandConfig{OutputFormat: "text"})
	if !errors.Is(err, errors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

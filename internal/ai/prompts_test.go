package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"talentmatch/internal/config"
	"talentmatch/internal/types"
)

func TestPromptsForFallsBackToDefaults(t *testing.T) {
	for _, op := range []string{config.OpEvaluate, config.OpExtract, config.OpSummarize, config.OpDescribe} {
		t.Run(op, func(t *testing.T) {
			system, user := promptsFor(op, config.OperationAIConfig{})
			wantSystem, wantUser := defaultPrompts(op)
			if system != wantSystem || user != wantUser {
				t.Errorf("Expected default prompts for %s", op)
			}
			if system == "" || user == "" {
				t.Errorf("Expected non-empty defaults for %s", op)
			}
		})
	}
}

func TestPromptsForPrefersConfig(t *testing.T) {
	cfg := config.OperationAIConfig{Prompts: config.PromptConfig{System: "custom system", User: "custom %s"}}
	system, user := promptsFor(config.OpSummarize, cfg)
	if system != "custom system" || user != "custom %s" {
		t.Errorf("Expected configured prompts, got %q / %q", system, user)
	}
}

func TestDefaultTemplatesFormatCleanly(t *testing.T) {
	_, evaluate := defaultPrompts(config.OpEvaluate)
	out := fmt.Sprintf(evaluate, "JOB-TEXT", `{"name":"Ada"}`)
	if !strings.Contains(out, "JOB-TEXT") || !strings.Contains(out, `"name":"Ada"`) {
		t.Error("Expected evaluate prompt to embed job and candidate")
	}
	if strings.Contains(out, "%!") {
		t.Errorf("Evaluate template has a bad verb: %s", out)
	}

	_, extract := defaultPrompts(config.OpExtract)
	if out := fmt.Sprintf(extract, "resume text"); strings.Contains(out, "%!") {
		t.Errorf("Extract template has a bad verb: %s", out)
	}

	_, summarize := defaultPrompts(config.OpSummarize)
	if out := fmt.Sprintf(summarize, "{}"); strings.Contains(out, "%!") {
		t.Errorf("Summarize template has a bad verb: %s", out)
	}

	_, describe := defaultPrompts(config.OpDescribe)
	out = formatDescribePrompt(describe, types.JobRequest{
		JobTitle:        "Backend Engineer",
		RequiredSkills:  "Go, SQL",
		YearsExperience: "3+",
	})
	if strings.Contains(out, "%!") {
		t.Errorf("Describe template has a bad verb: %s", out)
	}
	if !strings.Contains(out, "Backend Engineer") || !strings.Contains(out, "Go, SQL") {
		t.Error("Expected describe prompt to embed the request")
	}
}

func TestEvaluationResponseSchemaRequiresEveryCriterion(t *testing.T) {
	schema := evaluationResponseSchema()
	for _, key := range []string{"years_experience_score", "skills", "industry_relevance", "achievements_and_certs", "education_alignment", "summary"} {
		if _, ok := schema.Properties[key]; !ok {
			t.Errorf("Expected property %s", key)
		}
	}
	if len(schema.Required) != 8 {
		t.Errorf("Expected 8 required properties, got %d", len(schema.Required))
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range tests {
		got := stripCodeFence(in)
		if got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
		if !json.Valid([]byte(got)) {
			t.Errorf("Expected valid JSON from %q", in)
		}
	}
}

func TestNormalizeL2(t *testing.T) {
	got := NormalizeL2([]float32{3, 4})
	if math.Abs(float64(got[0])-0.6) > 1e-6 || math.Abs(float64(got[1])-0.8) > 1e-6 {
		t.Errorf("Expected [0.6 0.8], got %v", got)
	}

	var sum float64
	for _, x := range NormalizeL2([]float32{1, 2, 3, 4, 5}) {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("Expected unit length, got %v", sum)
	}

	zero := NormalizeL2([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("Expected zero vector unchanged, got %v", zero)
	}
}

func TestOracleLimiter(t *testing.T) {
	unlimited := newOracleLimiter(0, 0)
	for range 100 {
		if !unlimited.Allow() {
			t.Fatal("Expected unlimited limiter to allow every call")
		}
	}

	limited := newOracleLimiter(60, 2)
	if !limited.Allow() || !limited.Allow() {
		t.Fatal("Expected burst of 2")
	}
	if limited.Allow() {
		t.Error("Expected third immediate call to be throttled")
	}
}

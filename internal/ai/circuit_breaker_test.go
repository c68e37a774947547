package ai

import (
	"fmt"
	"testing"
	"time"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"
)

func testBreakerConfig(minRequests uint32, threshold float64) config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      minRequests,
		FailureThreshold: threshold,
	}
}

func TestIndependentCircuitBreakers(t *testing.T) {
	evaluateCB := NewCircuitBreaker[string](config.OpEvaluate, testBreakerConfig(2, 0.5), errors.Discard())
	extractCB := NewCircuitBreaker[string](config.OpExtract, testBreakerConfig(2, 0.5), errors.Discard())

	fail := func() (string, error) { return "", fmt.Errorf("upstream down") }
	for range 2 {
		_, _ = evaluateCB.Execute(fail)
	}

	if evaluateCB.IsHealthy() {
		t.Error("Expected evaluate breaker to be open after repeated failures")
	}
	if !extractCB.IsHealthy() {
		t.Error("Expected extract breaker to be unaffected by evaluate failures")
	}

	stats := evaluateCB.GetStats()
	if name, _ := stats["name"].(string); name != "AI-evaluate" {
		t.Errorf("Expected circuit breaker name 'AI-evaluate', got '%v'", stats["name"])
	}
	if state, _ := stats["state"].(string); state != "open" {
		t.Errorf("Expected state 'open', got '%v'", stats["state"])
	}
}

func TestCircuitBreakerRejectsWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker[int]("embed", testBreakerConfig(1, 0.5), nil)

	_, _ = cb.Execute(func() (int, error) { return 0, fmt.Errorf("boom") })

	calls := 0
	_, err := cb.Execute(func() (int, error) {
		calls++
		return 1, nil
	})
	if err == nil {
		t.Fatal("Expected open breaker to reject the call")
	}
	if !isBreakerRejection(err) {
		t.Errorf("Expected breaker rejection error, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected wrapped function not to run, ran %d times", calls)
	}
}

func TestCircuitBreakerStaysClosedBelowMinRequests(t *testing.T) {
	cb := NewCircuitBreaker[int]("describe", testBreakerConfig(5, 0.5), nil)

	for range 4 {
		_, _ = cb.Execute(func() (int, error) { return 0, fmt.Errorf("boom") })
	}
	if !cb.IsHealthy() {
		t.Error("Expected breaker to stay closed below the minimum request count")
	}
}

func TestDisabledCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker[string]("evaluate", config.CircuitBreakerConfig{Enabled: false}, nil)
	if cb != nil {
		t.Fatal("Expected nil breaker when disabled")
	}

	got, err := cb.Execute(func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Errorf("Expected passthrough result, got %q, %v", got, err)
	}
	if !cb.IsHealthy() {
		t.Error("Expected disabled breaker to report healthy")
	}
	if enabled, _ := cb.GetStats()["enabled"].(bool); enabled {
		t.Error("Expected stats to report disabled breaker")
	}
}

func TestModelCircuitBreakerConfig(t *testing.T) {
	base := testBreakerConfig(3, 0.6)
	got := newModelCircuitBreakerConfig(base)

	if got.MinRequests != 5 || got.FailureThreshold != 0.8 {
		t.Errorf("Expected lenient model settings, got min=%d threshold=%v", got.MinRequests, got.FailureThreshold)
	}
	if base.MinRequests != 3 {
		t.Error("Expected base config to be left untouched")
	}
	if got.Timeout != base.Timeout {
		t.Error("Expected other settings to carry over")
	}
}

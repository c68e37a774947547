package ai

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"talentmatch/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"wrapped canceled", fmt.Errorf("call: %w", context.Canceled), false},
		{"network", &net.OpError{Op: "dial", Err: fmt.Errorf("refused")}, true},
		{"googleapi 429", &googleapi.Error{Code: 429}, true},
		{"googleapi 503", fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 503}), true},
		{"googleapi 400", &googleapi.Error{Code: 400}, false},
		{"genai 500", genai.APIError{Code: 500}, true},
		{"genai 404", genai.APIError{Code: 404}, false},
		{"plain", fmt.Errorf("bad prompt"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffFor(t *testing.T) {
	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{1, time.Second, 1100 * time.Millisecond},
		{2, 2 * time.Second, 2200 * time.Millisecond},
		{3, 4 * time.Second, 4400 * time.Millisecond},
		{10, maxBackoff, maxBackoff},
	}

	for _, tt := range tests {
		got := backoffFor(tt.attempt)
		if got < tt.min || got > tt.max {
			t.Errorf("backoffFor(%d) = %v, want within [%v, %v]", tt.attempt, got, tt.min, tt.max)
		}
	}
}

func TestExecuteWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := executeWithRetry(context.Background(), errors.Discard(), "evaluate", 3, func() (string, error) {
		calls++
		return "", &googleapi.Error{Code: 400}
	})
	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestExecuteWithRetrySucceedsFirstTry(t *testing.T) {
	got, err := executeWithRetry(context.Background(), errors.Discard(), "embed", 2, func() (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Errorf("Expected 42, nil; got %d, %v", got, err)
	}
}

func TestExecuteWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := executeWithRetry(ctx, errors.Discard(), "evaluate", 3, func() (string, error) {
		calls++
		cancel()
		return "", &googleapi.Error{Code: 503}
	})
	if err == nil {
		t.Fatal("Expected error after cancellation")
	}
	if calls != 1 {
		t.Errorf("Expected no retry after cancellation, got %d calls", calls)
	}
}

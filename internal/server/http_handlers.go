package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"talentmatch/internal/errors"
)

// healthHandler reports AI model, circuit breaker and store status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.HealthCheckTimeout)
	defer cancel()

	response := map[string]any{
		"status":  "healthy",
		"service": "talentmatch",
		"version": s.Version,
	}
	overallHealthy := true

	if s.services.AI != nil {
		modelInfo := s.services.AI.GetModelInfo(ctx)
		response["ai_model"] = modelInfo
		if modelInfo == nil || !modelInfo.Available {
			overallHealthy = false
		}

		breakers := s.services.AI.GetCircuitBreakerStats()
		response["circuit_breakers"] = breakers
		if healthy, ok := breakers["overall_healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	if s.services.Store != nil {
		storeStatus := map[string]any{"available": true}
		if err := s.services.Store.Ping(ctx); err != nil {
			storeStatus["available"] = false
			storeStatus["error"] = err.Error()
			overallHealthy = false
		}
		response["store"] = storeStatus
	}

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "talentmatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_upload_size_bytes":  s.MaxUploadSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// statusFor maps an application error onto an HTTP status.
func statusFor(err error) int {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeSchema:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeUpstream:
		if appErr.Code == errors.ErrCodeStoreUnavailable || appErr.Context["circuit_open"] == true {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError writes err with its mapped status. Internal details are not
// returned for 5xx responses that are not upstream failures.
func writeAppError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		writeErrorResponse(w, "Internal error", "unexpected server error", status)
		return
	}
	resp := ErrorResponse{Error: appErr.Message, Code: appErr.Code}
	if status == http.StatusInternalServerError {
		resp.Error = "Internal error"
	}
	writeJSON(w, status, resp)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

package server

import (
	"net/http"
	"strings"

	"talentmatch/internal/observability"
)

// route is one API endpoint. upload selects the larger body limit.
type route struct {
	pattern     string
	description string
	handler     func(*observability.ObservabilityManager) http.HandlerFunc
	public      bool
	upload      bool
}

// routes lists every endpoint; the startup banner prints the same table.
func (s *Server) routes() []route {
	return []route{
		{pattern: "GET /health", description: "Health check", public: true,
			handler: func(*observability.ObservabilityManager) http.HandlerFunc { return s.healthHandler }},
		{pattern: "GET /stats", description: "Server statistics", public: true,
			handler: func(*observability.ObservabilityManager) http.HandlerFunc { return s.statsHandler }},

		{pattern: "POST /screening/run", description: "Screen candidates for a job", handler: s.createScreeningRunHandler},
		{pattern: "GET /screening/summary", description: "Screening funnel counts (?job_id=)", handler: s.createScreeningSummaryHandler},

		{pattern: "POST /jobs/generate", description: "Draft a job description", handler: s.createJobGenerateHandler},
		{pattern: "POST /jobs", description: "Create a job", handler: s.createJobCreateHandler},
		{pattern: "GET /jobs", description: "List jobs (?limit=)", handler: s.createJobListHandler},
		{pattern: "GET /jobs/{id}", description: "Get a job", handler: s.createJobGetHandler},

		{pattern: "POST /resumes/{job_id}/upload", description: `Upload resumes (multipart "files")`, handler: s.createUploadHandler, upload: true},
		{pattern: "GET /resumes/{job_id}/uploads", description: "List uploaded resumes", handler: s.createUploadListHandler},
		{pattern: "DELETE /resumes/{job_id}/uploads/{name}", description: "Delete an uploaded resume", handler: s.createUploadDeleteHandler},
		{pattern: "POST /resumes/{job_id}/process", description: "Ingest uploaded resumes", handler: s.createProcessHandler},
	}
}

// setupRoutes registers every route behind rate limiting, authentication
// and a body size limit. Public routes skip all three.
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware(om)
	requestLimit := s.requestSizeLimitMiddleware(s.MaxRequestSize)
	uploadLimit := s.requestSizeLimitMiddleware(s.MaxUploadSize)

	for _, rt := range s.routes() {
		h := rt.handler(om)
		if !rt.public {
			limit := requestLimit
			if rt.upload {
				limit = uploadLimit
			}
			h = rateLimit(s.authMiddleware(limit(h)))
		}
		mux.HandleFunc(rt.pattern, h)
	}
	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestAPIKey reads X-API-Key, falling back to a Bearer token.
func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(limit int64) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}

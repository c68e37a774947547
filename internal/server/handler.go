package server

import (
	"net/http"
	"strconv"
	"strings"

	"talentmatch/internal/errors"
	"talentmatch/internal/ingest"
	"talentmatch/internal/observability"
	"talentmatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "talentmatch.api"

	// multipartMemory is how much of an upload form is buffered in memory
	multipartMemory = 8 << 20
)

// fail records err on the span and writes the mapped error response.
func (s *Server) fail(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
	if statusFor(err) >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed")
	}
	writeAppError(w, err)
}

// badRequest records a malformed request on the span and writes a 400.
func badRequest(w http.ResponseWriter, span trace.Span, err error, message string) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", "validation"))
	writeErrorResponse(w, message, err.Error(), http.StatusBadRequest)
}

// createScreeningRunHandler runs a screening for one job
func (s *Server) createScreeningRunHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.screening.run")
		defer span.End()

		var req types.ScreeningRequest
		if err := parseJSONRequest(r, &req); err != nil {
			badRequest(w, span, err, "Invalid request body")
			return
		}
		span.SetAttributes(attribute.String("job_id", req.JobID))

		resp, err := s.services.Screening.Run(ctx, req)
		if err != nil {
			s.fail(w, span, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("search_type", resp.SearchType),
			attribute.Int("response.returned_count", resp.Stats.ReturnedCount),
		)
		writeJSON(w, http.StatusOK, resp)
	}
}

// createScreeningSummaryHandler reports per-stage counts for a job
func (s *Server) createScreeningSummaryHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.screening.summary")
		defer span.End()

		jobID := strings.TrimSpace(r.URL.Query().Get("job_id"))
		span.SetAttributes(attribute.String("job_id", jobID))

		summary, err := s.services.Screening.Summary(ctx, jobID)
		if err != nil {
			s.fail(w, span, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// createJobGenerateHandler drafts a job description
func (s *Server) createJobGenerateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.jobs.generate")
		defer span.End()

		var req types.JobRequest
		if err := parseJSONRequest(r, &req); err != nil {
			badRequest(w, span, err, "Invalid request body")
			return
		}

		generated, err := s.services.Jobs.Generate(ctx, req)
		if err != nil {
			s.fail(w, span, err)
			return
		}
		span.SetAttributes(attribute.Int("response.description_length", len(generated.JobDescription)))
		writeJSON(w, http.StatusOK, generated)
	}
}

// createJobCreateHandler stores a job posting
func (s *Server) createJobCreateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.jobs.create")
		defer span.End()

		var req types.CreateJobRequest
		if err := parseJSONRequest(r, &req); err != nil {
			badRequest(w, span, err, "Invalid request body")
			return
		}

		job, err := s.services.Jobs.Create(ctx, req)
		if err != nil {
			s.fail(w, span, err)
			return
		}
		span.SetAttributes(attribute.String("job_id", job.JobID))
		writeJSON(w, http.StatusCreated, job)
	}
}

// createJobListHandler lists recent jobs
func (s *Server) createJobListHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.jobs.list")
		defer span.End()

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				badRequest(w, span, err, "Invalid limit")
				return
			}
			limit = n
		}

		list, err := s.services.Jobs.List(ctx, limit)
		if err != nil {
			s.fail(w, span, err)
			return
		}
		span.SetAttributes(attribute.Int("response.count", len(list)))
		writeJSON(w, http.StatusOK, list)
	}
}

// createJobGetHandler returns one job
func (s *Server) createJobGetHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.jobs.get")
		defer span.End()

		jobID := r.PathValue("id")
		span.SetAttributes(attribute.String("job_id", jobID))

		job, err := s.services.Jobs.Get(ctx, jobID)
		if err != nil {
			s.fail(w, span, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

// createUploadHandler saves multipart "files" under the job's upload folder
func (s *Server) createUploadHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.resumes.upload")
		defer span.End()

		jobID := r.PathValue("job_id")
		span.SetAttributes(attribute.String("job_id", jobID))

		if _, err := s.services.Jobs.Get(ctx, jobID); err != nil {
			s.fail(w, span, err)
			return
		}

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			badRequest(w, span, err, "Invalid multipart form")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			writeErrorResponse(w, "No files", "multipart field \"files\" is required", http.StatusBadRequest)
			return
		}

		uploads := make([]ingest.Upload, 0, len(headers))
		for _, h := range headers {
			f, err := h.Open()
			if err != nil {
				badRequest(w, span, err, "Unreadable upload")
				return
			}
			defer f.Close()
			uploads = append(uploads, ingest.Upload{Name: h.Filename, Reader: f})
		}

		result := s.services.Uploads.SaveBatch(jobID, uploads)
		span.SetAttributes(
			attribute.Int("response.saved", result.Saved),
			attribute.Int("response.failed", len(result.Errors)),
		)
		status := http.StatusCreated
		if result.Saved == 0 {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, result)
	}
}

// createUploadListHandler lists stored uploads for a job
func (s *Server) createUploadListHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(tracerName).Start(r.Context(), "api.resumes.list")
		defer span.End()

		files, err := s.services.Uploads.List(r.PathValue("job_id"))
		if err != nil {
			s.fail(w, span, err)
			return
		}
		writeJSON(w, http.StatusOK, files)
	}
}

// createUploadDeleteHandler removes one stored upload
func (s *Server) createUploadDeleteHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(tracerName).Start(r.Context(), "api.resumes.delete")
		defer span.End()

		if err := s.services.Uploads.Delete(r.PathValue("job_id"), r.PathValue("name")); err != nil {
			s.fail(w, span, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// createProcessHandler ingests the stored resumes for a job
func (s *Server) createProcessHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.resumes.process")
		defer span.End()

		jobID := r.PathValue("job_id")
		span.SetAttributes(attribute.String("job_id", jobID))

		report, err := s.services.Ingest.Process(ctx, jobID)
		if err != nil {
			s.fail(w, span, err)
			return
		}
		span.SetAttributes(
			attribute.Int("response.inserted", report.TotalCandidates),
			attribute.Int("response.failed", len(report.Errors)),
		)
		writeJSON(w, http.StatusOK, report)
	}
}

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"resufit/internal/observability"
	"resufit/internal/parse"
	"resufit/internal/rating"
	"resufit/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createRateHandler wraps the single-resume rating handler with observability
func (s *Server) createRateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resufit.api")
		ctx, span := tracer.Start(ctx, "api.rate")
		defer span.End()

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		jobDescription, err := s.readJobDescription(r)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request", err.Error(), http.StatusBadRequest)
			return
		}

		input, err := s.readResumeUpload(r, "resume")
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid resume upload", err.Error(), http.StatusBadRequest)
			return
		}
		input.JobDescription = jobDescription

		span.SetAttributes(
			attribute.Int("request.resume_length", len(input.ResumeText)),
			attribute.Int("request.job_length", len(jobDescription)),
			attribute.String("request.filename", input.Filename),
			attribute.String("operation", "rate"),
		)

		ratingService, err := s.getRatingService()
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create rating service", err.Error(), http.StatusInternalServerError)
			return
		}

		opts := s.ratingOptions(r)

		metrics := om.GetMetrics()
		start := time.Now()
		result, err := ratingService.Rate(ctx, input, opts)
		duration := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "rating"))
			metrics.RecordBusinessMetric(ctx, "resume_rated", false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to rate resume", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics.RecordBusinessMetric(ctx, "resume_rated", true, om,
			attribute.Float64("score", result.Score0to10),
			attribute.String("decision", result.Justification.Recommendation.Decision))
		metrics.RecordRatingOutcome(ctx, result.Score0to10, duration, om)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Float64("response.score", result.Score0to10),
			attribute.Int("response.matched_skills", len(result.MatchedSkills)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createBatchRateHandler wraps the batch rating handler with observability
func (s *Server) createBatchRateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resufit.api")
		ctx, span := tracer.Start(ctx, "api.batch_rate")
		defer span.End()

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		jobDescription, err := s.readJobDescription(r)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request", err.Error(), http.StatusBadRequest)
			return
		}

		files := r.MultipartForm.File["resumes"]
		if len(files) == 0 {
			err := fmt.Errorf("no resume files provided")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resumes", "at least one file is required in the resumes field", http.StatusBadRequest)
			return
		}

		// Parse uploads up front; a broken document becomes a failed batch
		// item instead of rejecting the whole request.
		resumes := make([]types.RateInput, len(files))
		parseErrs := make([]error, len(files))
		for i, header := range files {
			doc, parseErr := s.parseUpload(header)
			resumes[i] = types.RateInput{
				ResumeText: doc.Text,
				Filename:   header.Filename,
			}
			parseErrs[i] = parseErr
		}

		span.SetAttributes(
			attribute.Int("request.resume_count", len(files)),
			attribute.Int("request.job_length", len(jobDescription)),
			attribute.String("operation", "batch_rate"),
		)

		ratingService, err := s.getRatingService()
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create rating service", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics := om.GetMetrics()
		start := time.Now()
		batch := ratingService.RateBatch(ctx, jobDescription, resumes, s.ratingOptions(r))
		duration := time.Since(start).Seconds()

		// Surface the original parse error for items that never had text.
		for i, parseErr := range parseErrs {
			if parseErr != nil {
				batch.Items[i].Error = parseErr.Error()
			}
		}

		metrics.RecordBusinessMetric(ctx, "batch_rated", batch.Summary.Failed == 0, om,
			attribute.Int("batch.total", batch.Summary.Total),
			attribute.Int("batch.rated", batch.Summary.Rated),
			attribute.Int("batch.failed", batch.Summary.Failed))
		for _, item := range batch.Items {
			if item.Result != nil {
				metrics.RecordRatingOutcome(ctx, item.Result.Score0to10, duration, om)
			}
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.rated", batch.Summary.Rated),
			attribute.Int("response.failed", batch.Summary.Failed),
			attribute.Int("response.recommended", batch.Summary.Recommended),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(batch); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// readJobDescription pulls the job description from the multipart form,
// accepting either the job_description field or an uploaded jd file
func (s *Server) readJobDescription(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(s.MaxRequestSize); err != nil {
		return "", fmt.Errorf("failed to parse multipart form: %w", err)
	}

	if jd := strings.TrimSpace(r.FormValue("job_description")); jd != "" {
		return jd, nil
	}

	if headers := r.MultipartForm.File["job_description"]; len(headers) > 0 {
		doc, err := s.parseUpload(headers[0])
		if err != nil {
			return "", fmt.Errorf("failed to parse job description file: %w", err)
		}
		return doc.Text, nil
	}

	return "", fmt.Errorf("job_description field is required")
}

// readResumeUpload extracts and parses the uploaded resume document
func (s *Server) readResumeUpload(r *http.Request, field string) (types.RateInput, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return types.RateInput{}, fmt.Errorf("%s file is required: %w", field, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, s.MaxRequestSize))
	if err != nil {
		return types.RateInput{}, fmt.Errorf("failed to read %s upload: %w", field, err)
	}

	doc, err := parse.Parse(data, header.Filename)
	if err != nil {
		return types.RateInput{}, err
	}

	return types.RateInput{ResumeText: doc.Text, Filename: header.Filename}, nil
}

// parseUpload opens and parses one multipart file header
func (s *Server) parseUpload(header *multipart.FileHeader) (parse.Document, error) {
	file, err := header.Open()
	if err != nil {
		return parse.Document{}, fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, s.MaxRequestSize))
	if err != nil {
		return parse.Document{}, fmt.Errorf("failed to read upload %s: %w", header.Filename, err)
	}

	return parse.Parse(data, header.Filename)
}

// ratingOptions derives rating options from config, with per-request form
// overrides matching the upload form's include_audio switch
func (s *Server) ratingOptions(r *http.Request) rating.Options {
	opts := rating.DefaultOptions(s.AppConfig)
	switch strings.ToLower(r.FormValue("include_audio")) {
	case "true", "1", "on":
		opts.IncludeAudio = true
	case "false", "0", "off":
		opts.IncludeAudio = false
	}
	return opts
}

// createRateLimitMiddleware layers a rate-limit-hit metric on top of the
// plain rate limiting middleware. The status code is sniffed off the
// response since the limiter itself has no observability hook.
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	limit := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return observeRejections(limit(next), func(r *http.Request) {
			om.GetMetrics().RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
				attribute.String("endpoint", r.URL.Path),
				attribute.String("method", r.Method))
		})
	}
}

// observeRejections wraps handler, limiter included, with a status recorder.
// A rejected request is answered by the limiter without calling further
// handlers, so the 429 must be sniffed outside the limiter, not inside.
func observeRejections(handler http.HandlerFunc, onReject func(*http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sniffer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(sniffer, r)

		if sniffer.status == http.StatusTooManyRequests {
			onReject(r)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

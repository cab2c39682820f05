package server

import (
	"net/http"
	"strings"

	"resufit/internal/observability"
)

// setupRoutes wires the endpoints to their middleware chains. Health and
// stats stay open; everything else sits behind rate limiting and API auth.
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimited := s.createRateLimitMiddleware(om)
	sizeLimited := s.requestSizeLimitMiddleware()

	mux.HandleFunc("/healthz", s.countRequests(s.healthHandler))
	mux.HandleFunc("/stats", s.countRequests(s.statsHandler))
	mux.HandleFunc("/rate",
		s.countRequests(rateLimited(
			s.authMiddleware(sizeLimited(s.createRateHandler(om))),
		)),
	)
	mux.HandleFunc("/batch-rate",
		s.countRequests(rateLimited(
			s.authMiddleware(sizeLimited(s.createBatchRateHandler(om))),
		)),
	)
	mux.HandleFunc("/audio/{filename}",
		s.countRequests(rateLimited(s.authMiddleware(s.audioHandler))),
	)
	mux.HandleFunc("/download-recommended",
		s.countRequests(rateLimited(s.authMiddleware(s.downloadRecommendedHandler))),
	)

	return mux
}

// countRequests increments the request counter served by /stats
func (s *Server) countRequests(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.requestCount.Add(1)
		next(w, r)
	}
}

// requestAPIKey pulls the client's key from X-API-Key, falling back to an
// Authorization Bearer token
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}

// authMiddleware enforces API key authentication. With no keys configured
// the server runs open.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

// requestSizeLimitMiddleware caps request body size at MaxRequestSize
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey keeps the first 8 characters for log correlation
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}

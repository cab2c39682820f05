package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resufit/internal/config"
	"resufit/internal/errors"
	"resufit/internal/observability"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Rating.AudioDir = filepath.Join(dir, "audio")
	cfg.Rating.RecommendedFile = filepath.Join(dir, "recommended.txt")

	return &Server{
		Version:        "test",
		AppConfig:      cfg,
		MaxRequestSize: 1024 * 1024,
		StartedAt:      time.Now(),
		Logger:         errors.NewLogger(slog.LevelError),
	}
}

func TestStatsHandler(t *testing.T) {
	srv := newTestServer(t)
	srv.requestCount.Add(3)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.statsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["service"] != "resufit" {
		t.Errorf("Expected service 'resufit', got %v", body["service"])
	}
	if body["requests_total"] != float64(3) {
		t.Errorf("Expected requests_total 3, got %v", body["requests_total"])
	}
	if _, ok := body["uptime_seconds"]; !ok {
		t.Error("Expected uptime_seconds in response")
	}
}

func TestStatsHandlerRejectsPost(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.statsHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestCountRequestsIncrements(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.countRequests(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for range 5 {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		handler(httptest.NewRecorder(), req)
	}

	if got := srv.requestCount.Load(); got != 5 {
		t.Errorf("Expected request count 5, got %d", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	okHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	tests := []struct {
		name       string
		apiKeys    map[string]bool
		header     string
		value      string
		wantStatus int
	}{
		{
			name:       "no keys configured allows all",
			apiKeys:    map[string]bool{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing key rejected",
			apiKeys:    map[string]bool{"secret-key-123": true},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid X-API-Key accepted",
			apiKeys:    map[string]bool{"secret-key-123": true},
			header:     "X-API-Key",
			value:      "secret-key-123",
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid bearer token accepted",
			apiKeys:    map[string]bool{"secret-key-123": true},
			header:     "Authorization",
			value:      "Bearer secret-key-123",
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid key rejected",
			apiKeys:    map[string]bool{"secret-key-123": true},
			header:     "X-API-Key",
			value:      "wrong-key",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			srv.APIKeys = tt.apiKeys

			req := httptest.NewRequest(http.MethodGet, "/rate", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			srv.authMiddleware(okHandler)(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestAudioHandlerServesFile(t *testing.T) {
	srv := newTestServer(t)
	if err := os.MkdirAll(srv.AppConfig.Rating.AudioDir, 0750); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(srv.AppConfig.Rating.AudioDir, "assessment.wav")
	if err := os.WriteFile(path, []byte("RIFF fake wav"), 0640); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/audio/assessment.wav", nil)
	req.SetPathValue("filename", "assessment.wav")
	rec := httptest.NewRecorder()
	srv.audioHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("Expected Content-Type audio/wav, got %q", ct)
	}
}

func TestAudioHandlerRejectsTraversal(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/audio/x", nil)
	req.SetPathValue("filename", "../secrets.txt")
	rec := httptest.NewRecorder()
	srv.audioHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestAudioHandlerMissingFile(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/audio/missing.wav", nil)
	req.SetPathValue("filename", "missing.wav")
	rec := httptest.NewRecorder()
	srv.audioHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestDownloadRecommendedHandler(t *testing.T) {
	srv := newTestServer(t)

	// Nothing recommended yet
	req := httptest.NewRequest(http.MethodGet, "/download-recommended", nil)
	rec := httptest.NewRecorder()
	srv.downloadRecommendedHandler(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404 before any recommendations, got %d", rec.Code)
	}

	if err := os.WriteFile(srv.AppConfig.Rating.RecommendedFile, []byte("CANDIDATE: Jane Smith\n"), 0640); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest(http.MethodGet, "/download-recommended", nil)
	rec = httptest.NewRecorder()
	srv.downloadRecommendedHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="recommended.txt"` {
		t.Errorf("Unexpected Content-Disposition: %q", cd)
	}
}

func TestDownloadRecommendedUnconfigured(t *testing.T) {
	srv := newTestServer(t)
	srv.AppConfig.Rating.RecommendedFile = ""

	req := httptest.NewRequest(http.MethodGet, "/download-recommended", nil)
	rec := httptest.NewRecorder()
	srv.downloadRecommendedHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestObserveRejectionsSeesLimiterStatus(t *testing.T) {
	// The limiter answers rejected requests itself without calling further
	// handlers, so the wrapped handler here writes the 429 directly.
	rejections := 0
	handler := observeRejections(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
	}, func(*http.Request) { rejections++ })

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/rate", nil))

	if rejections != 1 {
		t.Errorf("Expected 1 observed rejection, got %d", rejections)
	}
}

func TestObserveRejectionsIgnoresSuccess(t *testing.T) {
	rejections := 0
	handler := observeRejections(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, func(*http.Request) { rejections++ })

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/rate", nil))

	if rejections != 0 {
		t.Errorf("Expected no observed rejections, got %d", rejections)
	}
}

func TestRateLimitMiddlewareRejectsOverLimit(t *testing.T) {
	srv := newTestServer(t)
	srv.RateLimit = &config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		Window:         time.Minute,
		BurstCapacity:  1,
		ByIP:           true,
	}
	srv.RateLimiter = NewRateLimiter(1, time.Minute, 1, srv.Logger)
	defer srv.RateLimiter.Close()

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{}, nil)
	if err != nil {
		t.Fatalf("NewObservabilityManager() error = %v", err)
	}

	nextCalls := 0
	handler := srv.createRateLimitMiddleware(om)(func(w http.ResponseWriter, r *http.Request) {
		nextCalls++
		w.WriteHeader(http.StatusOK)
	})

	first := httptest.NewRecorder()
	handler(first, httptest.NewRequest(http.MethodPost, "/rate", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("Expected first request status 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler(second, httptest.NewRequest(http.MethodPost, "/rate", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected second request status 429, got %d", second.Code)
	}
	if nextCalls != 1 {
		t.Errorf("Expected next handler called once, got %d", nextCalls)
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"short", "****"},
		{"12345678", "****"},
		{"123456789abcdef", "12345678****"},
	}

	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

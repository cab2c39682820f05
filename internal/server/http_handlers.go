package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"resufit/internal/ai"
	"resufit/internal/audio"
	"resufit/internal/config"
)

// Certificates nearing expiry flip the health status before they actually
// expire so operators get a window to rotate them.
const (
	certCriticalWindow = 24 * time.Hour
	certWarningWindow  = 7 * 24 * time.Hour
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: error, Message: message})
}

// healthHandler reports service health: model availability per operation,
// circuit breaker state, certificate expiry and the enabled feature map.
// Returns 503 when any model is unavailable or certificates are unhealthy.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	aiStatus := s.checkAIModelsHealth()
	certStatus := s.checkCertificateHealth()

	response := map[string]any{
		"status":  "healthy",
		"service": "resufit",
		"version": s.Version,
		"features": map[string]bool{
			"ai":           s.AppConfig.AI.APIKey != "",
			"tts":          s.AppConfig.Rating.EnableTTS,
			"feedback_pdf": s.AppConfig.Rating.EnableFeedback,
			"vault":        s.AppConfig.Vault.Enabled,
			"tls":          s.TLSConfig.Mode != "" && s.TLSConfig.Mode != "disabled",
		},
		"ai_models":        aiStatus,
		"circuit_breakers": s.checkCircuitBreakerHealth(),
	}
	if certStatus != nil {
		response["certificates"] = certStatus
	}

	status := http.StatusOK
	if !modelsAvailable(aiStatus) || !certsHealthy(certStatus) {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

func modelsAvailable(aiStatus map[string]any) bool {
	for _, modelStatus := range aiStatus {
		info, ok := modelStatus.(map[string]any)
		if !ok {
			continue
		}
		if available, ok := info["available"].(bool); ok && !available {
			return false
		}
	}
	return true
}

func certsHealthy(certStatus map[string]any) bool {
	if certStatus == nil {
		return true
	}
	healthy, ok := certStatus["healthy"].(bool)
	return !ok || healthy
}

// checkAIModelsHealth queries model availability for each rating operation
// within the configured health check timeout
func (s *Server) checkAIModelsHealth() map[string]any {
	ctx, cancel := context.WithTimeout(context.Background(),
		s.AppConfig.Observability.HealthCheck.Timeout)
	defer cancel()

	aiStatus := make(map[string]any)
	for name, opCfg := range s.operationConfigs() {
		cfg := opCfg
		service, err := ai.NewService(&cfg, name, s.Logger)
		if err != nil {
			aiStatus[name] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", name, err),
			}
			continue
		}
		aiStatus[name] = service.GetModelInfo(ctx)
	}
	return aiStatus
}

func (s *Server) checkCircuitBreakerHealth() map[string]any {
	breakerStatus := make(map[string]any)
	for name, opCfg := range s.operationConfigs() {
		cfg := opCfg
		if _, err := ai.NewService(&cfg, name, s.Logger); err != nil {
			breakerStatus[name] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", name, err),
			}
			continue
		}
		breakerStatus[name] = map[string]any{
			"available": true,
			"message":   fmt.Sprintf("Circuit breaker integrated with %s service", name),
		}
	}
	return breakerStatus
}

// operationConfigs lists the per-operation AI configurations by name
func (s *Server) operationConfigs() map[string]config.OperationAIConfig {
	return map[string]config.OperationAIConfig{
		"extract":    s.AppConfig.GetExtractConfig(),
		"experience": s.AppConfig.GetExperienceConfig(),
		"justify":    s.AppConfig.GetJustifyConfig(),
		"speech":     s.AppConfig.GetSpeechConfig(),
	}
}

// checkCertificateHealth reports certificate expiry, auto-reload watcher
// state and reload metrics. Returns nil when TLS is not managed.
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		return map[string]any{
			"healthy": false,
			"error":   fmt.Sprintf("Failed to check certificate expiry: %v", err),
		}
	}

	certStatus := map[string]any{
		"time_to_expiry_hours": int(timeToExpiry.Hours()),
		"time_to_expiry":       timeToExpiry.String(),
	}

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
		certStatus["message"] = "Certificate has expired"
	case timeToExpiry <= certCriticalWindow:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
		certStatus["message"] = "Certificate expires within 24 hours"
	case timeToExpiry <= certWarningWindow:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
		certStatus["message"] = "Certificate expires within 7 days"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
		certStatus["message"] = "Certificate is valid"
	}

	certStatus["auto_reload"] = s.autoReloadStatus()

	if metrics := s.CertificateManager.GetMetrics(); metrics != nil {
		certStatus["metrics"] = map[string]any{
			"reload_count":         metrics.ReloadCount,
			"reload_success_count": metrics.ReloadSuccessCount,
			"reload_failure_count": metrics.ReloadFailureCount,
			"last_reload_time":     metrics.LastReloadTime,
			"last_reload_success":  metrics.LastReloadSuccess,
			"last_reload_error":    metrics.LastReloadError,
		}
	}

	return certStatus
}

func (s *Server) autoReloadStatus() map[string]any {
	if !s.TLSConfig.AutoReload.Enabled {
		return map[string]any{"enabled": false}
	}

	status := map[string]any{
		"enabled":               true,
		"file_watcher_enabled":  s.TLSConfig.AutoReload.FileWatcher.Enabled,
		"vault_watcher_enabled": s.TLSConfig.AutoReload.VaultWatcher.Enabled,
	}
	if fw := s.CertificateManager.fileWatcher; fw != nil {
		status["file_watcher_running"] = fw.IsRunning()
		status["watched_files"] = fw.GetWatchedFiles()
	}
	if vw := s.CertificateManager.vaultWatcher; vw != nil {
		status["vault_watcher_status"] = vw.Status()
	}
	return status
}

// statsHandler reports uptime, request counts and rate limiting state
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.StartedAt)
	response := map[string]any{
		"service":        "resufit",
		"version":        s.Version,
		"uptime_seconds": int64(uptime.Seconds()),
		"uptime":         uptime.String(),
		"requests_total": s.requestCount.Load(),
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
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

// audioHandler serves generated assessment audio from the audio directory.
// Filenames are validated to stay inside the directory.
func (s *Server) audioHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filename := r.PathValue("filename")
	path, err := audio.SafeJoin(s.AppConfig.Rating.AudioDir, filename)
	if err != nil {
		writeErrorResponse(w, "Invalid filename", err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := os.Stat(path); err != nil {
		writeErrorResponse(w, "Audio not found", fmt.Sprintf("no audio file named %s", filename), http.StatusNotFound)
		return
	}

	switch filepath.Ext(filename) {
	case ".wav":
		w.Header().Set("Content-Type", "audio/wav")
	case ".mp3":
		w.Header().Set("Content-Type", "audio/mpeg")
	case ".ogg":
		w.Header().Set("Content-Type", "audio/ogg")
	}
	http.ServeFile(w, r, path)
}

// downloadRecommendedHandler serves the accumulated recommended-candidates
// log as an attachment
func (s *Server) downloadRecommendedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := s.AppConfig.Rating.RecommendedFile
	if path == "" {
		writeErrorResponse(w, "Not configured", "recommended candidates file is not configured", http.StatusNotFound)
		return
	}
	if _, err := os.Stat(path); err != nil {
		writeErrorResponse(w, "No recommendations yet", "no candidates have been recommended", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

package server

import (
	"sync"
	"sync/atomic"
	"time"

	"resufit/internal/config"
	resufitErrors "resufit/internal/errors"
	"resufit/internal/observability"
	"resufit/internal/rating"
)

// ErrorResponse is the JSON body returned for failed requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server is the HTTP front end of the rating engine
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config

	TLSConfig          config.TLSConfig
	CertificateManager *CertificateManager

	// Valid API keys, keyed for O(1) lookup
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Rating pipeline, created lazily so tests can inject their own
	ratingService *rating.Service
	ratingOnce    sync.Once
	ratingErr     error

	// Set by Start; the lazily built rating service reports its AI calls
	// through it
	obsManager *observability.ObservabilityManager

	StartedAt    time.Time
	requestCount atomic.Int64

	Logger *resufitErrors.Logger
}

// ServerConfig carries the settings NewServer needs
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer builds a Server, wiring up the rate limiter when enabled
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *resufitErrors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		StartedAt:      time.Now(),
		Logger:         logger,
	}
}

// SetRatingService injects a rating service, bypassing lazy construction
func (s *Server) SetRatingService(svc *rating.Service) {
	s.ratingOnce.Do(func() {})
	s.ratingService = svc
	s.ratingErr = nil
}

// getRatingService returns the shared rating pipeline, building it on first
// use so the AI providers and their circuit breakers live for the server's
// lifetime instead of per request
func (s *Server) getRatingService() (*rating.Service, error) {
	s.ratingOnce.Do(func() {
		s.ratingService, s.ratingErr = rating.NewService(s.AppConfig, s.Logger)
		if s.ratingErr == nil && s.obsManager != nil {
			s.ratingService.AttachObservability(s.obsManager)
		}
	})
	return s.ratingService, s.ratingErr
}

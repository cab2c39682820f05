package ai

import (
	"log/slog"
	"testing"
	"time"

	"resufit/internal/config"
	"resufit/internal/errors"
)

func ptr[T any](v T) *T { return &v }

var testLogger = errors.NewLogger(slog.LevelDebug)

// TestOperationConfigDerivation checks that each operation picks up its own
// overrides and falls back to the global AI settings for everything else.
func TestOperationConfigDerivation(t *testing.T) {
	cfg := &config.Config{
		AI: config.AIConfig{
			Provider:         "gemini",
			Model:            "global-model",
			Timeout:          60 * time.Second,
			APIKey:           "global-api-key",
			MaxRetries:       5,
			Temperature:      0.9,
			UseSystemPrompts: true,

			Extract: config.OperationAIConfig{
				Model:       "extract-specific-model",
				Timeout:     ptr(45 * time.Second),
				Temperature: ptr(float32(0.1)),
			},
			Justify: config.OperationAIConfig{
				Model:      "justify-specific-model",
				MaxRetries: ptr(1),
			},
			// Experience carries no overrides and should inherit everything
		},
	}

	t.Run("extract overrides model, timeout and temperature", func(t *testing.T) {
		op := cfg.GetExtractConfig()
		if op.Model != "extract-specific-model" {
			t.Errorf("Model = %q, want extract-specific-model", op.Model)
		}
		if *op.Timeout != 45*time.Second {
			t.Errorf("Timeout = %v, want 45s", *op.Timeout)
		}
		if *op.Temperature != 0.1 {
			t.Errorf("Temperature = %f, want 0.1", *op.Temperature)
		}
		if op.APIKey != "global-api-key" {
			t.Errorf("APIKey = %q, want global fallback", op.APIKey)
		}
		if *op.MaxRetries != 5 {
			t.Errorf("MaxRetries = %d, want global fallback 5", *op.MaxRetries)
		}
		assertServiceCreation(t, op, "extract")
	})

	t.Run("justify overrides model and retries", func(t *testing.T) {
		op := cfg.GetJustifyConfig()
		if op.Model != "justify-specific-model" {
			t.Errorf("Model = %q, want justify-specific-model", op.Model)
		}
		if *op.MaxRetries != 1 {
			t.Errorf("MaxRetries = %d, want 1", *op.MaxRetries)
		}
		if *op.Timeout != 60*time.Second {
			t.Errorf("Timeout = %v, want global fallback 60s", *op.Timeout)
		}
		assertServiceCreation(t, op, "justify")
	})

	t.Run("experience inherits all globals", func(t *testing.T) {
		op := cfg.GetExperienceConfig()
		if op.Model != "global-model" {
			t.Errorf("Model = %q, want global-model", op.Model)
		}
		if *op.Timeout != 60*time.Second {
			t.Errorf("Timeout = %v, want 60s", *op.Timeout)
		}
		if op.APIKey != "global-api-key" {
			t.Errorf("APIKey = %q, want global-api-key", op.APIKey)
		}
		assertServiceCreation(t, op, "experience")
	})
}

// assertServiceCreation confirms the factory can consume a derived config.
// The dummy key may produce an error but must not panic.
func assertServiceCreation(t *testing.T, cfg config.OperationAIConfig, operation string) {
	t.Helper()

	if _, err := NewService(&cfg, operation, testLogger); err != nil {
		t.Logf("Received expected error when creating service with test key: %v", err)
	}
}

func TestCircuitBreakerIntegrationWithServices(t *testing.T) {
	opConfig := &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "test-model",
		Timeout:          ptr(30 * time.Second),
		APIKey:           "test-key",
		MaxRetries:       ptr(1),
		Temperature:      ptr(float32(0.5)),
		UseSystemPrompts: ptr(true),
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          45 * time.Second,
			MinRequests:      2,
			FailureThreshold: 0.8,
		},
	}

	service, err := NewService(opConfig, "test-op", testLogger)
	if err != nil {
		t.Logf("Received expected error when creating service with test key: %v", err)
	}

	if service.config.CircuitBreaker.MaxRequests != 5 {
		t.Errorf("breaker max requests = %d, want 5", service.config.CircuitBreaker.MaxRequests)
	}
	if service.config.CircuitBreaker.FailureThreshold != 0.8 {
		t.Errorf("breaker failure threshold = %f, want 0.8", service.config.CircuitBreaker.FailureThreshold)
	}

	geminiProvider, ok := service.Provider.(*GeminiProvider)
	if !ok {
		t.Fatal("Service provider is not of type *GeminiProvider")
	}

	stats := geminiProvider.GetCircuitBreakerStats()

	aiOpsStats, ok := stats["ai_operations"].(map[string]any)
	if !ok {
		t.Fatal("AI operations stats should exist and be a map")
	}
	if name, _ := aiOpsStats["name"].(string); name != "AI-test-op" {
		t.Errorf("breaker name = %q, want AI-test-op", name)
	}

	modelOpsStats, ok := stats["model_operations"].(map[string]any)
	if !ok {
		t.Fatal("Model operations stats should exist and be a map")
	}
	if name, _ := modelOpsStats["name"].(string); name != "AI-Model-test-op" {
		t.Errorf("model breaker name = %q, want AI-Model-test-op", name)
	}

	if healthy, _ := stats["overall_healthy"].(bool); !healthy {
		t.Error("breakers should be healthy initially")
	}
}

package ai

import (
	"testing"
	"time"

	"resufit/internal/config"
)

func breakerConfig(maxRequests uint32, minRequests uint32, threshold float64) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      maxRequests,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      minRequests,
			FailureThreshold: threshold,
		},
	}
}

func TestPerOperationCircuitBreakers(t *testing.T) {
	// Each operation carries its own breaker with its own thresholds
	extractCB := NewAICircuitBreaker("Extract", breakerConfig(3, 3, 0.6), nil)
	experienceCB := NewAICircuitBreaker("Experience", breakerConfig(5, 2, 0.7), nil)
	justifyCB := NewAICircuitBreaker("Justify", breakerConfig(4, 5, 0.5), nil)

	tests := []struct {
		cb       *AICircuitBreaker
		wantName string
	}{
		{extractCB, "AI-Extract"},
		{experienceCB, "AI-Experience"},
		{justifyCB, "AI-Justify"},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			stats := tt.cb.GetStats()

			if name, _ := stats["name"].(string); name != tt.wantName {
				t.Errorf("breaker name = %q, want %q", name, tt.wantName)
			}
			if state, _ := stats["state"].(string); state != "closed" {
				t.Errorf("initial state = %q, want closed", state)
			}
			if enabled, _ := stats["enabled"].(bool); !enabled {
				t.Error("breaker should report enabled")
			}
			if !tt.cb.IsHealthy() {
				t.Error("breaker should be healthy initially")
			}
		})
	}

	if extractCB == experienceCB || extractCB == justifyCB || experienceCB == justifyCB {
		t.Error("operations must not share breaker instances")
	}
}

func TestModelCircuitBreakerName(t *testing.T) {
	cb := NewModelCircuitBreaker("Extract", breakerConfig(3, 3, 0.6), nil)
	if cb == nil {
		t.Fatal("model breaker should not be nil when enabled")
	}

	stats := cb.GetModelStats()
	if name, _ := stats["name"].(string); name != "AI-Model-Extract" {
		t.Errorf("breaker name = %q, want AI-Model-Extract", name)
	}
	if !cb.IsModelHealthy() {
		t.Error("model breaker should be healthy initially")
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	disabled := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: false,
		},
	}

	cb := NewAICircuitBreaker("Disabled", disabled, nil)
	if cb != nil {
		t.Fatal("breaker should be nil when disabled")
	}

	// Nil breakers pass calls through and report healthy
	if !cb.IsHealthy() {
		t.Error("nil breaker should report healthy")
	}
	if enabled, _ := cb.GetStats()["enabled"].(bool); enabled {
		t.Error("nil breaker should report disabled")
	}
}

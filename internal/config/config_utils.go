package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks fills gaps viper's defaults cannot express: values derived
// from other fields or from the environment. Per-operation API key fallbacks
// live in the Get*Config methods.
func (c *Config) applyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if raw := os.Getenv("RESUFIT_SERVER_APIKEYS"); raw != "" {
			for key := range strings.SplitSeq(raw, ",") {
				c.Server.APIKeys = append(c.Server.APIKeys, strings.TrimSpace(key))
			}
		}
	}

	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = serviceInstanceID(c.Observability.ServiceName)
	}
}

func serviceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return serviceName + "-1"
}

// watchedEnvVars are the variables worth calling out in the startup summary
var watchedEnvVars = []string{
	"RESUFIT_AI_APIKEY",
	"RESUFIT_AI_PROVIDER",
	"RESUFIT_AI_MODEL",
	"RESUFIT_SERVER_PORT",
	"RESUFIT_SERVER_HOST",
	"RESUFIT_APP_LOGLEVEL",
	"RESUFIT_VAULT_ENABLED",
	"GEMINI_API_KEY", // Legacy support
}

// logConfigurationSources prints where configuration came from and the
// effective key values, masking anything secret
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	log.Println("[CONFIG] Environment variables:")
	found := false
	for _, envVar := range watchedEnvVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(envVar), "key") {
			log.Printf("[CONFIG]   %s=***MASKED***", envVar)
		} else {
			log.Printf("[CONFIG]   %s=%s", envVar, value)
		}
		found = true
	}
	if !found {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Printf("[CONFIG] Recommend Threshold: %.1f", c.Rating.RecommendThreshold)
	log.Printf("[CONFIG] TTS Enabled: %t", c.Rating.EnableTTS)

	log.Println("[CONFIG] === Operation-Specific AI Configurations ===")
	for name, op := range map[string]OperationAIConfig{
		"Extract":    c.AI.Extract,
		"Experience": c.AI.Experience,
		"Justify":    c.AI.Justify,
		"Speech":     c.AI.Speech,
	} {
		log.Printf("[CONFIG] %s - Provider: %s, Model: %s", name, op.Provider, op.Model)
	}

	log.Println("[CONFIG] =====================================")
}

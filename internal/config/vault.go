package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"resufit/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault
type VaultSecrets struct {
	// APIKeys expects a single comma-separated string, e.g. "key1,key2,key3"
	APIKeys   string `mapstructure:"apiKeys"`   // Path to server API keys secret
	GeminiKey string `mapstructure:"geminiKey"` // Path to Gemini API key
	TLSCerts  string `mapstructure:"tlsCerts"`  // Path to TLS certificates
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// The logger is optional throughout this file; secrets can be loaded before
// logging is configured.
func vaultDebug(logger *errors.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

func vaultInfo(logger *errors.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Info(msg, args...)
	}
}

func vaultWarn(logger *errors.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

func vaultError(logger *errors.Logger, err error, msg string, args ...any) {
	if logger != nil {
		logger.LogError(err, msg, args...)
	}
}

// NewVaultClient creates a Vault client, resolves its token and verifies the
// connection. Returns nil without error when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		vaultDebug(logger, "Vault integration disabled")
		return nil, nil
	}

	vaultDebug(logger, "Initializing Vault client",
		"address", config.Address,
		"namespace", config.Namespace,
		"token_file", config.TokenFile,
		"has_token", config.Token != "")

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		vaultError(logger, err, "Failed to create Vault client")
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)
	vaultDebug(logger, "Vault token configured", "token_prefix", token[:min(len(token), 8)]+"...")

	health, err := client.Sys().Health()
	if err != nil {
		vaultError(logger, err, "Failed to connect to Vault", "address", config.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	vaultInfo(logger, "Successfully connected to Vault",
		"address", config.Address,
		"version", health.Version,
		"sealed", health.Sealed,
		"cluster_name", health.ClusterName)

	return &VaultClient{client: client, config: config, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or token file
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		vaultDebug(logger, "Reading Vault token from file", "file", config.TokenFile)
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			vaultError(logger, err, "Failed to read Vault token file", "file", config.TokenFile)
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		vaultError(logger, fmt.Errorf("vault token is required"), "Vault token is required when Vault is enabled")
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	return token, nil
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	vaultDebug(vc.logger, "Reading secret from Vault", "path", path)

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		vaultError(vc.logger, err, "Failed to read secret from Vault", "path", path)
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		vaultWarn(vc.logger, "Secret not found at path", "path", path)
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, err := vc.extractSecretData(secret, path)
	if err != nil {
		return nil, err
	}
	version, err := vc.extractSecretVersion(secret, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// extractSecretData unwraps the KVv2 data envelope
func (vc *VaultClient) extractSecretData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

// extractSecretVersion pulls the secret version out of the KVv2 metadata
func (vc *VaultClient) extractSecretVersion(secret *api.Secret, path string) (int64, error) {
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}

	versionRaw, ok := metadata["version"]
	if !ok {
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}

	return parseVersionValue(versionRaw, path)
}

// parseVersionValue handles the types the Vault API may hand back for version
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := parseInt64(v)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}

	masked := "****"
	if len(strValue) > 8 {
		masked = strValue[:4] + "****" + strValue[len(strValue)-4:]
	}
	vaultDebug(vc.logger, "String secret retrieved from Vault",
		"path", path,
		"key", key,
		"masked_value", masked)

	return strValue, nil
}

// GetStringSliceSecret retrieves a comma-separated string as a slice from Vault
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return []string{}, nil
	}

	result := []string{}
	for part := range strings.SplitSeq(value, ",") {
		result = append(result, strings.TrimSpace(part))
	}
	return result, nil
}

// ApplyVaultSecrets loads the configured secrets from Vault into the config:
// server API keys, the Gemini key shared by the four AI operations, and TLS
// certificate material.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		vaultDebug(logger, "Vault integration disabled, skipping secret loading")
		return nil
	}

	vaultInfo(logger, "Loading secrets from Vault",
		"api_keys_path", config.Vault.Secrets.APIKeys,
		"gemini_key_path", config.Vault.Secrets.GeminiKey,
		"tls_certs_path", config.Vault.Secrets.TLSCerts)

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		vaultError(logger, err, "Failed to initialize Vault client")
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	if client == nil {
		return nil
	}

	if err := loadAPIKeysFromVault(client, config, logger); err != nil {
		return err
	}
	if err := loadGeminiKeyFromVault(client, config, logger); err != nil {
		return err
	}
	if err := loadTLSCertsFromVault(client, config, logger); err != nil {
		return err
	}

	vaultInfo(logger, "Successfully completed applying secrets from Vault")
	return nil
}

// loadAPIKeysFromVault fills the server's API key list
func loadAPIKeysFromVault(client *VaultClient, config *Config, logger *errors.Logger) error {
	path := config.Vault.Secrets.APIKeys
	if path == "" {
		return nil
	}

	apiKeys, err := client.GetStringSliceSecret(path, "keys")
	if err != nil {
		vaultError(logger, err, "Failed to load API keys from Vault", "path", path)
		return fmt.Errorf("failed to load API keys from vault: %w", err)
	}

	if len(apiKeys) == 0 {
		vaultWarn(logger, "No API keys found in Vault", "path", path)
		return nil
	}

	config.Server.APIKeys = apiKeys
	vaultInfo(logger, "API keys loaded from Vault", "count", len(apiKeys))
	return nil
}

// loadGeminiKeyFromVault fills the shared Gemini key
func loadGeminiKeyFromVault(client *VaultClient, config *Config, logger *errors.Logger) error {
	path := config.Vault.Secrets.GeminiKey
	if path == "" {
		return nil
	}

	geminiKey, err := client.GetStringSecret(path, "api_key")
	if err != nil {
		vaultError(logger, err, "Failed to load Gemini API key from Vault", "path", path)
		return fmt.Errorf("failed to load Gemini API key from vault: %w", err)
	}

	if geminiKey == "" {
		vaultWarn(logger, "Empty Gemini API key found in Vault", "path", path)
		return nil
	}

	applyGeminiKeyToConfig(config, geminiKey)
	vaultInfo(logger, "Gemini API key loaded from Vault and applied to all AI configurations")
	return nil
}

// applyGeminiKeyToConfig sets the shared key plus any per-operation key that
// was not explicitly configured
func applyGeminiKeyToConfig(config *Config, geminiKey string) {
	config.AI.APIKey = geminiKey
	for _, key := range []*string{
		&config.AI.Extract.APIKey,
		&config.AI.Experience.APIKey,
		&config.AI.Justify.APIKey,
		&config.AI.Speech.APIKey,
	} {
		if *key == "" {
			*key = geminiKey
		}
	}
}

// loadTLSCertsFromVault fills the TLS content fields
func loadTLSCertsFromVault(client *VaultClient, config *Config, logger *errors.Logger) error {
	path := config.Vault.Secrets.TLSCerts
	if path == "" {
		return nil
	}

	tlsData, err := client.GetSecretV2(path)
	if err != nil {
		vaultError(logger, err, "Failed to load TLS certificates from Vault", "path", path)
		return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
	}

	certCount := loadTLSCertificateContent(config, tlsData, logger)

	if err := validateTLSDeprecatedFields(tlsData, logger); err != nil {
		return err
	}

	vaultInfo(logger, "TLS certificates loaded from Vault", "certificates_loaded", certCount)
	return nil
}

// loadTLSCertificateContent copies cert material out of the Vault data
func loadTLSCertificateContent(config *Config, tlsData *VaultSecret, logger *errors.Logger) int {
	certCount := 0
	certCount += loadSingleCertificate(tlsData, "cert", &config.Server.TLS.CertContent, "TLS certificate content", logger)
	certCount += loadSingleCertificate(tlsData, "key", &config.Server.TLS.KeyContent, "TLS private key content", logger)
	certCount += loadSingleCertificate(tlsData, "ca", &config.Server.TLS.CAContent, "TLS CA certificate content", logger)
	return certCount
}

// loadSingleCertificate copies one certificate field when present
func loadSingleCertificate(tlsData *VaultSecret, key string, target *string, description string, logger *errors.Logger) int {
	content, ok := tlsData.Data[key].(string)
	if !ok || content == "" {
		return 0
	}
	*target = content
	vaultDebug(logger, description+" loaded from Vault", "content_length", len(content))
	return 1
}

// validateTLSDeprecatedFields rejects file-path style TLS secrets; Vault
// secrets must carry the certificate content itself
func validateTLSDeprecatedFields(tlsData *VaultSecret, logger *errors.Logger) error {
	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		if _, hasField := tlsData.Data[field]; !hasField {
			continue
		}
		content := strings.TrimSuffix(field, "_file")
		vaultError(logger, fmt.Errorf("deprecated field detected"),
			fmt.Sprintf("%s field is no longer supported in Vault. Use '%s' field with content instead.", field, content))
		return fmt.Errorf("vault TLS configuration error: '%s' field is no longer supported. Store certificate content in '%s' field instead",
			field, content)
	}
	return nil
}

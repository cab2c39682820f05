package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"resufit/internal/config"
	"resufit/internal/errors"
	"resufit/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ReloadCallback is invoked after every reload attempt.
type ReloadCallback func(success bool, err error)

// CertificateMetrics is a snapshot of reload bookkeeping for health checks.
type CertificateMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

// CertificateManager serves TLS certificates for the rating API and swaps
// them in place when the underlying files or Vault secrets change. Callers
// read through GetServerCertificate so a reload never interrupts handshakes.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert *tls.Certificate
	clientCert *tls.Certificate
	caCertPool *x509.CertPool

	serverCertExpiry time.Time
	clientCertExpiry time.Time
	lastReloadTime   time.Time

	fileWatcher  *CertWatcher
	vaultWatcher *VaultWatcher

	config           *config.TLSConfig
	autoReloadConfig *config.AutoReloadConfig
	vaultClient      VaultClientInterface

	reloadCallbacks []ReloadCallback
	logger          *errors.Logger

	observabilityManager *observability.ObservabilityManager

	reloadCount        int64
	reloadSuccessCount int64
	reloadFailureCount int64
	lastReloadSuccess  bool
	lastReloadError    string
}

// NewCertificateManager creates a certificate manager
func NewCertificateManager(tlsConfig *config.TLSConfig, autoReloadConfig *config.AutoReloadConfig, vaultClient VaultClientInterface, om *observability.ObservabilityManager, logger *errors.Logger) *CertificateManager {
	return &CertificateManager{
		config:               tlsConfig,
		autoReloadConfig:     autoReloadConfig,
		vaultClient:          vaultClient,
		logger:               logger,
		reloadCallbacks:      make([]ReloadCallback, 0),
		observabilityManager: om,
	}
}

func (cm *CertificateManager) logInfo(msg string, args ...any) {
	if cm.logger != nil {
		cm.logger.Info(msg, args...)
	}
}

func (cm *CertificateManager) logFailure(err error, msg string, args ...any) {
	if cm.logger != nil {
		cm.logger.LogError(err, msg, args...)
	}
}

// Start loads the initial certificates and brings up the configured watchers.
func (cm *CertificateManager) Start() error {
	if err := cm.loadCertificates(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}
	cm.finishReload(nil)

	cm.startExpiryMonitoring()

	if err := cm.startFileWatcher(); err != nil {
		return err
	}
	return cm.startVaultWatcher()
}

// Stop shuts down the watchers.
func (cm *CertificateManager) Stop() error {
	for _, w := range []struct {
		name string
		stop func() error
	}{
		{"file watcher", func() error {
			if cm.fileWatcher == nil {
				return nil
			}
			return cm.fileWatcher.Stop()
		}},
		{"Vault watcher", func() error {
			if cm.vaultWatcher == nil {
				return nil
			}
			return cm.vaultWatcher.Stop()
		}},
	} {
		if err := w.stop(); err != nil {
			cm.logFailure(err, "Failed to stop "+w.name)
			return err
		}
	}

	cm.logInfo("Certificate manager stopped")
	return nil
}

// startFileWatcher watches certificate files when file-based certs are in use.
func (cm *CertificateManager) startFileWatcher() error {
	if cm.autoReloadConfig == nil || !cm.autoReloadConfig.FileWatcher.Enabled {
		return nil
	}
	if cm.config.CertFile == "" && cm.config.KeyFile == "" && cm.config.CAFile == "" {
		return nil
	}

	watcher, err := NewCertWatcher(
		cm.config.CertFile,
		cm.config.KeyFile,
		cm.config.CAFile,
		cm.autoReloadConfig.FileWatcher.DebounceDelay,
		cm.reloadFromWatcher,
		cm.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	cm.fileWatcher = watcher
	if err := cm.fileWatcher.Start(); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	cm.logInfo("Certificate file watcher started",
		"cert_file", cm.config.CertFile,
		"key_file", cm.config.KeyFile,
		"ca_file", cm.config.CAFile)
	return nil
}

// startVaultWatcher polls Vault when content-based certs are in use.
func (cm *CertificateManager) startVaultWatcher() error {
	if cm.autoReloadConfig == nil || !cm.autoReloadConfig.VaultWatcher.Enabled {
		return nil
	}
	if cm.config.CertContent == "" && cm.config.KeyContent == "" && cm.config.CAContent == "" {
		return nil
	}
	if cm.vaultClient == nil {
		if cm.logger != nil {
			cm.logger.Warn("Vault watcher enabled but Vault client is nil")
		}
		return nil
	}

	cm.vaultWatcher = NewVaultWatcher(
		cm.vaultClient,
		cm.autoReloadConfig.VaultWatcher.SecretPath,
		cm.autoReloadConfig.VaultWatcher.PollInterval,
		cm.applyVaultUpdate,
		cm.logger,
	)
	if err := cm.vaultWatcher.Start(); err != nil {
		return fmt.Errorf("failed to start Vault watcher: %w", err)
	}

	cm.logInfo("Vault watcher started",
		"secret_path", cm.autoReloadConfig.VaultWatcher.SecretPath,
		"poll_interval", cm.autoReloadConfig.VaultWatcher.PollInterval)
	return nil
}

// applyVaultUpdate copies fresh certificate material from Vault into the
// config and reloads.
func (cm *CertificateManager) applyVaultUpdate(data *CertificateData, err error) {
	if err != nil {
		cm.logFailure(err, "Failed to fetch new certificate data from Vault")
		return
	}

	cm.mu.Lock()
	if data.CertContent != "" {
		cm.config.CertContent = data.CertContent
	}
	if data.KeyContent != "" {
		cm.config.KeyContent = data.KeyContent
	}
	if data.CAContent != "" {
		cm.config.CAContent = data.CAContent
	}
	cm.mu.Unlock()

	cm.reloadFromWatcher()
}

// GetServerCertificate hands the current server certificate to the TLS stack.
func (cm *CertificateManager) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}

	if time.Now().After(cm.serverCertExpiry) {
		cm.logFailure(fmt.Errorf("server certificate expired"), "Server certificate expired",
			"expiry", cm.serverCertExpiry,
			"server_name", hello.ServerName)
		return nil, fmt.Errorf("server certificate expired")
	}

	// Reload early when the renewal window has opened
	if cm.autoReloadConfig != nil && cm.autoReloadConfig.PreemptiveRenewal > 0 &&
		time.Now().After(cm.serverCertExpiry.Add(-cm.autoReloadConfig.PreemptiveRenewal)) {
		go func() {
			cm.logInfo("Triggering preemptive certificate renewal")
			cm.reloadFromWatcher()
		}()
	}

	return cm.serverCert, nil
}

// GetClientCertificate returns the current client certificate
func (cm *CertificateManager) GetClientCertificate() (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.clientCert == nil {
		return nil, fmt.Errorf("no client certificate available")
	}
	if time.Now().After(cm.clientCertExpiry) {
		cm.logFailure(fmt.Errorf("client certificate expired"), "Client certificate expired",
			"expiry", cm.clientCertExpiry)
		return nil, fmt.Errorf("client certificate expired")
	}
	return cm.clientCert, nil
}

// GetCACertPool returns the current CA certificate pool
func (cm *CertificateManager) GetCACertPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caCertPool
}

// VerifyPeerCertificate checks a peer certificate against the current CA pool
func (cm *CertificateManager) VerifyPeerCertificate(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return fmt.Errorf("no peer certificates provided")
	}

	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("failed to parse peer certificate: %w", err)
	}

	caCertPool := cm.GetCACertPool()
	if caCertPool == nil {
		return fmt.Errorf("no CA certificate pool available")
	}

	if _, err := cert.Verify(x509.VerifyOptions{Roots: caCertPool}); err != nil {
		return fmt.Errorf("peer certificate verification failed: %w", err)
	}
	return nil
}

// ReloadCertificates manually triggers a certificate reload
func (cm *CertificateManager) ReloadCertificates() error {
	err := cm.loadCertificates()
	cm.finishReload(err)
	return err
}

// AddReloadCallback registers a callback for reload outcomes
func (cm *CertificateManager) AddReloadCallback(callback ReloadCallback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.reloadCallbacks = append(cm.reloadCallbacks, callback)
}

// CheckExpiry returns the time until the earliest loaded certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	var earliest time.Time
	if !cm.serverCertExpiry.IsZero() {
		earliest = cm.serverCertExpiry
	}
	if !cm.clientCertExpiry.IsZero() && (earliest.IsZero() || cm.clientCertExpiry.Before(earliest)) {
		earliest = cm.clientCertExpiry
	}
	if earliest.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(earliest), nil
}

// GetMetrics returns a snapshot of reload bookkeeping
func (cm *CertificateManager) GetMetrics() *CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return &CertificateMetrics{
		ReloadCount:        cm.reloadCount,
		ReloadSuccessCount: cm.reloadSuccessCount,
		ReloadFailureCount: cm.reloadFailureCount,
		LastReloadTime:     cm.lastReloadTime,
		LastReloadSuccess:  cm.lastReloadSuccess,
		LastReloadError:    cm.lastReloadError,
	}
}

// loadCertificates loads certificates from files or inline content and swaps
// them in under the lock. Bookkeeping happens in finishReload.
func (cm *CertificateManager) loadCertificates() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	var newServerCert *tls.Certificate

	if (cm.config.CertFile != "" && cm.config.KeyFile != "") ||
		(cm.config.CertContent != "" && cm.config.KeyContent != "") {
		cert, err := cm.loadCertificatePair()
		if err != nil {
			return err
		}
		if len(cert.Certificate) > 0 {
			leaf, err := x509.ParseCertificate(cert.Certificate[0])
			if err != nil {
				return fmt.Errorf("failed to parse server certificate: %w", err)
			}
			cm.serverCertExpiry = leaf.NotAfter
		}
		newServerCert = &cert
	}

	newCACertPool, err := cm.loadCACertPool()
	if err != nil {
		return err
	}

	cm.serverCert = newServerCert
	cm.clientCert = nil
	cm.caCertPool = newCACertPool
	return nil
}

// loadCertificatePair prefers inline content (Vault) over files
func (cm *CertificateManager) loadCertificatePair() (tls.Certificate, error) {
	if cm.config.CertContent != "" && cm.config.KeyContent != "" {
		return tls.X509KeyPair([]byte(cm.config.CertContent), []byte(cm.config.KeyContent))
	}
	return tls.LoadX509KeyPair(cm.config.CertFile, cm.config.KeyFile)
}

// loadCACertPool builds the CA pool for mutual TLS
func (cm *CertificateManager) loadCACertPool() (*x509.CertPool, error) {
	if cm.config.Mode != "mutual" {
		return nil, nil
	}

	var caCert []byte
	switch {
	case cm.config.CAContent != "":
		caCert = []byte(cm.config.CAContent)
	case cm.config.CAFile != "":
		var err error
		caCert, err = os.ReadFile(cm.config.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
	}
	if len(caCert) == 0 {
		return nil, nil
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}

// reloadFromWatcher is the watcher entry point for reloads
func (cm *CertificateManager) reloadFromWatcher() {
	cm.logInfo("Certificate reload triggered by watcher")
	cm.finishReload(cm.loadCertificates())
}

// finishReload updates counters, publishes metrics and fans the outcome out
// to registered callbacks
func (cm *CertificateManager) finishReload(err error) {
	cm.mu.Lock()
	cm.reloadCount++
	cm.lastReloadTime = time.Now()
	if err == nil {
		cm.reloadSuccessCount++
		cm.lastReloadSuccess = true
		cm.lastReloadError = ""
	} else {
		cm.reloadFailureCount++
		cm.lastReloadSuccess = false
		cm.lastReloadError = err.Error()
	}
	callbacks := make([]ReloadCallback, len(cm.reloadCallbacks))
	copy(callbacks, cm.reloadCallbacks)
	expiry := cm.serverCertExpiry
	when := cm.lastReloadTime
	cm.mu.Unlock()

	cm.recordReloadMetrics(err)

	if err == nil {
		cm.logInfo("Certificates reloaded successfully",
			"server_cert_expiry", expiry,
			"reload_time", when)
	} else {
		cm.logFailure(err, "Failed to reload certificates")
	}

	for _, callback := range callbacks {
		go callback(err == nil, err)
	}
}

// recordReloadMetrics publishes the reload outcome and expiry gauges
func (cm *CertificateManager) recordReloadMetrics(err error) {
	if cm.observabilityManager == nil {
		return
	}
	metrics := cm.observabilityManager.GetMetrics()
	if metrics == nil || metrics.CertReloadCount == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("cert_type", "server")}
	if err == nil {
		attrs = append(attrs, attribute.String("status", "success"))
	} else {
		attrs = append(attrs,
			attribute.String("status", "failure"),
			attribute.String("error", err.Error()))
	}
	metrics.CertReloadCount.Add(context.Background(), 1, metric.WithAttributes(attrs...))

	cm.updateExpiryMetrics()
}

// updateExpiryMetrics refreshes the seconds-to-expiry gauges
func (cm *CertificateManager) updateExpiryMetrics() {
	if cm.observabilityManager == nil {
		return
	}
	metrics := cm.observabilityManager.GetMetrics()
	if metrics == nil || metrics.CertExpiryTime == nil {
		return
	}

	ctx := context.Background()
	now := time.Now()

	if !cm.serverCertExpiry.IsZero() {
		metrics.CertExpiryTime.Record(ctx, cm.serverCertExpiry.Sub(now).Seconds(),
			metric.WithAttributes(attribute.String("cert_type", "server")))
	}
	if !cm.clientCertExpiry.IsZero() {
		metrics.CertExpiryTime.Record(ctx, cm.clientCertExpiry.Sub(now).Seconds(),
			metric.WithAttributes(attribute.String("cert_type", "client")))
	}
}

// startExpiryMonitoring keeps the expiry gauges fresh between reloads
func (cm *CertificateManager) startExpiryMonitoring() {
	if cm.observabilityManager == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			cm.mu.RLock()
			cm.updateExpiryMetrics()
			cm.mu.RUnlock()
		}
	}()

	cm.logInfo("Certificate expiry monitoring started")
}

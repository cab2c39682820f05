package server

import (
	"fmt"
	"sync"
	"time"

	"resufit/internal/config"
	"resufit/internal/errors"
)

// VaultClientInterface is the subset of the Vault client the server needs
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// CertificateData holds TLS material fetched from Vault
type CertificateData struct {
	CertContent string
	KeyContent  string
	CAContent   string
}

// VaultReloadCallback receives fresh certificate data, or the fetch error
type VaultReloadCallback func(data *CertificateData, err error)

// VaultWatcher polls a Vault KVv2 secret and fires the reload callback when
// the secret version advances.
type VaultWatcher struct {
	mu sync.RWMutex

	client         VaultClientInterface
	secretPath     string
	pollInterval   time.Duration
	reloadCallback VaultReloadCallback
	logger         *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
}

func (vw *VaultWatcher) logInfo(msg string, args ...any) {
	if vw.logger != nil {
		vw.logger.Info(msg, args...)
	}
}

func (vw *VaultWatcher) logFailure(err error, msg string) {
	if vw.logger != nil {
		vw.logger.LogError(err, msg)
	}
}

func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, reloadCallback VaultReloadCallback, logger *errors.Logger) *VaultWatcher {
	return &VaultWatcher{
		client:         client,
		secretPath:     secretPath,
		pollInterval:   pollInterval,
		reloadCallback: reloadCallback,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start begins polling Vault for secret changes
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	vw.running = true
	go vw.pollLoop()
	vw.logInfo("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	return nil
}

// Stop stops the poll loop
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logInfo("Vault watcher stopped")
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

// poll runs one version check and, when the secret moved, hands the new
// certificate data (or the fetch error) to the callback
func (vw *VaultWatcher) poll() {
	changed, err := vw.checkForUpdates()
	if err != nil {
		vw.logFailure(err, "Failed to check Vault for updates")
		return
	}
	if !changed {
		return
	}

	vw.logInfo("Vault secret changed, fetching new certificate data...")
	newData, err := vw.fetchNewCertsFromVault()
	if err != nil {
		vw.logFailure(err, "Failed to fetch new certificate data from Vault")
		vw.reloadCallback(nil, err)
		return
	}
	vw.logInfo("New certificate data fetched from Vault, triggering reload")
	vw.reloadCallback(newData, nil)
}

// checkForUpdates reports whether the secret version has advanced
func (vw *VaultWatcher) checkForUpdates() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return true, nil
	}
	return false, nil
}

func (vw *VaultWatcher) fetchNewCertsFromVault() (*CertificateData, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch new TLS data from vault: %w", err)
	}

	data := &CertificateData{}
	for key, dst := range map[string]*string{
		"cert": &data.CertContent,
		"key":  &data.KeyContent,
		"ca":   &data.CAContent,
	} {
		if content, ok := secret.Data[key].(string); ok {
			*dst = content
		}
	}
	return data, nil
}

// Status reports watcher state for the health endpoint
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
	}
}

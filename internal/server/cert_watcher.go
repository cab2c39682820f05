package server

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"resufit/internal/errors"
)

// CertWatcher watches certificate files and fires a debounced reload callback
// when any of them changes. Modification times are tracked so editor temp
// files and duplicate fsnotify events don't cause spurious reloads.
type CertWatcher struct {
	mu sync.RWMutex

	files   []string
	modTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	reloadCallback func()
	logger         *errors.Logger

	running bool
}

func (cw *CertWatcher) logInfo(msg string, args ...any) {
	if cw.logger != nil {
		cw.logger.Info(msg, args...)
	}
}

// NewCertWatcher creates a certificate file watcher. Empty paths are skipped.
func NewCertWatcher(certFile, keyFile, caFile string, debounceDelay time.Duration, reloadCallback func(), logger *errors.Logger) (*CertWatcher, error) {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	var files []string
	for _, f := range []string{certFile, keyFile, caFile} {
		if f != "" {
			files = append(files, f)
		}
	}

	return &CertWatcher{
		files:          files,
		modTime:        make(map[string]time.Time),
		debounceDelay:  debounceDelay,
		stopChan:       make(chan struct{}),
		reloadChan:     make(chan struct{}, 1),
		reloadCallback: reloadCallback,
		logger:         logger,
	}, nil
}

// Start begins watching the configured certificate files
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cw.fsWatcher = watcher

	if err := cw.snapshotModTimes(); err != nil {
		if closeErr := cw.fsWatcher.Close(); closeErr != nil && cw.logger != nil {
			cw.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return fmt.Errorf("failed to get initial file modification times: %w", err)
	}

	for _, file := range cw.files {
		if err := cw.watchFile(file); err != nil && cw.logger != nil {
			cw.logger.Warn("Failed to watch certificate file", "file", file, "error", err)
		}
	}

	cw.running = true
	go cw.watchLoop()

	cw.logInfo("Certificate file watcher started",
		"files", cw.files,
		"debounce_delay", cw.debounceDelay)
	return nil
}

// Stop stops the watcher and its debounce timer
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stopChan)
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}

	if cw.fsWatcher != nil {
		if err := cw.fsWatcher.Close(); err != nil {
			if cw.logger != nil {
				cw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	cw.running = false
	cw.logInfo("Certificate file watcher stopped")
	return nil
}

// watchFile registers a file and its directory with fsnotify. The directory
// is watched too so atomic writes (write to temp, rename over) are seen.
func (cw *CertWatcher) watchFile(file string) error {
	dir := filepath.Dir(file)

	switch err := cw.fsWatcher.Add(file); {
	case err == nil:
	case os.IsNotExist(err):
		if err := cw.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		cw.logInfo("Watching directory for certificate file",
			"file", file, "directory", dir)
	default:
		return fmt.Errorf("failed to watch file %s: %w", file, err)
	}

	if err := cw.fsWatcher.Add(dir); err != nil && cw.logger != nil {
		cw.logger.Warn("Failed to watch directory for atomic writes",
			"directory", dir, "error", err)
	}
	return nil
}

// snapshotModTimes records the current modification times of all watched files
func (cw *CertWatcher) snapshotModTimes() error {
	for _, file := range cw.files {
		stat, err := os.Stat(file)
		switch {
		case err == nil:
			cw.modTime[file] = stat.ModTime()
		case !os.IsNotExist(err):
			return fmt.Errorf("failed to stat file %s: %w", file, err)
		}
	}
	return nil
}

// hasFileChanged reports whether a file was modified or deleted since the
// last snapshot, updating the snapshot as a side effect
func (cw *CertWatcher) hasFileChanged(file string) bool {
	stat, err := os.Stat(file)
	if os.IsNotExist(err) {
		_, existed := cw.modTime[file]
		delete(cw.modTime, file)
		return existed
	}
	if err != nil {
		return false
	}

	last, seen := cw.modTime[file]
	if seen && !stat.ModTime().After(last) {
		return false
	}
	cw.modTime[file] = stat.ModTime()
	return true
}

// watchLoop is the event loop: fsnotify events schedule a debounced check,
// the debounce timer feeds reloadChan, and the mod-time comparison decides
// whether the callback actually fires
func (cw *CertWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.isRelevantEvent(event) {
				cw.scheduleReload()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			if cw.logger != nil {
				cw.logger.LogError(err, "File watcher error")
			}

		case <-cw.reloadChan:
			if slices.ContainsFunc(cw.files, cw.hasFileChanged) {
				cw.logInfo("Certificate files changed, triggering reload")
				cw.reloadCallback()
			}

		case <-cw.stopChan:
			return
		}
	}
}

// isRelevantEvent filters events down to write/create/rename on watched files.
// Events are matched by base name as well, since atomic writes surface as
// directory events naming a sibling path.
func (cw *CertWatcher) isRelevantEvent(event fsnotify.Event) bool {
	matched := slices.ContainsFunc(cw.files, func(file string) bool {
		return event.Name == file || filepath.Base(event.Name) == filepath.Base(file)
	})
	return matched && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleReload resets the debounce timer; when it fires, a single token is
// pushed to reloadChan (buffered, so a pending reload is never duplicated)
func (cw *CertWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}

	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, func() {
		select {
		case cw.reloadChan <- struct{}{}:
		default:
		}
	})
}

// IsRunning reports whether the watcher is active
func (cw *CertWatcher) IsRunning() bool {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.running
}

// GetWatchedFiles returns the certificate file paths being watched
func (cw *CertWatcher) GetWatchedFiles() []string {
	return slices.Clone(cw.files)
}

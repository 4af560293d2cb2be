package credential

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumegrade/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Reloader is implemented by stores that can re-read their backing file
type Reloader interface {
	Reload() error
}

// Watcher reloads a credential file when it is edited outside the process
type Watcher struct {
	mu sync.RWMutex

	file   string
	target Reloader

	lastModTime time.Time
	existed     bool

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onReload func()
	logger   *errors.Logger

	running bool
}

// NewWatcher creates a watcher for file. onReload, if set, runs after each successful reload.
func NewWatcher(file string, target Reloader, debounceDelay time.Duration, onReload func(), logger *errors.Logger) *Watcher {
	if debounceDelay <= 0 {
		debounceDelay = 500 * time.Millisecond
	}

	return &Watcher{
		file:          file,
		target:        target,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onReload:      onReload,
		logger:        logger,
	}
}

// Start begins watching the credential file's directory
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("credential watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// The directory is watched rather than the file so that atomic
	// replacements (write temp + rename) and first-time creation are seen.
	dir := filepath.Dir(w.file)
	if err := os.MkdirAll(dir, 0700); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to create credential directory %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.fsWatcher = watcher
	w.recordModTime()
	w.running = true
	go w.watchLoop()

	if w.logger != nil {
		w.logger.Info("Credential file watcher started",
			"file", w.file,
			"debounce_delay", w.debounceDelay)
	}
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.running = false
	if err := w.fsWatcher.Close(); err != nil {
		if w.logger != nil {
			w.logger.LogError(err, "Failed to close credential file watcher")
		}
		return err
	}

	if w.logger != nil {
		w.logger.Info("Credential file watcher stopped")
	}
	return nil
}

// IsRunning returns whether the watcher is currently running
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldProcessEvent(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogError(err, "Credential file watcher error")
			}

		case <-w.reloadChan:
			if w.hasFileChanged() {
				w.reload()
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.file) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
			// reload already pending
		}
	})
}

func (w *Watcher) reload() {
	if err := w.target.Reload(); err != nil {
		if w.logger != nil {
			w.logger.LogError(err, "Failed to reload credential file", "file", w.file)
		}
		return
	}

	if w.logger != nil {
		w.logger.Info("Credential file changed, reloaded", "file", w.file)
	}
	if w.onReload != nil {
		w.onReload()
	}
}

// recordModTime stores the current modification time; callers hold mu or own w exclusively
func (w *Watcher) recordModTime() {
	stat, err := os.Stat(w.file)
	if err != nil {
		w.existed = false
		w.lastModTime = time.Time{}
		return
	}
	w.existed = true
	w.lastModTime = stat.ModTime()
}

// hasFileChanged reports creation, deletion or a newer modification time
func (w *Watcher) hasFileChanged() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	stat, err := os.Stat(w.file)
	if err != nil {
		if os.IsNotExist(err) && w.existed {
			w.existed = false
			w.lastModTime = time.Time{}
			return true
		}
		return false
	}

	if !w.existed || !stat.ModTime().Equal(w.lastModTime) {
		w.existed = true
		w.lastModTime = stat.ModTime()
		return true
	}
	return false
}

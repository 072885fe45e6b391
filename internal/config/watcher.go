package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stlalpha/gotelnet/internal/logging"
)

// Watcher hot-reloads a ServerConfig from disk on write, debouncing rapid
// successive writes the way editors/rsync tend to produce them.
type Watcher struct {
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	path     string
	current  *ServerConfig
	onReload func(*ServerConfig)
	done     chan struct{}
}

// NewWatcher starts watching the directory containing path for changes to
// it, calling onReload with the freshly parsed config each time it changes.
func NewWatcher(path string, onReload func(*ServerConfig)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		path:     path,
		current:  cfg,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	go w.loop()
	logging.Info("config: watching %s for changes", path)
	return w, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *ServerConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	w.watcher.Close()
}

func (w *Watcher) loop() {
	var debounce *time.Timer
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("config: watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadServerConfig(w.path)
	if err != nil {
		logging.Error("config: reload of %s failed: %v", w.path, err)
		return
	}
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
	logging.Info("config: reloaded %s", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

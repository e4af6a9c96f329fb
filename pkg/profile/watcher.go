package profile

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher serves the current profile and reloads it when the backing
// file changes. A reload that fails to parse keeps the previous
// profile so a half-saved edit never blanks the running system.
type Watcher struct {
	path    string
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	mu      sync.RWMutex
	current *Profile
}

// Watch loads the profile and begins watching its file. The parent
// directory is watched rather than the file itself, because editors
// replace files on save and a direct watch dies with the old inode.
func Watch(path string, logger *zap.Logger) (*Watcher, error) {
	initial, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		path:    path,
		logger:  logger,
		watcher: fw,
		current: initial,
	}
	go w.loop()
	return w, nil
}

// Current returns the most recently loaded profile.
func (w *Watcher) Current() *Profile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops watching. The last loaded profile stays readable.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("profile watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	p, err := Load(w.path)
	if err != nil {
		w.logger.Warn("profile reload failed, keeping previous", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = p
	w.mu.Unlock()

	w.logger.Info("profile reloaded",
		zap.Int("skills", len(p.Skills)),
		zap.Int("work_experiences", len(p.WorkExperiences)),
	)
}

package reload

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Watcher triggers a Notifier whenever the watched config file changes
// on disk. Editors commonly replace a file rather than write it in
// place (rename-into-place, vim's backupcopy=no), so the watch is
// placed on the containing directory, which survives the file being
// replaced, and events for other files in it are ignored.
type Watcher struct {
	w    *fsnotify.Watcher
	path string
	dir  string
	n    Notifier
	log  *zap.Logger
	done chan struct{}
}

// Watch starts watching path and forwards every relevant change to n.
// The returned Watcher must be closed with Close when no longer
// needed.
func Watch(path string, n Notifier, log *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watcher")
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}
	watcher := &Watcher{
		w:    w,
		path: filepath.Clean(path),
		dir:  dir,
		n:    n,
		log:  log,
		done: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.log.Info("config file changed, requesting reload", zap.String("path", event.Name))
				w.n.Notify()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// editor replaced the file; the directory watch stays
				// in place, so treat it as a pending change
				w.log.Info("config file replaced, requesting reload", zap.String("path", event.Name))
				w.n.Notify()
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.w.Close()
}

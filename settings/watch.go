package settings

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever the settings file is written or replaced
// and calls onReload, if set, after each successful reload. The parent
// directory is watched so atomic replacements are seen. Watching stops when
// ctx is done or Close is called.
func (s *Store) Watch(ctx context.Context, onReload func()) error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watcher != nil {
		return errors.New("settings: already watching")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: new watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("settings: watch %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = w
	s.done = make(chan struct{})

	go s.watchLoop(ctx, w, s.done, onReload)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher, done chan struct{}, onReload func()) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn("settings: reload failed, keeping previous values", "error", err)
				continue
			}
			s.logger.Debug("settings: reloaded", "path", s.path)
			if onReload != nil {
				onReload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("settings: watcher error", "error", err)
		}
	}
}

// Close stops watching. It is safe to call on a store that never watched.
func (s *Store) Close() error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	<-s.done
	s.watcher = nil
	return err
}

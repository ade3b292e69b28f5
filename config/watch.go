package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the config whenever the file is written or recreated and
// passes the new value to onChange. It blocks until ctx is done.
func Watch(ctx context.Context, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	path := Path()
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			newCfg, err := LoadConfig()
			if err != nil {
				zap.S().Warnf("Failed to reload config %s: %v", path, err)
				continue
			}
			zap.S().Infof("Config reloaded from %s", path)
			if onChange != nil {
				onChange(newCfg)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zap.S().Warnf("Config watcher error: %v", err)
		}
	}
}

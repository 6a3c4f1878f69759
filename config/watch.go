package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"mlinfer/logger"
)

// Watch reloads path whenever it is written and passes the result to
// onChange. Invalid files are logged and skipped. The watcher stops when ctx
// is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Editors often replace the file, so watch its directory.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				config, err := Load(path)
				if err != nil {
					logger.Warnf("reload config %s: %v", path, err)
					continue
				}
				logger.Debugf("config %s reloaded", path)
				onChange(config)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("config watcher: %v", err)
			}
		}
	}()
	return nil
}

// ApplyLogLevel is an onChange callback that applies log.level live.
func ApplyLogLevel(config *Config) {
	level, err := logger.ParseLevel(config.Log.Level)
	if err != nil {
		logger.Warnf("ignore log level %q: %v", config.Log.Level, err)
		return
	}
	logger.SetLevel(level)
}

package config

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig monitors config.json and system.json for changes and invokes
// onChange with the freshly loaded configuration. Editors often fire several
// write events for one save, so events are debounced before reloading.
func WatchConfig(onChange func(*Config, *SystemConfig)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	go func() {
		var debounce *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != "config.json" && event.Name != "system.json" {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					cfg, sysCfg, err := Load()
					if err != nil {
						slog.Error("config reload failed, keeping previous configuration", "error", err.Error())
						return
					}
					slog.Info("configuration reloaded", "file", event.Name)
					onChange(cfg, sysCfg)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("config watcher error", "error", err.Error())
			}
		}
	}()

	if err := watcher.Add("."); err != nil {
		watcher.Close()
		return nil, err
	}

	return watcher, nil
}

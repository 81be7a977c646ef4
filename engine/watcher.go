package engine

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/prism/engine/core"
)

// ConfigWatcher reloads the application config when the file changes on disk
// and fires EVENT_CODE_DEBUG_CONFIG_CHANGED with the fresh GraphDebugConfig.
// Only the debug knobs are applied live; window and backend settings need a
// restart.
type ConfigWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewConfigWatcher(path string) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file; editors replace files on save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	cw := &ConfigWatcher{
		path:    path,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

func (cw *ConfigWatcher) run() {
	for {
		select {
		case <-cw.done:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(cw.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			config, err := LoadApplicationConfig(cw.path)
			if err != nil {
				core.LogWarn("config reload failed: %s", err.Error())
				continue
			}
			core.LogInfo("config %s changed, applying debug settings", cw.path)
			core.EventFire(core.EventContext{
				Type: core.EVENT_CODE_DEBUG_CONFIG_CHANGED,
				Data: &config.Graph,
			})
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			core.LogWarn("config watcher: %s", err.Error())
		}
	}
}

func (cw *ConfigWatcher) Close() error {
	close(cw.done)
	return cw.watcher.Close()
}

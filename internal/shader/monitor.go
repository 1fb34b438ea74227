package shader

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Monitor watches a shader directory and records whether any WGSL file
// in it changed since the last call to Changed.
type Monitor struct {
	dir     string
	watcher *fsnotify.Watcher
	dirty   atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewMonitor starts watching dir.
func NewMonitor(dir string) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader: monitor: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("shader: monitor %s: %w", dir, err)
	}
	m := &Monitor{
		dir:     dir,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	m.wg.Add(1)
	go m.run()
	slogger().Info("shader: watching", "dir", dir)
	return m, nil
}

// Dir returns the watched directory.
func (m *Monitor) Dir() string { return m.dir }

func (m *Monitor) run() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".wgsl" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				slogger().Debug("shader: source changed", "file", event.Name, "op", event.Op.String())
				m.dirty.Store(true)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			slogger().Warn("shader: watch error", "dir", m.dir, "error", err)
		}
	}
}

// Changed reports whether a source changed since the previous call and
// clears the flag.
func (m *Monitor) Changed() bool {
	return m.dirty.Swap(false)
}

// Close stops watching.
func (m *Monitor) Close() error {
	var err error
	m.once.Do(func() {
		close(m.done)
		err = m.watcher.Close()
		m.wg.Wait()
	})
	return err
}

package config

import (
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"github.com/spf13/viper"
)

// ChangeHandler is invoked after the watched file has been re-read.
type ChangeHandler func(v *viper.Viper) error

// Watcher notifies subscribers when the configuration file changes on disk.
// Handlers run sequentially in subscription-id order.
type Watcher struct {
	viper    *viper.Viper
	handlers map[string]ChangeHandler
	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a watcher over a viper instance returned by Loader.Load.
func NewWatcher(v *viper.Viper) *Watcher {
	return &Watcher{
		viper:    v,
		handlers: make(map[string]ChangeHandler),
	}
}

// Subscribe registers handler under id, replacing any previous one.
func (w *Watcher) Subscribe(id string, handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[id] = handler
	logger.Debugw("config watcher: subscribed", "handler", id)
}

// Start begins watching. Calling it more than once has no effect.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return
	}
	w.watching = true
	w.mu.Unlock()

	w.viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Infow("config file changed", "file", e.Name, "op", e.Op.String())
		w.notify()
	})
	w.viper.WatchConfig()
}

func (w *Watcher) notify() {
	w.mu.RLock()
	if !w.watching {
		w.mu.RUnlock()
		return
	}
	ids := make([]string, 0, len(w.handlers))
	for id := range w.handlers {
		ids = append(ids, id)
	}
	handlers := make(map[string]ChangeHandler, len(w.handlers))
	for id, h := range w.handlers {
		handlers[id] = h
	}
	w.mu.RUnlock()

	sort.Strings(ids)
	// 不持有锁调用处理函数
	for _, id := range ids {
		if err := handlers[id](w.viper); err != nil {
			logger.Errorw("config watcher: handler failed", "handler", id, "error", err)
		}
	}
}

// Stop suppresses further notifications. viper offers no way to remove the
// underlying fsnotify watch, so the goroutine lives until process exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watching = false
}

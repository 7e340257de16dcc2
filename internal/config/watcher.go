package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"codecoach/internal/feedback"
	"codecoach/internal/logging"
)

// RulesWatcher watches a rules file and reinstalls it on change: reload,
// validate, then ResetFeedback. Invalid edits are reported through the
// callback and leave the previously installed rules active.
type RulesWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	engine   *feedback.Engine
	debounce time.Duration
	lastSeen time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	log      *zap.Logger

	// onReset is invoked after each reload attempt with the installed config
	// (nil when validation failed) and the error, if any.
	onReset func(cfg *feedback.Config, err error)
}

// NewRulesWatcher creates a watcher for the given rules file.
func NewRulesWatcher(path string, eng *feedback.Engine, onReset func(*feedback.Config, error)) (*RulesWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &RulesWatcher{
		watcher:  fsw,
		path:     path,
		engine:   eng,
		debounce: 300 * time.Millisecond, // editors fire several events per save
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      logging.Get(logging.CategoryWatcher),
		onReset:  onReset,
	}, nil
}

// Start watches the rules file's directory (watching the file directly
// breaks on editors that replace-on-save) and runs until Stop or ctx
// cancellation. Non-blocking.
func (w *RulesWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.loop(ctx)
	w.log.Debug("watching rules file", zap.String("path", w.path))
	return nil
}

func (w *RulesWatcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	base := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.mu.Lock()
			if time.Since(w.lastSeen) < w.debounce {
				w.mu.Unlock()
				continue
			}
			w.lastSeen = time.Now()
			w.mu.Unlock()
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// Reload forces an immediate reload, bypassing the debounce. The initial
// install at startup goes through here.
func (w *RulesWatcher) Reload() {
	w.reload()
}

func (w *RulesWatcher) reload() {
	raw, err := LoadRules(w.path)
	if err == nil {
		err = feedback.ValidateConfig(raw)
	}
	if err != nil {
		w.log.Warn("rules reload rejected", zap.String("path", w.path), zap.Error(err))
		if w.onReset != nil {
			w.onReset(nil, err)
		}
		return
	}

	cfg := w.engine.ResetFeedback(raw)
	w.log.Info("rules reloaded",
		zap.String("path", w.path),
		zap.Int("rules", len(cfg.Feedback)))
	if w.onReset != nil {
		w.onReset(cfg, nil)
	}
}

// Stop shuts the watcher down and waits for the loop to exit.
func (w *RulesWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.watcher.Close()
	<-w.doneCh
}

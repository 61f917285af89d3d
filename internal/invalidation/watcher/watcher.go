// Package watcher invalidates layers when their shapefile components
// change on disk. Events are debounced per layer so a multi-file copy
// (shp, shx, dbf arriving separately) triggers a single invalidation.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/openmaps/shptiles/internal/core/observability"
	"github.com/openmaps/shptiles/internal/invalidation"
)

// shapefile component extensions worth reacting to.
var watchedExts = map[string]struct{}{
	".shp": {}, ".shx": {}, ".dbf": {}, ".prj": {},
}

type Config struct {
	Debounce time.Duration
}

type Watcher struct {
	fsw      *fsnotify.Watcher
	inv      invalidation.Invalidator
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	layers  map[string]string    // watched dir -> layer id
	pending map[string]time.Time // layer id -> last event
}

func New(cfg Config, inv invalidation.Invalidator, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsw:      fsw,
		inv:      inv,
		logger:   logger,
		debounce: cfg.Debounce,
		layers:   make(map[string]string),
		pending:  make(map[string]time.Time),
	}, nil
}

// Watch registers a layer's shapefile directory.
func (w *Watcher) Watch(layerID, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := w.fsw.Add(abs); err != nil {
		return err
	}
	w.mu.Lock()
	w.layers[abs] = layerID
	w.mu.Unlock()
	w.logger.Info("watching shapefile directory", "layer", layerID, "dir", abs)
	return nil
}

// Unwatch stops watching a layer's directory.
func (w *Watcher) Unwatch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	w.mu.Lock()
	delete(w.layers, abs)
	w.mu.Unlock()
	return w.fsw.Remove(abs)
}

// Start runs the event and debounce loops until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) {
	go w.eventLoop(ctx)
	go w.flushLoop(ctx)
}

func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.record(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) record(ev fsnotify.Event) {
	ext := strings.ToLower(filepath.Ext(ev.Name))
	if _, ok := watchedExts[ext]; !ok {
		return
	}
	dir := filepath.Dir(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	layerID, ok := w.layers[dir]
	if !ok {
		return
	}
	w.pending[layerID] = time.Now()
	w.logger.Debug("shapefile change observed", "layer", layerID, "path", ev.Name, "op", ev.Op.String())
}

func (w *Watcher) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// flush invalidates every layer whose last event is older than the
// debounce window.
func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()

	w.mu.Lock()
	var due []string
	for layerID, last := range w.pending {
		if now.Sub(last) < w.debounce {
			continue
		}
		delete(w.pending, layerID)
		due = append(due, layerID)
	}
	w.mu.Unlock()

	for _, layerID := range due {
		n, err := w.inv.Invalidate(ctx, layerID)
		observability.IncInvalidation("watcher", err)
		if err != nil {
			w.logger.Error("invalidating changed layer", "layer", layerID, "error", err)
			continue
		}
		w.logger.Info("layer invalidated after file change", "layer", layerID, "entries_removed", n)
	}
}

// Package registry holds the current schema of a schema document and reloads
// it when the document (or its annotation overlay) changes on disk.
package registry

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/reoring/msgskema"
	"github.com/reoring/msgskema/document"
	"github.com/reoring/msgskema/metrics"
	"github.com/reoring/msgskema/overlay"
)

// PrepareFunc turns a freshly loaded schema into the schema served by the
// registry, typically by binding it.
type PrepareFunc func(*msgskema.Schema) (*msgskema.Schema, error)

// Registry provides thread-safe access to a schema with hot reload support.
// A failed reload keeps the previous schema.
type Registry struct {
	mu       sync.RWMutex
	schema   *msgskema.Schema
	onChange []func(old, new *msgskema.Schema)

	path        string
	overlayPath string
	overlayMode overlay.Mode
	prepare     PrepareFunc

	logger   zerolog.Logger
	metrics  *metrics.Collector
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option configures a Registry.
type Option func(*Registry)

func WithLogger(l zerolog.Logger) Option { return func(r *Registry) { r.logger = l } }

func WithMetrics(c *metrics.Collector) Option { return func(r *Registry) { r.metrics = c } }

// WithOverlay applies the overlay file at path on every load.
func WithOverlay(path string, mode overlay.Mode) Option {
	return func(r *Registry) {
		r.overlayPath = path
		r.overlayMode = mode
	}
}

// WithPrepare runs fn on every loaded schema before it is served.
func WithPrepare(fn PrepareFunc) Option { return func(r *Registry) { r.prepare = fn } }

// New creates a registry and loads the initial schema from the document at
// path.
func New(path string, opts ...Option) (*Registry, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	r := &Registry{
		path:   absPath,
		logger: zerolog.Nop(),
		stopCh: make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	if r.overlayPath != "" {
		if r.overlayPath, err = filepath.Abs(r.overlayPath); err != nil {
			return nil, fmt.Errorf("absolute path: %w", err)
		}
	}
	s, err := r.load()
	r.metrics.Reload(groupCount(s), err)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	r.schema = s
	return r, nil
}

func groupCount(s *msgskema.Schema) int {
	if s == nil {
		return 0
	}
	return len(s.Groups())
}

func (r *Registry) load() (*msgskema.Schema, error) {
	s, err := document.LoadSchema(r.path)
	if err != nil {
		return nil, err
	}
	if r.overlayPath != "" {
		o, err := overlay.Load(r.overlayPath)
		if err != nil {
			return nil, err
		}
		if s, err = o.Apply(s, r.overlayMode); err != nil {
			return nil, err
		}
	}
	if r.prepare != nil {
		if s, err = r.prepare(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the absolute path of the schema document.
func (r *Registry) Path() string { return r.path }

// Get returns the current schema.
func (r *Registry) Get() *msgskema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schema
}

// Reload loads the schema from disk. On error the current schema is kept.
func (r *Registry) Reload() error {
	r.logger.Info().Str("path", r.path).Msg("reloading schema")

	s, err := r.load()
	r.metrics.Reload(groupCount(s), err)
	if err != nil {
		r.logger.Error().Err(err).Msg("schema reload failed, keeping old schema")
		return fmt.Errorf("reload schema: %w", err)
	}

	r.mu.Lock()
	old := r.schema
	r.schema = s
	listeners := slices.Clone(r.onChange)
	r.mu.Unlock()

	r.logChanges(old, s)
	for _, fn := range listeners {
		fn(old, s)
	}

	r.logger.Info().Int("groups", len(s.Groups())).Msg("schema reloaded")
	return nil
}

// OnChange registers a callback run after every successful reload.
func (r *Registry) OnChange(fn func(old, new *msgskema.Schema)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

// WatchFile starts watching the document and overlay files. Writes and
// atomic replacements trigger a reload.
func (r *Registry) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch directories; editors replace files on save.
	dirs := map[string]struct{}{filepath.Dir(r.path): {}}
	if r.overlayPath != "" {
		dirs[filepath.Dir(r.overlayPath)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch directory: %w", err)
		}
	}
	r.watcher = watcher

	go r.watchLoop()

	r.logger.Info().Str("path", r.path).Str("overlay", r.overlayPath).Msg("watching schema files for changes")
	return nil
}

// WatchSignals reloads on SIGHUP until Stop.
func (r *Registry) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				r.logger.Info().Msg("received SIGHUP, reloading schema")
				if err := r.Reload(); err != nil {
					r.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-r.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	r.logger.Info().Msg("listening for SIGHUP to reload schema")
}

// Run watches the schema files until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	if err := r.WatchFile(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-r.stopCh:
	}
	r.Stop()
	return ctx.Err()
}

// Stop stops watching for file changes and signals. It may be called more
// than once.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.watcher != nil {
			r.watcher.Close()
		}
	})
}

func (r *Registry) watched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == r.path || (r.overlayPath != "" && abs == r.overlayPath)
}

func (r *Registry) watchLoop() {
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !r.watched(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				r.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("schema file changed")

				if err := r.Reload(); err != nil {
					r.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error().Err(err).Msg("file watcher error")

		case <-r.stopCh:
			return
		}
	}
}

func (r *Registry) logChanges(old, new *msgskema.Schema) {
	if old == nil {
		return
	}
	for _, g := range new.Groups() {
		if _, ok := old.Group(g.Name()); !ok {
			r.logger.Info().Str("group", g.Name()).Msg("group added")
		}
	}
	for _, g := range old.Groups() {
		if _, ok := new.Group(g.Name()); !ok {
			r.logger.Info().Str("group", g.Name()).Msg("group removed")
		}
	}
	if !old.Annotations().Equal(new.Annotations()) {
		r.logger.Info().Msg("schema annotations changed")
	}
}

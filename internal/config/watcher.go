package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultWatchInterval is how often a [Watcher] polls when no interval is set.
const DefaultWatchInterval = 5 * time.Second

// Watcher polls a config file and publishes every valid new revision. A
// revision that fails to parse or validate is logged and skipped; the last
// good config stays current.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Config)
	onLoad   func(*Config)

	mu      sync.Mutex
	current *Config
	seen    revision
}

// revision identifies one state of the file on disk. The mtime is a cheap
// pre-check; the digest decides whether the content really changed.
type revision struct {
	mtime  time.Time
	digest [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. Default: [DefaultWatchInterval].
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLoadHook runs fn on every freshly loaded config before it is compared
// or published. Use it to apply the same overlay (e.g. [ApplyEnv]) as at
// startup.
func WithLoadHook(fn func(*Config)) WatcherOption {
	return func(w *Watcher) {
		w.onLoad = fn
	}
}

// NewWatcher loads path once and returns a Watcher holding it. Polling starts
// with [Watcher.Run]. onChange may be nil.
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: DefaultWatchInterval,
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, rev, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current = cfg
	w.seen = rev
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls until ctx is cancelled. It always returns nil so it can share an
// errgroup with the server without tearing it down.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Check(); err != nil {
				slog.Warn("config watcher: reload skipped", "path", w.path, "err", err)
			}
		}
	}
}

// Check looks at the file once. It reports whether a new valid revision was
// published. An error means the file could not be read or the new content is
// invalid; the current config is kept.
func (w *Watcher) Check() (bool, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	unchanged := info.ModTime().Equal(w.seen.mtime)
	w.mu.Unlock()
	if unchanged {
		return false, nil
	}

	cfg, rev, err := w.read()
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	if rev.digest == w.seen.digest {
		// Touched, same content.
		w.seen.mtime = rev.mtime
		w.mu.Unlock()
		return false, nil
	}
	old := w.current
	w.current = cfg
	w.seen = rev
	w.mu.Unlock()

	slog.Info("config watcher: configuration reloaded", "path", w.path)

	// Outside the lock so the callback can call Current.
	if w.onChange != nil {
		w.onChange(old, cfg)
	}
	return true, nil
}

// read loads, validates and hooks the file, returning it with its revision.
func (w *Watcher) read() (*Config, revision, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, revision{}, err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, revision{}, err
	}

	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, revision{}, err
	}
	if w.onLoad != nil {
		w.onLoad(cfg)
	}
	return cfg, revision{mtime: info.ModTime(), digest: sha256.Sum256(data)}, nil
}

// Package configwatcher reloads receiver settings when the config file
// changes. Only [receiver].max_connections is applied at runtime; every
// other setting needs a restart.
package configwatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/faadiallop/FileTransferServer/internal/cliconfig"
	"github.com/faadiallop/FileTransferServer/pkg/ftserver"
	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// Plugin implements config watching functionality.
// It watches the directory holding the config file so that editors which
// replace the file instead of writing it in place are still noticed.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	debounceDelay time.Duration

	// Runtime state
	path       string
	logger     log.Logger
	controller ftserver.Controller
	watcher    *fsnotify.Watcher
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	debounce   *time.Timer
	reloads    int
	closed     bool
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		debounceDelay: cfg.DebounceDelay,
		logger:        log.NewNoopLogger(),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts watching cfg.ConfigPath. Without a config path or a
// controller the plugin stays idle.
func (p *Plugin) Initialize(ctx context.Context, cfg ftserver.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	p.path = cfg.ConfigPath
	p.controller = cfg.Controller
	p.closed = false

	if p.path == "" || p.controller == nil {
		p.logger.Warn("config watcher disabled: no config file")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}
	p.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher started", log.String("config", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	return nil
}

// Shutdown stops the watcher and any pending reload. A reload already
// running is waited for, so the controller is never touched after Shutdown
// returns.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	cancel := p.cancel
	p.stopDebounceLocked()
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return nil
}

// Reloads returns how many times the config file was read after a change.
func (p *Plugin) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.stopDebounceLocked()
	p.wg.Add(1)
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		defer p.wg.Done()
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

// stopDebounceLocked cancels a pending reload that has not fired yet.
func (p *Plugin) stopDebounceLocked() {
	if p.debounce != nil && p.debounce.Stop() {
		p.wg.Done()
	}
	p.debounce = nil
}

func (p *Plugin) reload() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.reloads++
	path, controller, logger := p.path, p.controller, p.logger
	p.mu.Unlock()

	fc, err := cliconfig.LoadFileConfig(path)
	if err != nil {
		logger.Warn("config reload failed", log.String("config", path), log.Err(err))
		return
	}

	n := fc.Receiver.MaxConnections
	if n <= 0 || n == controller.MaxConnections() {
		logger.Debug("config reloaded, nothing to apply", log.String("config", path))
		return
	}
	if err := controller.SetMaxConnections(n); err != nil {
		logger.Warn("config reload rejected", log.Int("max_connections", n), log.Err(err))
		return
	}
	logger.Info("config reloaded", log.String("config", path), log.Int("max_connections", n))
}

var _ ftserver.Plugin = (*Plugin)(nil)

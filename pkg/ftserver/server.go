package ftserver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/faadiallop/FileTransferServer/internal/adapters/fs"
	"github.com/faadiallop/FileTransferServer/internal/app"
	"github.com/faadiallop/FileTransferServer/internal/bufpool"
	"github.com/faadiallop/FileTransferServer/internal/domain"
	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// Server receives files from senders over TCP.
// Use New() to create an instance, then Start() to begin accepting.
type Server struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	admission *app.Admission
	store     *fs.OutputStore
	pool      *bufpool.Pool
	emitter   *eventEmitter
	logger    log.Logger
	plugins   []Plugin

	mu         sync.RWMutex
	dispatcher *app.Dispatcher
}

// New creates a Server with the given configuration.
// The instance is created in StateStopped; call Start() to begin accepting.
func New(cfg Config, opts ...Option) (*Server, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	emitter := &eventEmitter{handler: o.eventHandler}

	return &Server{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(o.logger, emitter),
		admission: app.NewAdmission(cfg.MaxConnections),
		store:     fs.NewOutputStore(cfg.OutputDir, cfg.OutputSuffix),
		pool:      bufpool.New(bufpool.DefaultSize),
		emitter:   emitter,
		logger:    o.logger,
		plugins:   o.plugins,
	}, nil
}

// Start binds the listener, initializes plugins and begins accepting in the
// background. The provided context bounds the accept loop; canceling it has
// the same effect on the listener as Stop but leaves sessions running.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		ConfigPath: s.config.ConfigPath,
		Logger:     s.logger,
		Controller: s,
	}
	for _, p := range s.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			_ = s.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		s.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	ln, err := s.listen()
	if err != nil {
		cancel()
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "listen failed")
		return err
	}

	factory := app.NewSessionFactory(app.SessionConfig{
		Store:           s.store,
		Pool:            s.pool,
		Logger:          s.logger,
		Events:          s.emitter,
		MaxPayloadBytes: s.config.MaxPayloadBytes,
		IdleTimeout:     s.config.IdleTimeout,
	})
	d := app.NewDispatcher(ln, s.admission, factory, s.logger, s.emitter)
	s.dispatcher = d

	if err := s.lifecycle.TransitionTo(app.StateListening, "listener bound"); err != nil {
		cancel()
		_ = ln.Close()
		return err
	}

	s.lifecycle.AddWorker()
	go func() {
		defer s.lifecycle.WorkerDone()

		if err := d.Serve(runCtx); err != nil {
			s.logger.Error("accept loop failed", log.Err(err))
			_ = s.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

func (s *Server) listen() (net.Listener, error) {
	if ln := s.opts.listener; ln != nil {
		s.opts.listener = nil
		return ln, nil
	}
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.config.ListenAddr, err)
	}
	return ln, nil
}

// Stop closes the listener and waits up to Config.DrainTimeout for in-flight
// sessions to finish. Sessions are never interrupted; if they outlive the
// timeout Stop returns ErrShutdownTimeout and they keep running.
func (s *Server) Stop() error {
	s.mu.Lock()

	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}

	if err := s.lifecycle.TransitionTo(app.StateShuttingDown, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}

	s.lifecycle.Cancel()
	d := s.dispatcher
	s.mu.Unlock()

	start := time.Now()
	err := s.lifecycle.WaitWithTimeout(s.config.DrainTimeout)
	if err == nil && d != nil {
		remaining := s.config.DrainTimeout - time.Since(start)
		if remaining <= 0 {
			remaining = time.Millisecond
		}
		err = d.Wait(remaining)
	}

	shutdownCtx := context.Background()
	for i := len(s.plugins) - 1; i >= 0; i-- {
		p := s.plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(shutdownErr))
		} else {
			s.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}

	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Server) Status() State {
	return convertState(s.lifecycle.State())
}

// Addr returns the bound listener address, or nil before the first Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dispatcher == nil {
		return nil
	}
	return s.dispatcher.Addr()
}

// Active returns the number of running sessions.
func (s *Server) Active() int {
	return s.admission.Active()
}

// MaxConnections returns the current session cap.
func (s *Server) MaxConnections() int {
	return s.admission.Capacity()
}

// SetMaxConnections changes the session cap at runtime. Lowering it below
// the number of running sessions rejects new connections until enough of
// them end; running sessions are not affected.
func (s *Server) SetMaxConnections(n int) error {
	prev := s.admission.Capacity()
	if err := s.admission.SetCapacity(n); err != nil {
		return err
	}
	if prev != n {
		s.logger.Info("max connections updated",
			log.Int("from", prev),
			log.Int("to", n),
			log.Int("active", s.admission.Active()),
		)
	}
	return nil
}

var _ Controller = (*Server)(nil)

// eventEmitter adapts EventHandler to the internal emitter interfaces.
type eventEmitter struct {
	handler EventHandler
}

func (e *eventEmitter) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitter) OnSessionStart(info app.SessionInfo) {
	if e.handler == nil {
		return
	}
	e.handler.OnSessionStart(SessionStartEvent{SessionID: info.ID, Peer: info.Peer})
}

func (e *eventEmitter) OnSessionEnd(summary app.SessionSummary) {
	if e.handler == nil {
		return
	}
	e.handler.OnSessionEnd(SessionEndEvent{
		SessionID: summary.ID,
		Peer:      summary.Peer,
		Reason:    summary.Reason,
		Frames:    summary.Frames,
		Bytes:     summary.Bytes,
		Files:     summary.Files,
		Err:       summary.Err,
	})
}

func (e *eventEmitter) OnFileComplete(info app.SessionInfo, file app.FileInfo) {
	if e.handler == nil {
		return
	}
	e.handler.OnFileComplete(FileCompleteEvent{
		SessionID: info.ID,
		Peer:      info.Peer,
		Name:      file.Name,
		Path:      file.Path,
		Bytes:     file.Bytes,
	})
}

func (e *eventEmitter) OnRejected(peer string, active, capacity int) {
	if e.handler == nil {
		return
	}
	e.handler.OnRejected(RejectedEvent{Peer: peer, Active: active, Capacity: capacity})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateListening:
		return StateListening
	case app.StateShuttingDown:
		return StateShuttingDown
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

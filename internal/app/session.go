package app

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/faadiallop/FileTransferServer/internal/bufpool"
	"github.com/faadiallop/FileTransferServer/internal/domain"
	"github.com/faadiallop/FileTransferServer/internal/ports"
	"github.com/faadiallop/FileTransferServer/pkg/frame"
	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// Session end reasons reported in the "session ended" status line.
const (
	ReasonExit        = "exit"
	ReasonPeerClosed  = "peer_closed"
	ReasonIdleTimeout = "idle_timeout"
)

// SessionInfo identifies a session.
type SessionInfo struct {
	ID   string
	Peer string
}

// FileInfo describes a file a session finished with a done frame.
type FileInfo struct {
	Name  string
	Path  string
	Bytes int64
}

// SessionSummary is reported once when a session ends.
type SessionSummary struct {
	SessionInfo
	Reason string
	Frames int64
	Bytes  int64
	Files  int
	Err    error
}

// SessionEvents receives session notifications. Methods are called from the
// session goroutine.
type SessionEvents interface {
	OnSessionStart(info SessionInfo)
	OnSessionEnd(summary SessionSummary)
	OnFileComplete(info SessionInfo, file FileInfo)
}

// SessionConfig holds what every session shares.
type SessionConfig struct {
	Store  ports.OutputStore
	Pool   *bufpool.Pool
	Logger log.Logger
	Events SessionEvents

	// MaxPayloadBytes caps a single frame payload. Zero means the codec maximum.
	MaxPayloadBytes int

	// IdleTimeout ends a session that sends nothing for this long. Zero disables it.
	IdleTimeout time.Duration
}

// Runner runs a session to completion.
type Runner interface {
	Run() error
}

// SessionFactory builds the session for an admitted connection.
type SessionFactory func(conn net.Conn) Runner

// NewSessionFactory returns a SessionFactory producing sessions that share cfg.
func NewSessionFactory(cfg SessionConfig) SessionFactory {
	return func(conn net.Conn) Runner {
		return NewSession(conn, cfg)
	}
}

// Session reconstructs the files one peer streams over a connection.
type Session struct {
	info SessionInfo
	conn net.Conn
	cfg  SessionConfig
	log  log.Logger

	reasm *frame.Reassembler

	current   string
	written   map[string]bool
	file      ports.OutputFile
	fileBytes int64

	frames int64
	bytes  int64
	files  int
}

// NewSession creates a session for conn.
func NewSession(conn net.Conn, cfg SessionConfig) *Session {
	if cfg.Pool == nil {
		cfg.Pool = bufpool.New(bufpool.DefaultSize)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNoopLogger()
	}
	info := SessionInfo{
		ID:   uuid.NewString(),
		Peer: conn.RemoteAddr().String(),
	}
	return &Session{
		info:    info,
		conn:    conn,
		cfg:     cfg,
		log:     log.With(cfg.Logger, log.String("peer", info.Peer), log.String("session", info.ID)),
		reasm:   frame.NewReassembler(frame.WithMaxPayload(cfg.MaxPayloadBytes)),
		written: make(map[string]bool),
	}
}

// Info returns the session identity.
func (s *Session) Info() SessionInfo {
	return s.info
}

// Run reads frames until the peer exits, closes the connection or breaks the
// protocol. The connection and any open output file are closed on return.
// The returned error is nil for a clean end.
func (s *Session) Run() error {
	s.log.Info("session started")
	if s.cfg.Events != nil {
		s.cfg.Events.OnSessionStart(s.info)
	}

	reason, err := s.loop()

	s.closeFile()
	_ = s.conn.Close()
	s.report(reason, err)
	return err
}

func (s *Session) loop() (string, error) {
	bufp := s.cfg.Pool.Get()
	defer s.cfg.Pool.Put(bufp)
	buf := *bufp

	for {
		if s.cfg.IdleTimeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				return domain.Kind(err), &domain.ConnectionIOError{Op: "set deadline", Peer: s.info.Peer, Err: err}
			}
		}

		n, rerr := s.conn.Read(buf)
		if n > 0 {
			frames, ferr := s.reasm.Feed(buf[:n])
			for _, f := range frames {
				exit, err := s.handle(f)
				if err != nil {
					return domain.Kind(err), err
				}
				if exit {
					return ReasonExit, nil
				}
			}
			if ferr != nil {
				return domain.Kind(ferr), ferr
			}
		}

		if rerr != nil {
			var ne net.Error
			switch {
			case errors.Is(rerr, io.EOF):
				if s.reasm.Buffered() > 0 {
					err := fmt.Errorf("%w: %d bytes buffered", domain.ErrTruncatedStream, s.reasm.Buffered())
					return domain.Kind(err), err
				}
				return ReasonPeerClosed, nil
			case errors.As(rerr, &ne) && ne.Timeout():
				return ReasonIdleTimeout, nil
			default:
				err := &domain.ConnectionIOError{Op: "read", Peer: s.info.Peer, Err: rerr}
				return domain.Kind(err), err
			}
		}
	}
}

// handle applies one frame. It reports true when the peer asked to exit.
func (s *Session) handle(f frame.Frame) (bool, error) {
	s.frames++

	switch {
	case f.IsExit():
		return true, nil

	case f.IsDone():
		return false, s.completeFile()

	case f.NewFile:
		name := string(f.Payload)
		if _, err := s.cfg.Store.Resolve(name); err != nil {
			return false, err
		}
		if s.file != nil && s.file.Name() != name {
			s.closeFile()
		}
		s.current = name
		s.log.Debug("new file announced", log.String("file", name))
		return false, nil

	default:
		return false, s.write(f.Payload)
	}
}

func (s *Session) write(payload []byte) error {
	if s.current == "" {
		return domain.ErrNoActiveFile
	}
	if s.file == nil {
		truncate := !s.written[s.current]
		file, err := s.cfg.Store.Open(s.current, truncate)
		if err != nil {
			return err
		}
		s.written[s.current] = true
		s.file = file
		s.fileBytes = 0
	}

	n, err := s.file.Write(payload)
	s.fileBytes += int64(n)
	s.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("write %s: %w", s.file.Name(), err)
	}
	return nil
}

// completeFile handles a done frame. A name that received no content in this
// session is still truncated, so the output always matches what was sent.
func (s *Session) completeFile() error {
	if s.current == "" {
		s.log.Debug("done frame without an announced file")
		return nil
	}

	if s.file == nil && !s.written[s.current] {
		file, err := s.cfg.Store.Open(s.current, true)
		if err != nil {
			return err
		}
		s.written[s.current] = true
		s.file = file
		s.fileBytes = 0
	}

	fi := FileInfo{Name: s.current, Bytes: s.fileBytes}
	if s.file != nil {
		fi.Path = s.file.Path()
	} else if path, err := s.cfg.Store.Resolve(s.current); err == nil {
		fi.Path = path
	}
	s.closeFile()
	s.files++

	s.log.Info("file received",
		log.String("file", fi.Name),
		log.Int64("bytes", fi.Bytes),
	)
	if s.cfg.Events != nil {
		s.cfg.Events.OnFileComplete(s.info, fi)
	}
	return nil
}

func (s *Session) closeFile() {
	if s.file == nil {
		return
	}
	if err := s.file.Close(); err != nil {
		s.log.Warn("close output file failed", log.String("file", s.file.Name()), log.Err(err))
	}
	s.file = nil
	s.fileBytes = 0
}

func (s *Session) report(reason string, err error) {
	fields := []log.Field{
		log.String("reason", reason),
		log.Int64("frames", s.frames),
		log.Int64("bytes", s.bytes),
		log.Int("files", s.files),
	}
	if err != nil {
		s.log.Warn("session ended", append(fields, log.Err(err))...)
	} else {
		s.log.Info("session ended", fields...)
	}

	if s.cfg.Events != nil {
		s.cfg.Events.OnSessionEnd(SessionSummary{
			SessionInfo: s.info,
			Reason:      reason,
			Frames:      s.frames,
			Bytes:       s.bytes,
			Files:       s.files,
			Err:         err,
		})
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// tokenWriteTimeout bounds the write of the admission token.
const tokenWriteTimeout = 5 * time.Second

// DispatchEvents receives admission notifications from the accept loop.
type DispatchEvents interface {
	OnRejected(peer string, active, capacity int)
}

// Dispatcher accepts connections, admits or rejects them and runs one session
// goroutine per admitted connection.
type Dispatcher struct {
	ln         net.Listener
	admission  *Admission
	newSession SessionFactory
	logger     log.Logger
	events     DispatchEvents

	backoffInitial time.Duration
	backoffMax     time.Duration

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher serving ln. events may be nil.
func NewDispatcher(ln net.Listener, admission *Admission, newSession SessionFactory, logger log.Logger, events DispatchEvents) *Dispatcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Dispatcher{
		ln:             ln,
		admission:      admission,
		newSession:     newSession,
		logger:         logger,
		events:         events,
		backoffInitial: DefaultBackoffInitial,
		backoffMax:     DefaultBackoffMax,
	}
}

// Addr returns the listener address.
func (d *Dispatcher) Addr() net.Addr {
	return d.ln.Addr()
}

// Serve runs the accept loop until ctx is canceled, in which case the listener
// is closed and Serve returns nil. Running sessions are left to finish.
func (d *Dispatcher) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = d.ln.Close()
	})
	defer stop()

	bo := newBackoff(d.backoffInitial, d.backoffMax)
	d.logger.Info("listening", log.String("addr", d.ln.Addr().String()))

	for {
		conn, err := d.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if isTemporary(err) {
				d.logger.Warn("accept failed, retrying",
					log.Err(err),
					log.Duration("backoff", bo.Current()),
				)
				if werr := bo.Wait(ctx); werr != nil {
					return nil
				}
				continue
			}
			_ = d.ln.Close()
			return fmt.Errorf("accept: %w", err)
		}
		bo.Reset()
		d.dispatch(conn)
	}
}

func (d *Dispatcher) dispatch(conn net.Conn) {
	peer := conn.RemoteAddr().String()

	if !d.admission.TryAdmit() {
		_ = writeToken(conn, TokenFailed)
		_ = conn.Close()

		active, capacity := d.admission.Active(), d.admission.Capacity()
		d.logger.Info("connection rejected",
			log.String("peer", peer),
			log.Int("active", active),
			log.Int("capacity", capacity),
		)
		if d.events != nil {
			d.events.OnRejected(peer, active, capacity)
		}
		return
	}

	d.wg.Add(1)
	if err := writeToken(conn, TokenAccepted); err != nil {
		d.admission.Release()
		d.wg.Done()
		_ = conn.Close()
		d.logger.Warn("admission token write failed", log.String("peer", peer), log.Err(err))
		return
	}

	go func() {
		defer d.wg.Done()
		defer d.admission.Release()
		_ = d.newSession(conn).Run()
	}()
}

// Wait blocks until every running session has ended or timeout expires.
// Returns domain.ErrShutdownTimeout in the latter case.
func (d *Dispatcher) Wait(timeout time.Duration) error {
	return waitGroupTimeout(&d.wg, timeout, d.logger)
}

func writeToken(conn net.Conn, token string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(tokenWriteTimeout)); err != nil {
		return err
	}
	if _, err := io.WriteString(conn, token); err != nil {
		return err
	}
	return conn.SetWriteDeadline(time.Time{})
}

func isTemporary(err error) bool {
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}

package sender

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/faadiallop/FileTransferServer/pkg/frame"
	"github.com/faadiallop/FileTransferServer/pkg/log"
)

// Client is an admitted connection to a receiver.
// Methods are safe for concurrent use but frames are never interleaved:
// each SendFile runs to completion before the next call proceeds.
type Client struct {
	conn   net.Conn
	peer   string
	logger log.Logger

	mu     sync.Mutex
	w      *bufio.Writer
	closed bool
}

// Dial connects to addr and waits for the admission token.
// Returns ErrRejected if the receiver is at capacity and ErrBadHandshake if
// it answers with anything else but "Accepted".
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := net.Dialer{Timeout: o.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(o.handshakeTimeout)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("handshake %s: %w", addr, err)
	}
	tok, err := frame.ReadToken(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("handshake %s: %w", addr, err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	switch tok {
	case frame.TokenAccepted:
	case frame.TokenFailed:
		_ = conn.Close()
		o.logger.Warn("receiver rejected connection", log.String("addr", addr))
		return nil, ErrRejected
	default:
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %q", ErrBadHandshake, tok)
	}

	peer := conn.RemoteAddr().String()
	o.logger.Info("connected", log.String("peer", peer))

	return &Client{
		conn:   conn,
		peer:   peer,
		logger: o.logger,
		w:      bufio.NewWriter(conn),
	}, nil
}

// Peer returns the receiver address.
func (c *Client) Peer() string {
	return c.peer
}

// SendFile streams the file at path: its base name as a new-file frame,
// every line (newline included) as a content frame, then the done sentinel.
// A final line reading exactly "done" or "exit" without a trailing newline
// is indistinguishable from the sentinel on the wire.
func (c *Client) SendFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}
	defer f.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	name := filepath.Base(path)
	if err := c.writeFrame([]byte(name), true); err != nil {
		return err
	}

	var lines, bytes int64
	r := bufio.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			_ = c.flush()
			return err
		}

		line, rerr := r.ReadBytes('\n')
		if len(line) > 0 {
			if err := c.writeFrame(line, false); err != nil {
				return err
			}
			lines++
			bytes += int64(len(line))
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			_ = c.flush()
			return fmt.Errorf("read %s: %w", path, rerr)
		}
	}

	if err := c.writeFrame([]byte(frame.SentinelDone), false); err != nil {
		return err
	}
	if err := c.flush(); err != nil {
		return err
	}

	c.logger.Info("file sent",
		log.String("file", name),
		log.Int64("lines", lines),
		log.Int64("bytes", bytes),
	)
	return nil
}

// SendFrame writes a single frame and flushes it.
func (c *Client) SendFrame(payload []byte, newFile bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.writeFrame(payload, newFile); err != nil {
		return err
	}
	return c.flush()
}

// Close sends the exit sentinel and closes the connection.
// Calling Close more than once is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.writeFrame([]byte(frame.SentinelExit), false)
	if err == nil {
		err = c.flush()
	}
	if cerr := c.conn.Close(); err == nil && cerr != nil {
		err = &ConnError{Op: "close", Peer: c.peer, Err: cerr}
	}
	c.logger.Debug("disconnected", log.String("peer", c.peer))
	return err
}

func (c *Client) writeFrame(payload []byte, newFile bool) error {
	b, err := frame.Encode(payload, newFile)
	if err != nil {
		return err
	}
	if _, err := c.w.Write(b); err != nil {
		return &ConnError{Op: "write", Peer: c.peer, Err: err}
	}
	return nil
}

func (c *Client) flush() error {
	if err := c.w.Flush(); err != nil {
		return &ConnError{Op: "write", Peer: c.peer, Err: err}
	}
	return nil
}

package app

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/faadiallop/FileTransferServer/internal/adapters/fs"
	"github.com/faadiallop/FileTransferServer/internal/domain"
	"github.com/faadiallop/FileTransferServer/pkg/frame"
)

type dispatcherFixture struct {
	d         *Dispatcher
	admission *Admission
	store     *fs.OutputStore
	events    *recordingEvents
	cancel    context.CancelFunc
	served    chan error
}

func startDispatcher(t *testing.T, capacity int) *dispatcherFixture {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	store := fs.NewOutputStore(t.TempDir(), ".output")
	events := &recordingEvents{}
	admission := NewAdmission(capacity)
	factory := NewSessionFactory(SessionConfig{Store: store, Logger: &mockLogger{}, Events: events})

	ctx, cancel := context.WithCancel(context.Background())
	f := &dispatcherFixture{
		d:         NewDispatcher(ln, admission, factory, &mockLogger{}, events),
		admission: admission,
		store:     store,
		events:    events,
		cancel:    cancel,
		served:    make(chan error, 1),
	}
	go func() { f.served <- f.d.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		_ = f.d.Wait(5 * time.Second)
	})
	return f
}

func (f *dispatcherFixture) dial(t *testing.T) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", f.d.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readToken reads the unframed admission token.
func readToken(t *testing.T, conn net.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	tok, err := frame.ReadToken(conn)
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	return tok
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func sendFile(t *testing.T, conn net.Conn, name string, lines ...string) {
	t.Helper()
	if err := frame.Write(conn, []byte(name), true); err != nil {
		t.Fatalf("send name: %v", err)
	}
	for _, l := range lines {
		if err := frame.Write(conn, []byte(l), false); err != nil {
			t.Fatalf("send content: %v", err)
		}
	}
	if err := frame.Write(conn, []byte(frame.SentinelDone), false); err != nil {
		t.Fatalf("send done: %v", err)
	}
}

func TestDispatcher_AcceptsAndReceives(t *testing.T) {
	f := startDispatcher(t, 2)

	conn := f.dial(t)
	if tok := readToken(t, conn); tok != TokenAccepted {
		t.Fatalf("token = %q, want %q", tok, TokenAccepted)
	}

	sendFile(t, conn, "a.txt", "hello\n")
	if err := frame.Write(conn, []byte(frame.SentinelExit), false); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "session end", func() bool { return len(f.events.Ended()) == 1 })
	if got := readOutput(t, f.store, "a.txt"); got != "hello\n" {
		t.Errorf("a.txt.output = %q, want %q", got, "hello\n")
	}
	waitFor(t, "slot release", func() bool { return f.admission.Active() == 0 })
}

func TestDispatcher_RejectsOverCapacity(t *testing.T) {
	f := startDispatcher(t, 1)

	first := f.dial(t)
	if tok := readToken(t, first); tok != TokenAccepted {
		t.Fatalf("first token = %q, want %q", tok, TokenAccepted)
	}

	second := f.dial(t)
	if tok := readToken(t, second); tok != TokenFailed {
		t.Fatalf("second token = %q, want %q", tok, TokenFailed)
	}

	// A rejected connection is closed right after the token.
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	if n, err := second.Read(make([]byte, 1)); n != 0 || err != io.EOF {
		t.Errorf("read after Failed = (%d, %v), want (0, EOF)", n, err)
	}

	if f.admission.Active() != 1 {
		t.Errorf("Active() = %d, want 1", f.admission.Active())
	}
	f.events.mu.Lock()
	rejected := len(f.events.rejected)
	f.events.mu.Unlock()
	if rejected != 1 {
		t.Errorf("rejected events = %d, want 1", rejected)
	}

	// Closing the admitted connection frees the slot for the next peer.
	_ = first.Close()
	waitFor(t, "slot release", func() bool { return f.admission.Active() == 0 })

	third := f.dial(t)
	if tok := readToken(t, third); tok != TokenAccepted {
		t.Errorf("third token = %q, want %q", tok, TokenAccepted)
	}
}

func TestDispatcher_ConcurrentSessions(t *testing.T) {
	f := startDispatcher(t, 2)

	a := f.dial(t)
	b := f.dial(t)
	for _, c := range []net.Conn{a, b} {
		if tok := readToken(t, c); tok != TokenAccepted {
			t.Fatalf("token = %q, want %q", tok, TokenAccepted)
		}
	}

	var wg sync.WaitGroup
	for _, tc := range []struct {
		conn net.Conn
		name string
		line string
	}{
		{a, "a.txt", "from a\n"},
		{b, "b.txt", "from b\n"},
	} {
		wg.Add(1)
		go func(conn net.Conn, name, line string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := frame.Write(conn, []byte(name), true); err != nil {
					t.Errorf("send name: %v", err)
					return
				}
				if err := frame.Write(conn, []byte(line), false); err != nil {
					t.Errorf("send content: %v", err)
					return
				}
			}
			_ = frame.Write(conn, []byte(frame.SentinelExit), false)
		}(tc.conn, tc.name, tc.line)
	}
	wg.Wait()

	waitFor(t, "both sessions", func() bool { return len(f.events.Ended()) == 2 })

	for _, tc := range []struct{ name, line string }{{"a.txt", "from a\n"}, {"b.txt", "from b\n"}} {
		got := readOutput(t, f.store, tc.name)
		want := strings.Repeat(tc.line, 50)
		if got != want {
			t.Errorf("%s.output has %d bytes, want %d", tc.name, len(got), len(want))
		}
	}
}

func TestDispatcher_ShutdownLeavesSessionsRunning(t *testing.T) {
	f := startDispatcher(t, 2)

	conn := f.dial(t)
	if tok := readToken(t, conn); tok != TokenAccepted {
		t.Fatalf("token = %q, want %q", tok, TokenAccepted)
	}

	f.cancel()
	select {
	case err := <-f.served:
		if err != nil {
			t.Fatalf("Serve() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if _, err := net.DialTimeout("tcp", f.d.Addr().String(), 200*time.Millisecond); err == nil {
		t.Error("dial after shutdown succeeded, want listener closed")
	}

	// The in-flight session still completes its transfer.
	sendFile(t, conn, "late.txt", "still here\n")
	if err := frame.Write(conn, []byte(frame.SentinelExit), false); err != nil {
		t.Fatal(err)
	}

	if err := f.d.Wait(2 * time.Second); err != nil {
		t.Fatalf("Wait() = %v, want nil", err)
	}
	if got := readOutput(t, f.store, "late.txt"); got != "still here\n" {
		t.Errorf("late.txt.output = %q", got)
	}
}

func TestDispatcher_WaitTimeout(t *testing.T) {
	f := startDispatcher(t, 1)

	conn := f.dial(t)
	if tok := readToken(t, conn); tok != TokenAccepted {
		t.Fatalf("token = %q, want %q", tok, TokenAccepted)
	}

	if err := f.d.Wait(20 * time.Millisecond); !errors.Is(err, domain.ErrShutdownTimeout) {
		t.Errorf("Wait() = %v, want ErrShutdownTimeout", err)
	}
}

// fakeListener hands out queued connections and errors.
type fakeListener struct {
	accepts chan acceptResult
	closed  chan struct{}
	once    sync.Once
}

type acceptResult struct {
	conn net.Conn
	err  error
}

func newFakeListener() *fakeListener {
	return &fakeListener{accepts: make(chan acceptResult, 8), closed: make(chan struct{})}
}

func (l *fakeListener) Accept() (net.Conn, error) {
	select {
	case r, ok := <-l.accepts:
		if !ok {
			return nil, net.ErrClosed
		}
		return r.conn, r.err
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *fakeListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *fakeListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

type tempError struct{}

func (tempError) Error() string   { return "temporary accept failure" }
func (tempError) Timeout() bool   { return false }
func (tempError) Temporary() bool { return true }

// brokenConn fails every write.
type brokenConn struct {
	net.Conn
}

func (brokenConn) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

type stubRunner struct {
	ran chan struct{}
}

func (r stubRunner) Run() error {
	close(r.ran)
	return nil
}

func TestDispatcher_TokenWriteFailureReleasesSlot(t *testing.T) {
	ln := newFakeListener()
	admission := NewAdmission(1)
	factory := func(net.Conn) Runner {
		t.Error("session started for a connection whose token write failed")
		return stubRunner{ran: make(chan struct{})}
	}
	d := NewDispatcher(ln, admission, factory, &mockLogger{}, nil)

	server, client := net.Pipe()
	defer client.Close()
	ln.accepts <- acceptResult{conn: brokenConn{server}}
	close(ln.accepts)

	err := d.Serve(context.Background())
	if !errors.Is(err, net.ErrClosed) {
		t.Fatalf("Serve() = %v, want wrapped net.ErrClosed", err)
	}
	if admission.Active() != 0 {
		t.Errorf("Active() = %d after failed token write, want 0", admission.Active())
	}
}

func TestDispatcher_RetriesTemporaryAcceptErrors(t *testing.T) {
	ln := newFakeListener()
	runner := stubRunner{ran: make(chan struct{})}
	d := NewDispatcher(ln, NewAdmission(1), func(net.Conn) Runner { return runner }, &mockLogger{}, nil)
	d.backoffInitial = time.Millisecond
	d.backoffMax = 2 * time.Millisecond

	server, client := net.Pipe()
	defer client.Close()
	go func() { _, _ = io.Copy(io.Discard, client) }()

	ln.accepts <- acceptResult{err: tempError{}}
	ln.accepts <- acceptResult{err: tempError{}}
	ln.accepts <- acceptResult{conn: server}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- d.Serve(ctx) }()

	select {
	case <-runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("session never started after temporary errors")
	}

	cancel()
	if err := <-served; err != nil {
		t.Errorf("Serve() = %v, want nil", err)
	}
	if err := d.Wait(time.Second); err != nil {
		t.Errorf("Wait() = %v", err)
	}
}

package ftserver_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/faadiallop/FileTransferServer/pkg/ftserver"
	"github.com/faadiallop/FileTransferServer/pkg/sender"
)

func startServer(t *testing.T, cfg ftserver.Config, opts ...ftserver.Option) *ftserver.Server {
	t.Helper()
	s, err := ftserver.New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEndToEnd_SendAndReceive(t *testing.T) {
	cfg := createTestConfig(t)
	tracker := &eventTracker{}
	s := startServer(t, cfg, ftserver.WithEventHandler(tracker))

	first := writeSource(t, "notes.txt", "alpha\nbeta\ngamma\n")
	second := writeSource(t, "log.txt", "only line")

	c, err := sender.Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	for _, p := range []string{first, second} {
		if err := c.SendFile(context.Background(), p); err != nil {
			t.Fatalf("SendFile(%s) error = %v", p, err)
		}
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	waitFor(t, "session end", func() bool { return len(tracker.Ended()) == 1 })

	if got := readOutput(t, cfg, "notes.txt"); got != "alpha\nbeta\ngamma\n" {
		t.Errorf("notes.txt.output = %q", got)
	}
	if got := readOutput(t, cfg, "log.txt"); got != "only line" {
		t.Errorf("log.txt.output = %q", got)
	}

	end := tracker.Ended()[0]
	if end.Reason != "exit" || end.Err != nil || end.Files != 2 {
		t.Errorf("session end = %+v, want clean exit with 2 files", end)
	}
	if files := tracker.Files(); len(files) != 2 || files[0].Name != "notes.txt" || files[1].Name != "log.txt" {
		t.Errorf("file events = %+v", files)
	}
	waitFor(t, "slot release", func() bool { return s.Active() == 0 })
}

func TestEndToEnd_RejectedAtCapacity(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.MaxConnections = 1
	tracker := &eventTracker{}
	s := startServer(t, cfg, ftserver.WithEventHandler(tracker))

	held, err := sender.Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("first Dial() error = %v", err)
	}

	if _, err := sender.Dial(context.Background(), s.Addr().String()); !errors.Is(err, sender.ErrRejected) {
		t.Fatalf("second Dial() error = %v, want ErrRejected", err)
	}
	waitFor(t, "rejected event", func() bool { return len(tracker.Rejected()) == 1 })
	if rejected := tracker.Rejected(); rejected[0].Capacity != 1 {
		t.Errorf("rejected events = %+v", rejected)
	}

	_ = held.Close()
	waitFor(t, "slot release", func() bool { return s.Active() == 0 })

	again, err := sender.Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("Dial() after release error = %v", err)
	}
	_ = again.Close()
}

func TestEndToEnd_RaisingCapacityAdmitsMore(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.MaxConnections = 1
	s := startServer(t, cfg)

	held, err := sender.Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer held.Close()

	if err := s.SetMaxConnections(2); err != nil {
		t.Fatalf("SetMaxConnections(2) = %v", err)
	}

	second, err := sender.Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("Dial() after raising capacity error = %v", err)
	}
	_ = second.Close()
}

func TestEndToEnd_ConcurrentSenders(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.MaxConnections = 4
	tracker := &eventTracker{}
	s := startServer(t, cfg, ftserver.WithEventHandler(tracker))

	const senders = 4
	paths := make([]string, senders)
	for i := range paths {
		paths[i] = writeSource(t, fmt.Sprintf("file-%d.txt", i), strings.Repeat(fmt.Sprintf("line from %d\n", i), 200))
	}

	var wg sync.WaitGroup
	for _, path := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			c, err := sender.Dial(context.Background(), s.Addr().String())
			if err != nil {
				t.Errorf("Dial() error = %v", err)
				return
			}
			defer c.Close()
			if err := c.SendFile(context.Background(), path); err != nil {
				t.Errorf("SendFile() error = %v", err)
			}
		}(path)
	}
	wg.Wait()

	waitFor(t, "all sessions", func() bool { return len(tracker.Ended()) == senders })
	for i := 0; i < senders; i++ {
		name := fmt.Sprintf("file-%d.txt", i)
		want := strings.Repeat(fmt.Sprintf("line from %d\n", i), 200)
		if got := readOutput(t, cfg, name); got != want {
			t.Errorf("%s.output has %d bytes, want %d", name, len(got), len(want))
		}
	}
}

func TestEndToEnd_TraversalNameRejected(t *testing.T) {
	cfg := createTestConfig(t)
	tracker := &eventTracker{}
	s := startServer(t, cfg, ftserver.WithEventHandler(tracker))

	c, err := sender.Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	if err := c.SendFrame([]byte("../../escape.txt"), true); err != nil {
		t.Fatalf("SendFrame() error = %v", err)
	}

	waitFor(t, "session end", func() bool { return len(tracker.Ended()) == 1 })
	end := tracker.Ended()[0]
	if !errors.Is(end.Err, ftserver.ErrInvalidFileName) {
		t.Errorf("session error = %v, want ErrInvalidFileName", end.Err)
	}
	if end.Reason != "invalid_file_name" {
		t.Errorf("reason = %q, want invalid_file_name", end.Reason)
	}
}

func TestEndToEnd_WithListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	cfg := createTestConfig(t)
	s := startServer(t, cfg, ftserver.WithListener(ln))

	if s.Addr().String() != ln.Addr().String() {
		t.Errorf("Addr() = %v, want %v", s.Addr(), ln.Addr())
	}

	c, err := sender.Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	_ = c.Close()
}

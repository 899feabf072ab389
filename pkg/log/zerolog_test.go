package log

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapter(&buf, zerolog.DebugLevel)

	l.Info("file received",
		String("file", "a.txt"),
		Int("bytes", 11),
		Bool("ok", true),
		Duration("took", time.Second),
		Err(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{"INF", "file received", "file=a.txt", "bytes=11", "ok=true", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestZerologAdapter_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapter(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output %q contains messages below level", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("output %q missing warn message", out)
	}
}

func TestZerologAdapter_ConcurrentLinesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologAdapter(&buf, zerolog.InfoLevel)

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.Info("status", String("worker", fmt.Sprintf("w%d", w)), Int("seq", i))
			}
		}(w)
	}
	wg.Wait()

	lines := 0
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		line := sc.Text()
		lines++
		if strings.Count(line, "status") != 1 || !strings.Contains(line, "worker=w") {
			t.Fatalf("interleaved line: %q", line)
		}
	}
	if lines != workers*perWorker {
		t.Errorf("got %d lines, want %d", lines, workers*perWorker)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

type recordingLogger struct {
	mu     sync.Mutex
	fields [][]Field
}

func (r *recordingLogger) record(fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields = append(r.fields, fields)
}

func (r *recordingLogger) Debug(msg string, fields ...Field) { r.record(fields) }
func (r *recordingLogger) Info(msg string, fields ...Field)  { r.record(fields) }
func (r *recordingLogger) Warn(msg string, fields ...Field)  { r.record(fields) }
func (r *recordingLogger) Error(msg string, fields ...Field) { r.record(fields) }

func TestWith(t *testing.T) {
	base := &recordingLogger{}
	l := With(With(base, String("session", "s1")), String("peer", "p1"))

	l.Info("x", Int("n", 1))

	if len(base.fields) != 1 {
		t.Fatalf("got %d calls, want 1", len(base.fields))
	}
	got := base.fields[0]
	keys := make([]string, len(got))
	for i, f := range got {
		keys[i] = f.Key
	}
	if strings.Join(keys, ",") != "session,peer,n" {
		t.Errorf("keys = %v, want [session peer n]", keys)
	}

	if With(base) != Logger(base) {
		t.Error("With without fields should return the base logger")
	}
}

package bridge

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
)

func TestLogger_Interface(t *testing.T) {
	var _ Logger = slog.Default()
}

func TestDefaultLogger(t *testing.T) {
	logger := defaultLogger()

	if logger == nil {
		t.Fatal("defaultLogger returned nil")
	}

	if logger != slog.Default() {
		t.Error("defaultLogger did not return slog.Default()")
	}
}

// mockLogger records every message; safe for use from several goroutines.
type mockLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *mockLogger) log(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf("%s %s %v", level, msg, args))
}

func (l *mockLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args...) }
func (l *mockLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args...) }
func (l *mockLogger) Warn(msg string, args ...any)  { l.log("WARN", msg, args...) }
func (l *mockLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args...) }

func (l *mockLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	prefix := level + " " + msg + " "
	for _, e := range l.entries {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func TestLifecycle_LogsTransitions(t *testing.T) {
	logger := &mockLogger{}
	l := newTestLifecycle(t, LoggerOption(logger))
	client := connectClient(t, l)

	if _, err := client.Write([]byte("100,102,50,30,1,0,7\n")); err != nil {
		t.Fatalf("client write failed: %v", err)
	}
	if _, err := l.Receive(); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for _, want := range []struct{ level, msg string }{
		{"INFO", "socket server listening"},
		{"INFO", "client connected"},
		{"DEBUG", "received market data"},
		{"INFO", "client socket closed"},
		{"INFO", "server socket closed"},
	} {
		if !logger.has(want.level, want.msg) {
			t.Errorf("missing log entry %s %q", want.level, want.msg)
		}
	}
}

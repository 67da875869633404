package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")

	logger, closer := NewLogger(path, 10, 3)
	logger.Println("hello from the daemon")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "hello from the daemon") {
		t.Errorf("log file contents = %q, want logged line", data)
	}
	if !strings.Contains(string(data), "[daemon] ") {
		t.Errorf("log file contents = %q, want [daemon] prefix", data)
	}
}

func TestNewLoggerStderrFallback(t *testing.T) {
	logger, closer := NewLogger("", 10, 3)
	if logger == nil {
		t.Fatal("NewLogger() returned nil logger")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

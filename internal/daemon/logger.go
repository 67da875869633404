package daemon

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the daemon logger. With a logFile it writes there
// with size-based rotation; otherwise it writes to stderr.
func NewLogger(logFile string, maxSizeMB, maxBackups int) (*log.Logger, io.Closer) {
	if logFile == "" {
		return log.New(os.Stderr, "[daemon] ", log.LstdFlags), io.NopCloser(nil)
	}

	lj := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
	return log.New(lj, "[daemon] ", log.LstdFlags), lj
}

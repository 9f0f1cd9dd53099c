// Package log is the process-wide structured logger.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	// fileLogger writes to the log file only. Discards when no file is set.
	fileLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init sets up logging with the given level. Records go to stderr and, when
// fileWriter is non-nil, to the file as well.
func Init(level string, fileWriter io.Writer) {
	var w io.Writer = os.Stderr
	var fw io.Writer = io.Discard
	if fileWriter != nil {
		w = io.MultiWriter(os.Stderr, fileWriter)
		fw = fileWriter
	}
	SetOutput(w, level)
	setFileOutput(fw, level)
}

func setFileOutput(w io.Writer, level string) {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	mu.Lock()
	fileLogger = l
	mu.Unlock()
}

// File returns a logger that writes to the log file only, for records the
// terminal already shows in another form.
func File() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return fileLogger
}

// SetOutput replaces the destination of all records.
func SetOutput(w io.Writer, level string) {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	mu.Lock()
	logger = l
	mu.Unlock()
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a logger that adds args to every record, for per-run context
// when several builds log at once.
func With(args ...any) *slog.Logger { return current().With(args...) }

func Debug(msg string, args ...any) { current().Debug(msg, args...) }
func Info(msg string, args ...any)  { current().Info(msg, args...) }
func Warn(msg string, args ...any)  { current().Warn(msg, args...) }
func Error(msg string, args ...any) { current().Error(msg, args...) }

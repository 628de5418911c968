package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

func options(level log.Level) log.Options {
	return log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	}
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	return &Logger{Logger: log.NewWithOptions(w, options(log.InfoLevel))}
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	return &Logger{Logger: log.NewWithOptions(w, options(level))}
}

// NewFileLogger creates a logger that appends to a file
func NewFileLogger(path string, debug bool) (*Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	cleanup := func() {
		f.Close()
	}
	return NewWithLevel(f, level), cleanup, nil
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// With returns a logger that adds the key/value pairs to every entry
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...)}
}

// MatrixLoaded logs a (re)parse of a matrix document
func (l *Logger) MatrixLoaded(path string, items int, reason string) {
	l.Info("matrix loaded",
		"path", path,
		"items", items,
		"reason", reason)
}

// MatrixSaved logs a completed write
func (l *Logger) MatrixSaved(path string, bytes int, duration time.Duration) {
	l.Debug("matrix saved",
		"path", path,
		"bytes", bytes,
		"duration", duration.Round(time.Millisecond))
}

// SaveFailed logs a write that did not reach the file
func (l *Logger) SaveFailed(path string, err error) {
	l.Error("save failed",
		"path", path,
		"error", err)
}

// EchoSuppressed logs a change notification that was recognized as our own write
func (l *Logger) EchoSuppressed(path, phase string) {
	l.Debug("change ignored",
		"path", path,
		"phase", phase)
}

// Mutation logs an applied edit
func (l *Logger) Mutation(path, op, id string) {
	l.Debug("matrix edited",
		"path", path,
		"op", op,
		"item", id)
}

// FileGone logs that the backing file disappeared
func (l *Logger) FileGone(path string) {
	l.Warn("matrix file removed",
		"path", path)
}

// Skipped logs work that was deliberately not done for a file
func (l *Logger) Skipped(file, reason string) {
	l.Debug("file skipped",
		"file", file,
		"reason", reason)
}

// TagRemoved logs a todo tag stripped from a completed note
func (l *Logger) TagRemoved(note, tag string) {
	l.Info("todo tag removed",
		"note", note,
		"tag", tag)
}

// ScanCompleted logs the result of a tag scan
func (l *Logger) ScanCompleted(folder string, found int, duration time.Duration) {
	l.Info("scan completed",
		"folder", folder,
		"found", found,
		"duration", duration.Round(time.Millisecond))
}

// ConfigLoaded logs successful config loading
func (l *Logger) ConfigLoaded(vaultDir string, saveDebounce time.Duration) {
	l.Debug("config loaded",
		"vault_dir", vaultDir,
		"save_debounce", saveDebounce)
}

// FileError logs an error for a specific file
func (l *Logger) FileError(file string, err error) {
	l.Error("file error",
		"file", file,
		"error", err)
}

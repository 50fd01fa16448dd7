// Package logger provides leveled logging for the game and its server.
package logger

import (
	"io"
	"log"
	"os"
)

// Logger writes prefixed lines at three levels.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// New creates a logger writing info and warnings to stdout and errors to stderr.
func New() *Logger {
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters creates a logger over explicit writers.
func NewWithWriters(out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lmsgprefix
	return &Logger{
		infoLogger:  log.New(out, "[KW-INFO] ", flags),
		warnLogger:  log.New(out, "[KW-WARN] ", flags),
		errorLogger: log.New(errOut, "[KW-ERROR] ", flags),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriters(io.Discard, io.Discard)
}

func (l *Logger) Info(format string, args ...any) {
	l.infoLogger.Printf(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warnLogger.Printf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.errorLogger.Printf(format, args...)
}

// Event logs a session-level game event.
func (l *Logger) Event(kind, sessionID, details string) {
	l.infoLogger.Printf("[EVENT:%s] session:%s | %s", kind, sessionID, details)
}

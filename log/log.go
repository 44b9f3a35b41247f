// Package log implements the levelled logger shared by the dashboard components.
//
// A Logger is created once at start up and handed to every component that needs to
// report progress. ERROR lines are copied to an optional error log file.
package log

import (
	"fmt"
	"io"
	golog "log"
	"os"
	"path/filepath"
	"sync"
)

type Logger struct {
	sync.Mutex
	console *golog.Logger
	errors  *golog.Logger
	file    io.Closer
	debug   bool
}

// New returns a Logger writing to w. DEBUG lines are suppressed unless debug is set.
func New(w io.Writer, debug bool) *Logger {
	return &Logger{
		console: golog.New(w, "", golog.LstdFlags),
		debug:   debug,
	}
}

// Default returns a Logger writing to stderr.
func Default(debug bool) *Logger {
	return New(os.Stderr, debug)
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, false)
}

// WithErrorLog additionally appends ERROR lines to the file at path, creating the
// containing directory if necessary.
func (l *Logger) WithErrorLog(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0660)
	if err != nil {
		return err
	}

	l.Lock()
	defer l.Unlock()

	if l.file != nil {
		l.file.Close()
	}

	l.errors = golog.New(f, "", golog.LstdFlags)
	l.file = f

	return nil
}

func (l *Logger) Close() error {
	l.Lock()
	defer l.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.errors = nil
		return err
	}

	return nil
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.debug {
		l.write("DEBUG", fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.write("INFO", fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.write("WARN", fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.write("ERROR", msg)

	l.Lock()
	defer l.Unlock()

	if l.errors != nil {
		l.errors.Printf("%-5s %s", "ERROR", msg)
	}
}

func (l *Logger) IsDebug() bool {
	return l.debug
}

func (l *Logger) write(level string, msg string) {
	l.console.Printf("%-5s %s", level, msg)
}

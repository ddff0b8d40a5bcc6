// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package build holds the logging setup shared by the txwallet binaries.
package build

import (
	"io"
	"os"

	"github.com/btcsuite/btclog"
)

// LogType is an indicating the type of logging specified by the build flag.
type LogType byte

const (
	// LogTypeNone indicates no logging.
	LogTypeNone LogType = iota

	// LogTypeStdOut all logging is written directly to stdout.
	LogTypeStdOut

	// LogTypeDefault logs to both stdout and a rotating log file.
	LogTypeDefault
)

// String returns a human readable identifier for the logging type.
func (t LogType) String() string {
	switch t {
	case LogTypeNone:
		return "none"
	case LogTypeStdOut:
		return "stdout"
	case LogTypeDefault:
		return "default"
	default:
		return "unknown"
	}
}

// LogWriter writes log lines to a console writer and, once initialized, to
// a rotating log file.
type LogWriter struct {
	// Console receives every log line.  Binaries whose stdout carries
	// data log to stderr instead.
	Console io.Writer

	RotatingLogWriter *RotatingLogWriter
}

// NewLogWriter returns a writer logging to console whose file output is
// enabled by calling InitLogRotator on its RotatingLogWriter.
func NewLogWriter(console io.Writer) *LogWriter {
	return &LogWriter{
		Console:           console,
		RotatingLogWriter: NewRotatingLogWriter(),
	}
}

// Write writes b to the console and the log file.
func (w *LogWriter) Write(b []byte) (int, error) {
	if LoggingType == LogTypeNone {
		return len(b), nil
	}
	_, _ = w.Console.Write(b)
	if LoggingType == LogTypeDefault {
		return w.RotatingLogWriter.Write(b)
	}
	return len(b), nil
}

var _ io.Writer = (*LogWriter)(nil)

// NewSubLogger constructs a new subsystem log from the current LogWriter
// implementation.  When no constructor is given and logging goes to stdout,
// a standalone stdout logger is returned, which is what unit tests use.
func NewSubLogger(subsystem string,
	genSubLogger func(string) btclog.Logger) btclog.Logger {

	switch LoggingType {

	// Default logging is used when running the binaries.  All subsystems
	// share the backend behind genSubLogger.
	case LogTypeDefault:
		if genSubLogger != nil {
			return genSubLogger(subsystem)
		}

	// Logging to stdout is used in unit tests.  It is not important that
	// they share the same backend.
	case LogTypeStdOut:
		if genSubLogger != nil {
			return genSubLogger(subsystem)
		}
		backend := btclog.NewBackend(os.Stdout)
		logger := backend.Logger(subsystem)

		level, _ := btclog.LevelFromString(LogLevel)
		logger.SetLevel(level)

		return logger
	}

	// For any other configurations, we'll disable logging.
	return btclog.Disabled
}

// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"sort"

	"github.com/btcsuite/btclog"
	"github.com/novaledger/txwallet/build"
	"github.com/novaledger/txwallet/wallet"
	"github.com/novaledger/txwallet/wallet/txauthor"
)

// Loggers per subsystem.  A single backend logger is created and all
// subsystem loggers created from it write to the backend.  When adding new
// subsystems, add the subsystem logger variable here and to the
// subsystemLoggers map.
var (
	// logWriter writes to stderr and, once the rotator is initialized, to
	// the log file.
	logWriter = build.NewLogWriter(os.Stderr)

	// backendLog is the logging backend used to create all subsystem
	// loggers.
	backendLog = btclog.NewBackend(logWriter)

	log       = build.NewSubLogger("BTXC", backendLog.Logger)
	walletLog = build.NewSubLogger("WLLT", backendLog.Logger)
	txauLog   = build.NewSubLogger("TXAU", backendLog.Logger)
)

// Initialize package-global logger variables.
func init() {
	wallet.UseLogger(walletLog)
	txauthor.UseLogger(txauLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"BTXC": log,
	"WLLT": walletLog,
	"TXAU": txauLog,
}

// initLogRotator initializes the logging rotator to write logs to logFile
// and create roll files in the same directory.  It must be called before
// the package-global log rotator variables are used.
func initLogRotator(logFile string, maxSizeMB, maxFiles int) error {
	return logWriter.RotatingLogWriter.InitLogRotator(
		logFile, int64(maxSizeMB)*1024, maxFiles,
	)
}

// closeLogRotator flushes and closes the log file, if one was opened.
func closeLogRotator() {
	_ = logWriter.RotatingLogWriter.Close()
}

// setLogLevel sets the logging level for provided subsystem.  Invalid
// subsystems are ignored.
func setLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level.
func setLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsystems for stable display.
	sort.Strings(subsystems)
	return subsystems
}

// logClosure is used to provide a closure over expensive logging operations
// so they aren't performed when the logging level doesn't warrant it.
type logClosure func() string

// String invokes the underlying function and returns the result.
func (c logClosure) String() string {
	return c()
}

// newLogClosure returns a new closure over a function that returns a string
// which itself provides a Stringer interface so that it can be used with the
// logging system.
func newLogClosure(c func() string) logClosure {
	return logClosure(c)
}

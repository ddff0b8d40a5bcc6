// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/novaledger/txwallet/internal/cfgutil"
)

const (
	appVersion = "0.1.0"

	defaultConfigFilename = "buildtx.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "buildtx.log"
	defaultMaxLogFiles    = 3
	defaultMaxLogFileSize = 10
	defaultParallel       = 4
)

var (
	buildtxHomeDir    = btcutil.AppDataDir("buildtx", false)
	defaultConfigFile = filepath.Join(buildtxHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(buildtxHomeDir, defaultLogDirname)
)

// errShowAndExit is returned by loadConfig when the command line asked for
// information that has been printed and nothing is left to do.
var errShowAndExit = errors.New("nothing left to do")

type config struct {
	// General application behavior
	ConfigFile     *cfgutil.ExplicitString `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion    bool                    `short:"V" long:"version" description:"Display version information and exit"`
	DebugLevel     string                  `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	LogDir         string                  `long:"logdir" description:"Directory to log output"`
	NoLogFile      bool                    `long:"nologfile" description:"Only log to stderr"`
	MaxLogFiles    int                     `long:"maxlogfiles" description:"Maximum number of rolled log files to keep"`
	MaxLogFileSize int                     `long:"maxlogfilesize" description:"Maximum log file size in MB before it is rolled"`

	// Build options
	Parallel  int                  `short:"j" long:"parallel" description:"Maximum number of request files built concurrently"`
	Remainder *cfgutil.AddressFlag `long:"remainder" description:"Bech32 address receiving the remainder of requests that do not name one"`
	MaxSpend  *cfgutil.AmountFlag  `long:"maxspend" description:"Refuse transactions sending more than this amount to outputs other than remainders, e.g. 10Mi (0 disables)"`
	Compact   bool                 `long:"compact" description:"Print one JSON document per line even when stdout is a terminal"`
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical", "off":
		return true
	}
	return false
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") &&
		!strings.Contains(debugLevel, "=") {

		if !validLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		subsysID, logLevel, found := strings.Cut(logLevelPair, "=")
		if !found {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsystems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		if !validLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The remaining arguments are the request files to build.
func loadConfig(args []string) (*config, []string, error) {
	cfg := config{
		ConfigFile:     cfgutil.NewExplicitString(defaultConfigFile),
		DebugLevel:     defaultLogLevel,
		LogDir:         defaultLogDir,
		MaxLogFiles:    defaultMaxLogFiles,
		MaxLogFileSize: defaultMaxLogFileSize,
		Parallel:       defaultParallel,
		Remainder:      &cfgutil.AddressFlag{},
		MaxSpend:       cfgutil.NewAmountFlag(0),
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			return nil, nil, errShowAndExit
		}
		return nil, nil, err
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", appVersion)
		return nil, nil, errShowAndExit
	}

	// Load additional config from file.  A missing default config file is
	// not an error.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default)
	configFile := cfgutil.CleanAndExpandPath(
		preCfg.ConfigFile.Value, buildtxHomeDir,
	)
	err = flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) || preCfg.ConfigFile.ExplicitlySet() {
			return nil, nil, fmt.Errorf("unable to read config "+
				"file: %w", err)
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		return nil, nil, errShowAndExit
	}

	if cfg.Parallel < 1 {
		return nil, nil, fmt.Errorf("parallel must be at least 1, "+
			"got %d", cfg.Parallel)
	}
	if cfg.MaxLogFiles < 0 || cfg.MaxLogFileSize < 1 {
		return nil, nil, fmt.Errorf("invalid log rotation settings: "+
			"maxlogfiles=%d maxlogfilesize=%d", cfg.MaxLogFiles,
			cfg.MaxLogFileSize)
	}

	// Initialize log rotation.  After log rotation has been initialized,
	// the logger variables may be used.
	if !cfg.NoLogFile {
		cfg.LogDir = cfgutil.CleanAndExpandPath(cfg.LogDir, buildtxHomeDir)
		err := initLogRotator(
			filepath.Join(cfg.LogDir, defaultLogFilename),
			cfg.MaxLogFileSize, cfg.MaxLogFiles,
		)
		if err != nil {
			return nil, nil, err
		}
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, nil, err
	}

	// Warn about missing config file after the final command line parse
	// succeeds.  This prevents the warning on help messages and invalid
	// options.
	if configFileError != nil {
		log.Debugf("%v", configFileError)
	}

	if len(remainingArgs) == 0 {
		return nil, nil, errors.New("no request files given")
	}

	return &cfg, remainingArgs, nil
}

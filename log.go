package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btclog"
	"github.com/czh0526/btc-ctv/chain"
	"github.com/czh0526/btc-ctv/ctv"
)

// Loggers per subsystem. A single backend logger is created and all subsystem
// loggers created from it write to stderr, leaving stdout for command output.
var (
	backendLog = btclog.NewBackend(os.Stderr)

	log     = backendLog.Logger("MAIN")
	ctvLog  = backendLog.Logger("CTV")
	chanLog = backendLog.Logger("CHAN")
)

func init() {
	ctv.UseLogger(ctvLog)
	chain.UseLogger(chanLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"MAIN": log,
	"CTV":  ctvLog,
	"CHAN": chanLog,
}

// setLogLevels sets the log level of every subsystem logger. An invalid level
// is rejected.
func setLogLevels(logLevel string) error {
	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		return fmt.Errorf("the specified debug level [%v] is invalid",
			logLevel)
	}

	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
	return nil
}

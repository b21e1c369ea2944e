package main

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "cryptorun-engine"
	version = "v0.1.0"
)

// Exit codes (spec.md §6): 0 success, 1 compile/validation failure,
// 2 runtime failure, 3 insufficient data / preflight failed.
const (
	ExitSuccess         = 0
	ExitCompileFailure  = 1
	ExitRuntimeFailure  = 2
	ExitPreflightFailed = 3
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Run a declarative strategy Play against backtest or live data",
		Version: version,
	}

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newReplayCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a command error to a CLI exit code; commands that
// need a non-default code wrap their error in *exitError.
func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitRuntimeFailure
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func wrapExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

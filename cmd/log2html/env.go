package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, logging, and terminal detection.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
	Logger *logrus.Logger
	Color  bool // Colorize status lines on Stdout
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: newLogger(os.Stderr, os.Getenv("LOG2HTML_LOG_LEVEL")),
		Color:  isTerminal(os.Stdout),
	}
}

// newLogger creates a text logger writing to w at the named level.
// Unknown or empty levels fall back to warn.
func newLogger(w io.Writer, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(parseLogLevel(level))
	return logger
}

// parseLogLevel maps a level name to a logrus level, defaulting to warn.
func parseLogLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}

// logger returns env.Logger, creating a silent one for bare test environments.
func (env *Environment) logger() *logrus.Logger {
	if env.Logger == nil {
		env.Logger = newLogger(io.Discard, "")
	}
	return env.Logger
}

// now returns env.Now(), falling back to the wall clock.
func (env *Environment) now() time.Time {
	if env.Now == nil {
		return time.Now()
	}
	return env.Now()
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}

// Package logging provides watt's diagnostic logging built on charmbracelet/log.
//
// Diagnostics always go to stderr. Test progress and the final report are
// written through the output package so they can be redirected with --log
// without mixing in debug noise.
//
// Setup must be called before New: charmbracelet/log copies the default
// logger's level and formatter into child loggers at creation time.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Setup configures the global logging defaults. Call once during CLI initialization.
// If both verbose and quiet are set, quiet wins.
func Setup(verbose, quiet, jsonFormat bool) {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	if quiet {
		level = log.ErrorLevel
	}

	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if jsonFormat {
		log.SetFormatter(log.JSONFormatter)
	} else {
		log.SetFormatter(log.TextFormatter)
	}
}

// New creates a logger with the given component prefix.
func New(component string) *log.Logger {
	return log.WithPrefix(component)
}

// SetOutput overrides the output writer for the default logger (tests).
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

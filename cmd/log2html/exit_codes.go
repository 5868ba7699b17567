package main

import (
	"errors"
	"os"

	log2html "github.com/alnah/go-log2html"
	"github.com/alnah/go-log2html/internal/config"
	"github.com/alnah/go-log2html/internal/dateutil"
	"github.com/alnah/go-log2html/internal/store"
)

// Exit codes for log2html CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, read/write failure
	ExitStore   = 4 // Settings database errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Settings store errors (exit 4)
	if errors.Is(err, store.ErrOpen) ||
		errors.Is(err, store.ErrLocked) ||
		errors.Is(err, store.ErrQuery) {
		return ExitStore
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, log2html.ErrNotFound) ||
		errors.Is(err, log2html.ErrInvalidInput) ||
		errors.Is(err, log2html.ErrInputRead) ||
		errors.Is(err, log2html.ErrOutputWrite) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoLogFiles) ||
		errors.Is(err, ErrOutputDir) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrTooManyRules) ||
		errors.Is(err, config.ErrInvalidField) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, log2html.ErrInvalidScope) ||
		errors.Is(err, log2html.ErrUnknownEncoding) ||
		errors.Is(err, log2html.ErrRuleCompile) ||
		errors.Is(err, log2html.ErrRecordNotFound) ||
		errors.Is(err, log2html.ErrAmbiguousRecord) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidRuleFlag) {
		return ExitUsage
	}

	return ExitGeneral
}

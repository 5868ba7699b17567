package log2html

import "errors"

// Sentinel errors for library operations.
var (
	// Conversion job errors.
	ErrNotFound     = errors.New("input file not found")
	ErrInvalidInput = errors.New("invalid input file")
	ErrInputRead    = errors.New("failed to read input file")
	ErrOutputWrite  = errors.New("failed to write output file")

	// ErrOutputIsInput is always wrapped together with ErrInvalidInput.
	ErrOutputIsInput = errors.New("output file is the input file")

	// Rule compilation errors.
	ErrRuleCompile  = errors.New("failed to compile keyword rules")
	ErrInvalidScope = errors.New("invalid highlight scope")

	// Input decoding errors.
	ErrUnknownEncoding = errors.New("unknown input encoding")

	// History errors.
	ErrRecordNotFound  = errors.New("conversion record not found")
	ErrAmbiguousRecord = errors.New("conversion record ID is ambiguous")
	ErrNilRecord       = errors.New("conversion record cannot be nil")
)

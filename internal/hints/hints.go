// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-log2html/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForStoreOpen returns hints for settings database open errors.
func ForStoreOpen() string {
	var hints []string

	if os.Getenv("LOG2HTML_DB") != "" {
		hints = append(hints, "check that LOG2HTML_DB points to a writable location")
	} else {
		hints = append(hints, "use --db /path/to/settings.db")
	}

	if IsInContainer() {
		hints = append(hints, "mount a volume for the database in Docker")
	}

	return formatHints(hints)
}

// ForStoreLocked returns a hint when another process holds the settings lock.
func ForStoreLocked() string {
	return format("another log2html process is saving settings; retry, or use --db for a separate database")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-log2html/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepath.ToSlash(p), "/go-log2html/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForInputNotFound suggests a likely intended file when path has no
// extension and a ".log" sibling exists.
func ForInputNotFound(path string) string {
	if filepath.Ext(path) == "" && fileutil.FileExists(path+".log") {
		return format("did you mean " + path + ".log?")
	}
	return format("check the path, or pass a directory to convert every log file in it")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForOutputIsInput returns a hint when an input already has the output
// extension and would be overwritten.
func ForOutputIsInput() string {
	return format("use -o to write the document to another directory, or rename the input")
}

// ForUnknownEncoding returns hints listing common encoding names.
func ForUnknownEncoding() string {
	return format("use auto, utf-8, utf-16le, utf-16be, windows-1252, iso-8859-1, shift_jis or another WHATWG label")
}

// ForRecordNotFound returns a hint for unknown history record IDs.
func ForRecordNotFound() string {
	return format("run 'log2html history' to list record IDs")
}

// ForAmbiguousRecord returns a hint for ID prefixes matching several records.
func ForAmbiguousRecord() string {
	return format("type more characters of the record ID")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}

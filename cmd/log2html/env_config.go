package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alnah/go-log2html/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // LOG2HTML_CONFIG: config file name or path
	DBPath     string // LOG2HTML_DB: settings database path
	OutputDir  string // LOG2HTML_OUTPUT_DIR: default output directory
	Encoding   string // LOG2HTML_ENCODING: input encoding
	LogLevel   string // LOG2HTML_LOG_LEVEL: debug, info, warn, error
}

// knownEnvVars lists valid LOG2HTML_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"LOG2HTML_CONFIG":     true,
	"LOG2HTML_DB":         true,
	"LOG2HTML_OUTPUT_DIR": true,
	"LOG2HTML_ENCODING":   true,
	"LOG2HTML_LOG_LEVEL":  true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	return &envConfig{
		ConfigPath: os.Getenv("LOG2HTML_CONFIG"),
		DBPath:     os.Getenv("LOG2HTML_DB"),
		OutputDir:  os.Getenv("LOG2HTML_OUTPUT_DIR"),
		Encoding:   os.Getenv("LOG2HTML_ENCODING"),
		LogLevel:   os.Getenv("LOG2HTML_LOG_LEVEL"),
	}
}

// warnUnknownEnvVars prints warnings for unrecognized LOG2HTML_* variables.
// Helps catch typos like LOG2HTML_OUTPUTDIR instead of LOG2HTML_OUTPUT_DIR.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "LOG2HTML_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty.
// This ensures: CLI flags > env vars > config file > stored settings
// (CLI flags are applied later).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Encoding != "" && cfg.Input.Encoding == "" {
		cfg.Input.Encoding = env.Encoding
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log2html "github.com/alnah/go-log2html"
	"github.com/alnah/go-log2html/internal/dateutil"
	"github.com/alnah/go-log2html/internal/fileutil"
	"github.com/alnah/go-log2html/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrTooManyRules    = errors.New("too many keyword rules")
	ErrInvalidField    = errors.New("invalid config field")
)

// Field length limits.
const (
	MaxPathLength       = 4096 // Directory paths
	MaxKeywordLength    = 256  // One keyword
	MaxColorLength      = 32   // "#AARRGGBB" or a CSS color name
	MaxEncodingLength   = 40   // WHATWG label
	MaxExtensionLength  = 16   // ".log"
	MaxExtensions       = 32
	MaxRules            = 500
	MaxDateFormatLength = dateutil.MaxDateFormatLength
)

// DefaultExtensions lists the file extensions picked up when converting a directory.
var DefaultExtensions = []string{".log", ".txt"}

// Config is the YAML configuration file. Every section is optional; unset
// values leave the stored settings untouched when the config is applied.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Matching MatchingConfig `yaml:"matching"`
	Theme    ThemeConfig    `yaml:"theme"`
	Rules    []RuleConfig   `yaml:"rules"`
	History  HistoryConfig  `yaml:"history"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string   `yaml:"defaultDir,omitempty"` // Default input directory (empty = must specify)
	Encoding   string   `yaml:"encoding,omitempty"`   // "auto" or a WHATWG label (empty = auto)
	Extensions []string `yaml:"extensions,omitempty"` // Directory scan filter (empty = .log, .txt)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir,omitempty"` // Default output directory (empty = same as source)
}

// MatchingConfig defines global matching flags. Nil means "not set".
type MatchingConfig struct {
	WholeWordOnly *bool `yaml:"wholeWordOnly,omitempty"`
	IgnoreCase    *bool `yaml:"ignoreCase,omitempty"`
}

// ThemeConfig defines page colors.
type ThemeConfig struct {
	Background string `yaml:"background,omitempty"`
	Foreground string `yaml:"foreground,omitempty"`
}

// RuleConfig is one keyword rule. Rule order in the file is rule priority.
type RuleConfig struct {
	Keyword       string `yaml:"keyword"`
	Color         string `yaml:"color"`
	Scope         string `yaml:"scope,omitempty"`         // "word" (default) or "line"
	CaseSensitive *bool  `yaml:"caseSensitive,omitempty"` // Overrides matching.ignoreCase
}

// HistoryConfig defines how conversion history is displayed.
type HistoryConfig struct {
	DateFormat string `yaml:"dateFormat,omitempty"` // dateutil preset or tokens (empty = YYYY-MM-DD HH:mm:ss)
}

// Validate checks field lengths and enumerated values.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}

	if err := validateFieldLength("input.encoding", c.Input.Encoding, MaxEncodingLength); err != nil {
		return err
	}
	if err := log2html.ValidateEncoding(c.Input.Encoding); err != nil {
		return fmt.Errorf("input.encoding: %w", err)
	}

	if len(c.Input.Extensions) > MaxExtensions {
		return fmt.Errorf("%w: input.extensions has %d entries (max %d)", ErrInvalidField, len(c.Input.Extensions), MaxExtensions)
	}
	for i, ext := range c.Input.Extensions {
		field := fmt.Sprintf("input.extensions[%d]", i)
		if err := validateFieldLength(field, ext, MaxExtensionLength); err != nil {
			return err
		}
		if _, err := fileutil.NormalizeExtension(ext); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidField, field, err)
		}
	}

	if err := validateFieldLength("theme.background", c.Theme.Background, MaxColorLength); err != nil {
		return err
	}
	if err := validateFieldLength("theme.foreground", c.Theme.Foreground, MaxColorLength); err != nil {
		return err
	}

	if len(c.Rules) > MaxRules {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyRules, len(c.Rules), MaxRules)
	}
	for i, r := range c.Rules {
		if err := validateFieldLength(fmt.Sprintf("rules[%d].keyword", i), r.Keyword, MaxKeywordLength); err != nil {
			return err
		}
		if err := validateFieldLength(fmt.Sprintf("rules[%d].color", i), r.Color, MaxColorLength); err != nil {
			return err
		}
		if _, err := log2html.ParseScope(r.Scope); err != nil {
			return fmt.Errorf("rules[%d].scope: %w", i, err)
		}
	}

	if c.History.DateFormat != "" {
		if err := validateFieldLength("history.dateFormat", c.History.DateFormat, MaxDateFormatLength); err != nil {
			return err
		}
		if _, err := dateutil.Layout(c.History.DateFormat); err != nil {
			return fmt.Errorf("history.dateFormat: %w", err)
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns an empty configuration that changes nothing when applied.
func DefaultConfig() *Config {
	return &Config{}
}

// KeywordRules converts the rules section. It returns nil when the section is
// absent so callers can fall back to stored rules.
func (c *Config) KeywordRules() ([]log2html.KeywordRule, error) {
	if len(c.Rules) == 0 {
		return nil, nil
	}
	rules := make([]log2html.KeywordRule, 0, len(c.Rules))
	for i, r := range c.Rules {
		scope, err := log2html.ParseScope(r.Scope)
		if err != nil {
			return nil, fmt.Errorf("rules[%d].scope: %w", i, err)
		}
		rules = append(rules, log2html.KeywordRule{
			Keyword:       r.Keyword,
			Color:         r.Color,
			Scope:         scope,
			CaseSensitive: r.CaseSensitive,
		})
	}
	return rules, nil
}

// ApplyOptions overlays the values set in the config onto base.
func (c *Config) ApplyOptions(base log2html.Options) log2html.Options {
	if c.Matching.WholeWordOnly != nil {
		base.WholeWordOnly = *c.Matching.WholeWordOnly
	}
	if c.Matching.IgnoreCase != nil {
		base.IgnoreCase = *c.Matching.IgnoreCase
	}
	if c.Theme.Background != "" {
		base.Theme.Background = c.Theme.Background
	}
	if c.Theme.Foreground != "" {
		base.Theme.Foreground = c.Theme.Foreground
	}
	if c.Input.Encoding != "" {
		base.Encoding = c.Input.Encoding
	}
	return base
}

// Extensions returns the normalized directory scan filter.
func (c *Config) Extensions() []string {
	if len(c.Input.Extensions) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	out := make([]string, 0, len(c.Input.Extensions))
	for _, ext := range c.Input.Extensions {
		if norm, err := fileutil.NormalizeExtension(ext); err == nil {
			out = append(out, norm)
		}
	}
	return out
}

// FromSettings builds a complete config describing rules and opts, suitable
// for export and later import.
func FromSettings(rules []log2html.KeywordRule, opts log2html.Options) *Config {
	wholeWord, ignoreCase := opts.WholeWordOnly, opts.IgnoreCase
	cfg := &Config{
		Input:    InputConfig{Encoding: opts.Encoding},
		Matching: MatchingConfig{WholeWordOnly: &wholeWord, IgnoreCase: &ignoreCase},
		Theme:    ThemeConfig{Background: opts.Theme.Background, Foreground: opts.Theme.Foreground},
		Rules:    make([]RuleConfig, 0, len(rules)),
	}
	for _, r := range rules {
		cfg.Rules = append(cfg.Rules, RuleConfig{
			Keyword:       r.Keyword,
			Color:         r.Color,
			Scope:         r.Scope.String(),
			CaseSensitive: r.CaseSensitive,
		})
	}
	return cfg
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yamlutil.Encode(c)
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var cfg Config
	if err := yamlutil.ReadStrict(f, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths lists, in lookup order, where a config name is searched:
// the current directory, then the user config directory.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-log2html", name+ext))
		}
	}

	return paths
}

// resolveConfigPath returns the first existing path from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

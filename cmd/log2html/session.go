package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	log2html "github.com/alnah/go-log2html"
	"github.com/alnah/go-log2html/internal/config"
	"github.com/alnah/go-log2html/internal/hints"
	"github.com/alnah/go-log2html/internal/store"
)

// session holds what a command needs after configuration is resolved.
// Settings come from the store (or built-in defaults), overlaid by the
// config file, then by command-line flags.
type session struct {
	env     *Environment
	cfg     *config.Config
	store   *store.Store // nil with --no-store
	rules   []log2html.KeywordRule
	options log2html.Options
	history log2html.History
}

// Close releases the store, if any.
func (s *session) Close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.env.logger().WithError(err).Warn("failed to close settings store")
	}
}

// loadConfig loads the config named by the flag or LOG2HTML_CONFIG and
// applies environment overrides. No name means an empty config.
func loadConfig(flagValue string, envCfg *envConfig) (*config.Config, error) {
	name := flagValue
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, nil
}

// openStore opens the database named by --db, LOG2HTML_DB, or the default
// location, in that order.
func openStore(ctx context.Context, flagValue string, envCfg *envConfig, env *Environment) (*store.Store, error) {
	path := flagValue
	if path == "" {
		path = envCfg.DBPath
	}
	if path == "" {
		var err error
		path, err = store.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("%w%s", err, hints.ForStoreOpen())
		}
	}

	st, err := store.Open(ctx, path, store.WithLogger(env.logger()))
	if err != nil {
		return nil, withStoreHint(err)
	}
	env.logger().WithField("db", path).Debug("settings store opened")
	return st, nil
}

// withStoreHint appends the hint matching a store error.
func withStoreHint(err error) error {
	switch {
	case errors.Is(err, store.ErrLocked):
		return fmt.Errorf("%w%s", err, hints.ForStoreLocked())
	case errors.Is(err, store.ErrOpen):
		return fmt.Errorf("%w%s", err, hints.ForStoreOpen())
	default:
		return err
	}
}

// openSession resolves config, store and flag overlays. cfg may be nil to
// load it from the flags; match may be nil for commands without rule flags.
func openSession(ctx context.Context, env *Environment, cfg *config.Config, common *commonFlags, match *matchFlags) (*session, error) {
	if common.verbose {
		env.logger().SetLevel(logrus.DebugLevel)
	}

	envCfg := loadEnvConfig()
	if cfg == nil {
		var err error
		cfg, err = loadConfig(common.config, envCfg)
		if err != nil {
			return nil, err
		}
	}

	s := &session{
		env:     env,
		cfg:     cfg,
		rules:   log2html.DefaultRules(),
		options: log2html.DefaultOptions(),
	}

	if !common.noStore {
		st, err := openStore(ctx, common.db, envCfg, env)
		if err != nil {
			return nil, err
		}
		settings, err := st.Load(ctx)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		s.store = st
		s.rules = settings.Rules
		s.options = settings.Options
		s.history = settings.History
	}

	fileRules, err := cfg.KeywordRules()
	if err != nil {
		s.Close()
		return nil, err
	}
	if fileRules != nil {
		s.rules = fileRules
	}
	s.options = cfg.ApplyOptions(s.options)

	if match != nil {
		flagRules, err := parseRuleFlags(match.rules)
		if err != nil {
			s.Close()
			return nil, err
		}
		if flagRules != nil {
			s.rules = flagRules
		}
		s.options = applyMatchFlags(match, s.options)
	}

	if err := log2html.ValidateEncoding(s.options.Encoding); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w%s", err, hints.ForUnknownEncoding())
	}

	env.logger().WithFields(logrus.Fields{
		"rules":         len(s.rules),
		"wholeWordOnly": s.options.WholeWordOnly,
		"ignoreCase":    s.options.IgnoreCase,
		"encoding":      s.options.Encoding,
	}).Debug("settings resolved")

	return s, nil
}

// compile builds the RuleSet for this session's rules and options.
func (s *session) compile() (*log2html.RuleSet, error) {
	return log2html.Compile(s.rules, s.options)
}

// converter returns a Converter wired to the session's clock and logger.
func (s *session) converter() *log2html.Converter {
	return log2html.NewConverter(
		log2html.WithClock(s.env.now),
		log2html.WithLogger(s.env.logger()),
	)
}

// record adds rec to the session history, or refreshes the record with the
// same ID, and saves it unless the session has no store.
func (s *session) record(ctx context.Context, rec log2html.ConversionRecord) error {
	if err := s.history.Update(rec); err != nil {
		s.history.Add(rec)
	}
	if s.store == nil {
		return nil
	}
	if err := s.store.PutRecord(ctx, rec); err != nil {
		return withStoreHint(err)
	}
	return nil
}

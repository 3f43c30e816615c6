package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/stellarlinkco/daymate/internal/capitals"
	"github.com/stellarlinkco/daymate/internal/config"
	"github.com/stellarlinkco/daymate/internal/daily"
	"github.com/stellarlinkco/daymate/internal/export"
	"github.com/stellarlinkco/daymate/internal/generate"
	"github.com/stellarlinkco/daymate/internal/knowledge"
	"github.com/stellarlinkco/daymate/internal/logging"
	"github.com/stellarlinkco/daymate/internal/metrics"
	"github.com/stellarlinkco/daymate/internal/router"
	"github.com/stellarlinkco/daymate/internal/session"
)

// BackendFactory creates the generation backend (allows mocking in tests).
// A nil backend switches generation off.
type BackendFactory func(cfg *config.Config) (generate.Backend, error)

// DefaultBackendFactory builds the backend named by provider.type.
func DefaultBackendFactory(cfg *config.Config) (generate.Backend, error) {
	return generate.NewBackend(generate.Config{
		Provider:      cfg.ProviderType(),
		APIKey:        cfg.Provider.APIKey,
		BaseURL:       cfg.Provider.BaseURL,
		Model:         cfg.Provider.Model,
		MaxTokens:     cfg.Provider.MaxTokens,
		MaxIterations: cfg.Provider.MaxIterations,
		Workspace:     cfg.Assistant.Workspace,
		SystemPrompt:  cfg.Provider.SystemPrompt,
		OllamaHost:    cfg.Provider.OllamaHost,
		HTTPURL:       cfg.Provider.URL,
		Fallback:      cfg.Provider.Fallback,
	})
}

func loadConfig() (*config.Config, error) {
	path := configPath()
	cfg, err := config.LoadConfigFrom(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	return config.ConfigPath()
}

// newLogger builds the process logger. Chat mode defaults to a log file so
// log lines never interleave with the conversation on the terminal.
func newLogger(cfg *config.Config, chat bool) (*zap.Logger, error) {
	level := cfg.Log.Level
	if verboseFlag {
		level = "debug"
	}
	file := cfg.Log.File
	if file == "" && chat {
		file = filepath.Join(config.ConfigDir(), "daymate.log")
	}
	return logging.New(level, file)
}

func factsDir(cfg *config.Config) string {
	if cfg.Knowledge.FactsDir != "" {
		return cfg.Knowledge.FactsDir
	}
	return filepath.Join(cfg.Assistant.Workspace, "facts")
}

func buildKnowledge(cfg *config.Config, logger *zap.Logger) (*knowledge.Matcher, error) {
	tables, err := knowledge.LoadFactPacks(factsDir(cfg))
	if err != nil {
		return nil, fmt.Errorf("load fact packs: %w", err)
	}
	if len(tables) > 0 {
		logger.Info("fact packs loaded", zap.Int("tables", len(tables)))
	}
	return knowledge.New(
		knowledge.WithCapitals(capitals.NewClient(cfg.Knowledge.CapitalsURL, cfg.CapitalsTimeout())),
		knowledge.WithFactTables(tables...),
		knowledge.WithLogger(logger),
	), nil
}

// buildBridge wraps the backend and runs the startup readiness check. A
// backend that fails the check leaves the bridge degraded, not an error.
func buildBridge(ctx context.Context, cfg *config.Config, factory BackendFactory, sessionID string, logger *zap.Logger) (*generate.Bridge, error) {
	if factory == nil {
		factory = DefaultBackendFactory
	}
	backend, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create generation backend: %w", err)
	}
	bridge := generate.NewBridge(backend,
		generate.WithTimeout(cfg.GenerateTimeout()),
		generate.WithMaxChars(cfg.Assistant.MaxReplyChars),
		generate.WithSessionID(sessionID),
		generate.WithLogger(logger),
	)
	status := bridge.Initialize(ctx)
	logger.Info("generation", zap.String("backend", bridge.BackendName()), zap.String("status", string(status)))
	return bridge, nil
}

// newChatRouter assembles the single-session router used by the chat REPL.
func newChatRouter(cfg *config.Config, km *knowledge.Matcher, gen generate.Generator, logger *zap.Logger) (*router.Router, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	mem, err := session.New(session.Options{
		Capacity:     cfg.Assistant.HistoryLimit,
		ContextTurns: cfg.Assistant.ContextTurns,
	})
	if err != nil {
		return nil, err
	}
	return router.New(router.Options{
		Memory:    mem,
		Daily:     daily.New(daily.Options{Location: loc, Logger: logger}),
		Knowledge: km,
		Generator: gen,
		Exporter:  export.NewWriter(cfg.Assistant.ExportDir),
		Metrics:   metrics.New(),
		Logger:    logger,
	})
}

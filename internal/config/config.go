package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultModel           = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens       = 1024
	DefaultMaxIterations   = 4
	DefaultHistoryLimit    = 100
	DefaultContextTurns    = 3
	DefaultGenerateTimeout = "8s"
	DefaultMaxReplyChars   = 400
	DefaultCapitalsURL     = "https://restcountries.com/v3.1"
	DefaultCapitalsTimeout = "5s"
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 18790
	DefaultTickInterval    = "30s"
	DefaultTipSchedule     = "0 9 * * *"
	DefaultLogLevel        = "info"
)

var providerTypes = []string{"anthropic", "openai", "ollama", "http", "mock", "none"}

type Config struct {
	Assistant AssistantConfig `json:"assistant"`
	Provider  ProviderConfig  `json:"provider"`
	Knowledge KnowledgeConfig `json:"knowledge"`
	Channels  ChannelsConfig  `json:"channels"`
	Gateway   GatewayConfig   `json:"gateway"`
	Log       LogConfig       `json:"log"`
}

type AssistantConfig struct {
	Workspace string `json:"workspace"`
	// Timezone is an IANA name; empty means the system zone.
	Timezone        string `json:"timezone,omitempty"`
	HistoryLimit    int    `json:"historyLimit"`
	ContextTurns    int    `json:"contextTurns"`
	GenerateTimeout string `json:"generateTimeout"`
	MaxReplyChars   int    `json:"maxReplyChars"`
	ExportDir       string `json:"exportDir,omitempty"`
}

type ProviderConfig struct {
	Type          string `json:"type,omitempty"` // anthropic, openai, ollama, http, mock or none
	APIKey        string `json:"apiKey"`
	BaseURL       string `json:"baseUrl,omitempty"`
	Model         string `json:"model,omitempty"`
	MaxTokens     int    `json:"maxTokens,omitempty"`
	MaxIterations int    `json:"maxIterations,omitempty"`
	OllamaHost    string `json:"ollamaHost,omitempty"`
	URL           string `json:"url,omitempty"`
	Fallback      string `json:"fallback,omitempty"`
	SystemPrompt  string `json:"systemPrompt,omitempty"`
}

type KnowledgeConfig struct {
	FactsDir        string `json:"factsDir,omitempty"`
	CapitalsURL     string `json:"capitalsUrl"`
	CapitalsTimeout string `json:"capitalsTimeout"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

type GatewayConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	TickInterval string `json:"tickInterval"`
	// TipSchedule is a cron spec for the daily tip broadcast; empty disables it.
	TipSchedule string `json:"tipSchedule,omitempty"`
}

type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file,omitempty"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Assistant: AssistantConfig{
			Workspace:       filepath.Join(home, ".daymate", "workspace"),
			HistoryLimit:    DefaultHistoryLimit,
			ContextTurns:    DefaultContextTurns,
			GenerateTimeout: DefaultGenerateTimeout,
			MaxReplyChars:   DefaultMaxReplyChars,
		},
		Provider: ProviderConfig{
			Model:         DefaultModel,
			MaxTokens:     DefaultMaxTokens,
			MaxIterations: DefaultMaxIterations,
		},
		Knowledge: KnowledgeConfig{
			CapitalsURL:     DefaultCapitalsURL,
			CapitalsTimeout: DefaultCapitalsTimeout,
		},
		Gateway: GatewayConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			TickInterval: DefaultTickInterval,
			TipSchedule:  DefaultTipSchedule,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".daymate")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(ConfigPath())
}

// LoadConfigFrom reads path when it exists, then applies environment
// overrides and fills defaults for fields left empty.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	fillDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if key := os.Getenv("DAYMATE_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_AUTH_TOKEN"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = "openai"
		}
	}
	if t := os.Getenv("DAYMATE_PROVIDER"); t != "" {
		cfg.Provider.Type = t
	}
	if model := os.Getenv("DAYMATE_MODEL"); model != "" {
		cfg.Provider.Model = model
	}
	if url := os.Getenv("DAYMATE_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if url := os.Getenv("ANTHROPIC_BASE_URL"); url != "" && cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = url
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" && cfg.Provider.OllamaHost == "" {
		cfg.Provider.OllamaHost = host
	}
	if token := os.Getenv("DAYMATE_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if tz := os.Getenv("DAYMATE_TIMEZONE"); tz != "" {
		cfg.Assistant.Timezone = tz
	}
	if limit := os.Getenv("DAYMATE_HISTORY_LIMIT"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			cfg.Assistant.HistoryLimit = parsed
		}
	}
	if timeout := os.Getenv("DAYMATE_GENERATE_TIMEOUT"); timeout != "" {
		cfg.Assistant.GenerateTimeout = timeout
	}
	if dir := os.Getenv("DAYMATE_FACTS_DIR"); dir != "" {
		cfg.Knowledge.FactsDir = dir
	}
	if url := os.Getenv("DAYMATE_CAPITALS_URL"); url != "" {
		cfg.Knowledge.CapitalsURL = url
	}
	if level := os.Getenv("DAYMATE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

func fillDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Assistant.Workspace == "" {
		cfg.Assistant.Workspace = def.Assistant.Workspace
	}
	if cfg.Assistant.GenerateTimeout == "" {
		cfg.Assistant.GenerateTimeout = DefaultGenerateTimeout
	}
	if cfg.Assistant.ExportDir == "" {
		cfg.Assistant.ExportDir = filepath.Join(cfg.Assistant.Workspace, "exports")
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModel
	}
	if cfg.Knowledge.CapitalsURL == "" {
		cfg.Knowledge.CapitalsURL = DefaultCapitalsURL
	}
	if cfg.Knowledge.CapitalsTimeout == "" {
		cfg.Knowledge.CapitalsTimeout = DefaultCapitalsTimeout
	}
	if cfg.Gateway.TickInterval == "" {
		cfg.Gateway.TickInterval = DefaultTickInterval
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

// ProviderType resolves the generation backend. Without an explicit type, an
// API key selects anthropic and no key switches generation off.
func (c *Config) ProviderType() string {
	if t := strings.ToLower(strings.TrimSpace(c.Provider.Type)); t != "" {
		return t
	}
	if c.Provider.APIKey != "" {
		return "anthropic"
	}
	return "none"
}

func (c *Config) GenerateTimeout() time.Duration {
	return parseDurationOr(c.Assistant.GenerateTimeout, 8*time.Second)
}

func (c *Config) CapitalsTimeout() time.Duration {
	return parseDurationOr(c.Knowledge.CapitalsTimeout, 5*time.Second)
}

func (c *Config) TickInterval() time.Duration {
	return parseDurationOr(c.Gateway.TickInterval, 30*time.Second)
}

// Location loads the configured zone, or time.Local when none is set.
func (c *Config) Location() (*time.Location, error) {
	if c.Assistant.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Assistant.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Assistant.Timezone, err)
	}
	return loc, nil
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate reports every setting that would make a component misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Assistant.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("assistant.historyLimit must be positive, got %d", c.Assistant.HistoryLimit))
	}
	if c.Assistant.ContextTurns <= 0 {
		errs = append(errs, fmt.Errorf("assistant.contextTurns must be positive, got %d", c.Assistant.ContextTurns))
	}
	if c.Assistant.MaxReplyChars < 0 {
		errs = append(errs, fmt.Errorf("assistant.maxReplyChars must not be negative, got %d", c.Assistant.MaxReplyChars))
	}
	for name, value := range map[string]string{
		"assistant.generateTimeout": c.Assistant.GenerateTimeout,
		"knowledge.capitalsTimeout": c.Knowledge.CapitalsTimeout,
		"gateway.tickInterval":      c.Gateway.TickInterval,
	} {
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, value))
		}
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	provider := c.ProviderType()
	known := false
	for _, p := range providerTypes {
		known = known || p == provider
	}
	if !known {
		errs = append(errs, fmt.Errorf("provider.type %q is not one of %s", c.Provider.Type, strings.Join(providerTypes, ", ")))
	}
	if provider == "http" && c.Provider.URL == "" {
		errs = append(errs, errors.New("provider.url is required for the http provider"))
	}

	if c.Channels.Telegram.Enabled && c.Channels.Telegram.Token == "" {
		errs = append(errs, errors.New("channels.telegram.token is required when telegram is enabled"))
	}
	if c.Gateway.Port < 0 || c.Gateway.Port > 65535 {
		errs = append(errs, fmt.Errorf("gateway.port %d out of range", c.Gateway.Port))
	}
	if c.Gateway.TipSchedule != "" {
		if _, err := rcron.ParseStandard(c.Gateway.TipSchedule); err != nil {
			errs = append(errs, fmt.Errorf("gateway.tipSchedule: %w", err))
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

func SaveConfig(cfg *Config) error {
	return SaveConfigTo(ConfigPath(), cfg)
}

func SaveConfigTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

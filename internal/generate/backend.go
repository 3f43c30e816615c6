package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultSystemPrompt = "You are DayMate, a friendly assistant for everyday life. Reply in one to three short sentences."

// Config selects and configures a backend.
type Config struct {
	// Provider is one of anthropic, openai, ollama, http, mock or none.
	Provider      string
	APIKey        string
	BaseURL       string
	Model         string
	MaxTokens     int
	MaxIterations int
	Workspace     string
	SystemPrompt  string
	OllamaHost    string
	HTTPURL       string
	// Fallback optionally names a second provider tried when the first
	// fails, e.g. a local ollama behind a hosted model.
	Fallback string

	HTTPClient     *http.Client
	RuntimeFactory RuntimeFactory
}

// NewBackend builds the configured backend. A nil backend with a nil error
// means generation is switched off.
func NewBackend(cfg Config) (Backend, error) {
	primary, err := newSingle(cfg.Provider, cfg)
	if err != nil {
		return nil, err
	}
	fallback := strings.ToLower(strings.TrimSpace(cfg.Fallback))
	if fallback == "" || fallback == "none" || primary == nil {
		return primary, nil
	}
	secondary, err := newSingle(fallback, cfg)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return NewFallback(primary, secondary), nil
}

func newSingle(provider string, cfg Config) (Backend, error) {
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "none", "off":
		return nil, nil
	case "anthropic", "openai":
		return NewAgentBackend(cfg), nil
	case "ollama":
		return NewOllamaBackend(cfg.OllamaHost, cfg.Model, cfg.SystemPrompt, cfg.HTTPClient)
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("http provider requires a url")
		}
		return NewHTTPBackend(cfg.HTTPURL, cfg.HTTPClient), nil
	case "mock":
		return NewMockBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}

// composePrompt renders the context window ahead of the new message.
func composePrompt(req Request) string {
	if strings.TrimSpace(req.Context) == "" {
		return req.Prompt
	}
	return req.Context + "\nUser: " + req.Prompt + "\nAssistant:"
}

// MockBackend answers without any model. Useful for demos and tests.
type MockBackend struct {
	Reply func(req Request) (string, error)
}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) Ping(context.Context) error { return nil }

func (m *MockBackend) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Reply != nil {
		return m.Reply(req)
	}
	return "I hear you. Tell me more about " + strings.TrimRight(strings.TrimSpace(req.Prompt), ".!?") + ".", nil
}

func (m *MockBackend) Close() error { return nil }

// Fallback tries primary first and the secondary on any error other than
// cancellation of the caller's context.
type Fallback struct {
	primary   Backend
	secondary Backend
}

func NewFallback(primary, secondary Backend) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

// Ping succeeds when either backend is usable.
func (f *Fallback) Ping(ctx context.Context) error {
	errPrimary := f.primary.Ping(ctx)
	if errPrimary == nil {
		return nil
	}
	if errSecondary := f.secondary.Ping(ctx); errSecondary != nil {
		return fmt.Errorf("primary: %w; fallback: %v", errPrimary, errSecondary)
	}
	return nil
}

func (f *Fallback) Complete(ctx context.Context, req Request) (string, error) {
	text, err := f.primary.Complete(ctx, req)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return "", err
	}
	fallbackText, fallbackErr := f.secondary.Complete(ctx, req)
	if fallbackErr != nil {
		return "", fmt.Errorf("primary backend error: %w; fallback backend error: %v", err, fallbackErr)
	}
	return fallbackText, nil
}

func (f *Fallback) Close() error {
	return errors.Join(f.primary.Close(), f.secondary.Close())
}

func defaultHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: 60 * time.Second}
}

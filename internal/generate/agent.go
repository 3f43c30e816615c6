package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cexll/agentsdk-go/pkg/api"
	"github.com/cexll/agentsdk-go/pkg/model"
)

// Runtime interface for agent runtime (allows mocking in tests)
type Runtime interface {
	Run(ctx context.Context, req api.Request) (*api.Response, error)
	Close()
}

type runtimeAdapter struct {
	rt *api.Runtime
}

func (r *runtimeAdapter) Run(ctx context.Context, req api.Request) (*api.Response, error) {
	return r.rt.Run(ctx, req)
}

func (r *runtimeAdapter) Close() {
	r.rt.Close()
}

// RuntimeFactory creates a Runtime instance
type RuntimeFactory func(cfg Config) (Runtime, error)

var errMissingAPIKey = errors.New("missing API key")

const defaultMaxIterations = 4

// DefaultRuntimeFactory creates the agentsdk-go runtime for anthropic or
// openai models.
func DefaultRuntimeFactory(cfg Config) (Runtime, error) {
	var provider api.ModelFactory
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		provider = &model.OpenAIProvider{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			ModelName: cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}
	default: // "anthropic"
		provider = &model.AnthropicProvider{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			ModelName: cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}
	}

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}
	rt, err := api.New(context.Background(), api.Options{
		ProjectRoot:   cfg.Workspace,
		ModelFactory:  provider,
		SystemPrompt:  cfg.SystemPrompt,
		MaxIterations: maxIter,
	})
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	return &runtimeAdapter{rt: rt}, nil
}

// AgentBackend delegates to an agentsdk-go runtime. The runtime is created
// on the first Ping so constructing the backend never touches the network.
type AgentBackend struct {
	cfg     Config
	factory RuntimeFactory

	mu sync.Mutex
	rt Runtime
}

func NewAgentBackend(cfg Config) *AgentBackend {
	factory := cfg.RuntimeFactory
	if factory == nil {
		factory = DefaultRuntimeFactory
	}
	return &AgentBackend{cfg: cfg, factory: factory}
}

func (a *AgentBackend) Name() string {
	if strings.EqualFold(a.cfg.Provider, "openai") {
		return "openai"
	}
	return "anthropic"
}

func (a *AgentBackend) Ping(context.Context) error {
	_, err := a.runtime()
	return err
}

func (a *AgentBackend) runtime() (Runtime, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rt != nil {
		return a.rt, nil
	}
	if strings.TrimSpace(a.cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: %w", a.Name(), errMissingAPIKey)
	}
	rt, err := a.factory(a.cfg)
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return rt, nil
}

func (a *AgentBackend) Complete(ctx context.Context, req Request) (string, error) {
	rt, err := a.runtime()
	if err != nil {
		return "", err
	}
	resp, err := rt.Run(ctx, api.Request{
		Prompt:    composePrompt(req),
		SessionID: req.SessionID,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Result == nil {
		return "", ErrEmptyResponse
	}
	return resp.Result.Output, nil
}

func (a *AgentBackend) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rt != nil {
		a.rt.Close()
		a.rt = nil
	}
	return nil
}

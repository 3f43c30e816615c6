package generate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

const DefaultOllamaModel = "llama3.2"

// OllamaBackend calls a local ollama server's generate endpoint.
type OllamaBackend struct {
	client *ollama.Client
	model  string
	system string
}

// NewOllamaBackend connects to host, or to OLLAMA_HOST / localhost:11434
// when host is empty.
func NewOllamaBackend(host, model, system string, httpClient *http.Client) (*OllamaBackend, error) {
	var client *ollama.Client
	if strings.TrimSpace(host) == "" {
		c, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(strings.TrimRight(strings.TrimSpace(host), "/"))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid ollama host %q", host)
		}
		client = ollama.NewClient(u, defaultHTTPClient(httpClient))
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultOllamaModel
	}
	return &OllamaBackend{client: client, model: model, system: system}, nil
}

func (o *OllamaBackend) Name() string { return "ollama" }

func (o *OllamaBackend) Ping(ctx context.Context) error {
	if err := o.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama heartbeat: %w", err)
	}
	return nil
}

func (o *OllamaBackend) Complete(ctx context.Context, req Request) (string, error) {
	stream := false
	var out strings.Builder
	err := o.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  o.model,
		Prompt: composePrompt(req),
		System: o.system,
		Stream: &stream,
	}, func(resp ollama.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}

func (o *OllamaBackend) Close() error { return nil }

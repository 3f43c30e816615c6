package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/cexll/agentsdk-go/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	output string
	err    error
	reqs   []api.Request
	closed bool
}

func (f *fakeRuntime) Run(_ context.Context, req api.Request) (*api.Response, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &api.Response{Result: &api.Result{Output: f.output}}, nil
}

func (f *fakeRuntime) Close() { f.closed = true }

func TestAgentBackend_MissingKey(t *testing.T) {
	created := 0
	a := NewAgentBackend(Config{Provider: "anthropic", RuntimeFactory: func(Config) (Runtime, error) {
		created++
		return &fakeRuntime{}, nil
	}})

	err := a.Ping(context.Background())
	assert.ErrorIs(t, err, errMissingAPIKey)
	assert.Zero(t, created, "runtime is not created without credentials")
}

func TestAgentBackend_RunsRuntime(t *testing.T) {
	rt := &fakeRuntime{output: "Here's a plan."}
	var gotCfg Config
	a := NewAgentBackend(Config{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini", RuntimeFactory: func(cfg Config) (Runtime, error) {
		gotCfg = cfg
		return rt, nil
	}})
	assert.Equal(t, "openai", a.Name())

	require.NoError(t, a.Ping(context.Background()))
	require.NoError(t, a.Ping(context.Background()))
	assert.Equal(t, "gpt-4o-mini", gotCfg.Model)

	text, err := a.Complete(context.Background(), Request{Prompt: "plan my day", SessionID: "s-9"})
	require.NoError(t, err)
	assert.Equal(t, "Here's a plan.", text)
	require.Len(t, rt.reqs, 1)
	assert.Equal(t, "plan my day", rt.reqs[0].Prompt)
	assert.Equal(t, "s-9", rt.reqs[0].SessionID)

	require.NoError(t, a.Close())
	assert.True(t, rt.closed)
}

func TestAgentBackend_Errors(t *testing.T) {
	factoryErr := errors.New("bad model")
	a := NewAgentBackend(Config{Provider: "anthropic", APIKey: "k", RuntimeFactory: func(Config) (Runtime, error) {
		return nil, factoryErr
	}})
	assert.ErrorIs(t, a.Ping(context.Background()), factoryErr)

	runErr := errors.New("rate limited")
	a = NewAgentBackend(Config{Provider: "anthropic", APIKey: "k", RuntimeFactory: func(Config) (Runtime, error) {
		return &fakeRuntime{err: runErr}, nil
	}})
	_, err := a.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, runErr)
}

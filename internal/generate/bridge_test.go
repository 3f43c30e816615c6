package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name     string
	pingErr  error
	reply    string
	err      error
	delay    time.Duration
	requests []Request
	closed   bool
}

func (f *fakeBackend) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeBackend) Ping(context.Context) error { return f.pingErr }

func (f *fakeBackend) Complete(ctx context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func TestBridge_NotInitializedIsNotReady(t *testing.T) {
	backend := &fakeBackend{reply: "hi"}
	b := NewBridge(backend)

	assert.Equal(t, StatusDegraded, b.Status())
	_, err := b.Generate(context.Background(), "hello", "")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, backend.requests)
}

func TestBridge_InitializeReady(t *testing.T) {
	backend := &fakeBackend{reply: "sure, happy to help."}
	b := NewBridge(backend, WithSessionID("s-1"))

	require.Equal(t, StatusReady, b.Initialize(context.Background()))
	assert.NoError(t, b.LastError())

	text, err := b.Generate(context.Background(), "can you help?", "User: hi\nAssistant: hello")
	require.NoError(t, err)
	assert.Equal(t, "Sure, happy to help.", text)
	require.Len(t, backend.requests, 1)
	assert.Equal(t, Request{Prompt: "can you help?", Context: "User: hi\nAssistant: hello", SessionID: "s-1"}, backend.requests[0])
}

func TestBridge_InitializeDegraded(t *testing.T) {
	pingErr := errors.New("connection refused")
	b := NewBridge(&fakeBackend{pingErr: pingErr})

	assert.Equal(t, StatusDegraded, b.Initialize(context.Background()))
	assert.ErrorIs(t, b.LastError(), pingErr)
	_, err := b.Generate(context.Background(), "hello", "")
	assert.ErrorIs(t, err, ErrNotReady)

	nilBridge := NewBridge(nil)
	assert.Equal(t, StatusDegraded, nilBridge.Initialize(context.Background()))
	assert.Equal(t, "none", nilBridge.BackendName())
	assert.NoError(t, nilBridge.Close())
}

func TestBridge_Timeout(t *testing.T) {
	b := NewBridge(&fakeBackend{reply: "late", delay: time.Second}, WithTimeout(20*time.Millisecond))
	require.Equal(t, StatusReady, b.Initialize(context.Background()))

	start := time.Now()
	_, err := b.Generate(context.Background(), "hello", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestBridge_BackendErrorAndEmptyReply(t *testing.T) {
	backendErr := errors.New("model overloaded")
	b := NewBridge(&fakeBackend{err: backendErr})
	require.Equal(t, StatusReady, b.Initialize(context.Background()))
	_, err := b.Generate(context.Background(), "hello", "")
	assert.ErrorIs(t, err, backendErr)

	b = NewBridge(&fakeBackend{reply: "  Assistant:  "})
	require.Equal(t, StatusReady, b.Initialize(context.Background()))
	_, err = b.Generate(context.Background(), "hello", "")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestBridge_Close(t *testing.T) {
	backend := &fakeBackend{}
	b := NewBridge(backend)
	require.NoError(t, b.Close())
	assert.True(t, backend.closed)
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	primary := &fakeBackend{name: "a", err: errors.New("down")}
	secondary := &fakeBackend{name: "b", reply: "from b"}
	f := NewFallback(primary, secondary)

	assert.Equal(t, "a+b", f.Name())
	text, err := f.Complete(ctx, Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "from b", text)

	secondary.err = errors.New("also down")
	_, err = f.Complete(ctx, Request{Prompt: "x"})
	assert.ErrorIs(t, err, primary.err)
	assert.Contains(t, err.Error(), "also down")

	primary.pingErr = errors.New("no key")
	assert.NoError(t, f.Ping(ctx), "secondary keeps the pair usable")
	secondary.pingErr = errors.New("unreachable")
	assert.ErrorIs(t, f.Ping(ctx), primary.pingErr)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	calls := len(secondary.requests)
	primary.err = context.Canceled
	_, err = f.Complete(cancelled, Request{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, secondary.requests, calls, "no fallback after cancellation")

	require.NoError(t, f.Close())
	assert.True(t, primary.closed)
	assert.True(t, secondary.closed)
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(Config{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = NewBackend(Config{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", b.Name())

	b, err = NewBackend(Config{Provider: "Anthropic"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", b.Name())

	b, err = NewBackend(Config{Provider: "openai", Fallback: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "openai+mock", b.Name())

	b, err = NewBackend(Config{Provider: "ollama", OllamaHost: "http://127.0.0.1:11434"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", b.Name())

	_, err = NewBackend(Config{Provider: "http"})
	assert.Error(t, err)
	_, err = NewBackend(Config{Provider: "ollama", OllamaHost: "not a url"})
	assert.Error(t, err)
	_, err = NewBackend(Config{Provider: "gpt-9000"})
	assert.Error(t, err)
	_, err = NewBackend(Config{Provider: "mock", Fallback: "nope"})
	assert.Error(t, err)
}

func TestMockBackend(t *testing.T) {
	m := NewMockBackend()
	text, err := m.Complete(context.Background(), Request{Prompt: "my garden!"})
	require.NoError(t, err)
	assert.Equal(t, "I hear you. Tell me more about my garden.", text)

	m.Reply = func(req Request) (string, error) { return "custom:" + req.Prompt, nil }
	text, _ = m.Complete(context.Background(), Request{Prompt: "x"})
	assert.Equal(t, "custom:x", text)
}

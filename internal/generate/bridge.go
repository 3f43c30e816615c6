// Package generate is the optional text-generation tier. A Bridge wraps one
// Backend, tracks whether it initialised, bounds every call with a timeout and
// cleans the raw completion before it reaches the user.
package generate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusReady    Status = "ready"
	StatusDegraded Status = "degraded"
)

const DefaultTimeout = 8 * time.Second

var (
	ErrNotReady      = errors.New("generator not ready")
	ErrEmptyResponse = errors.New("empty generation")
)

// Generator is what the router depends on.
type Generator interface {
	Generate(ctx context.Context, prompt, history string) (string, error)
}

// Request is the backend-facing form of one generation.
type Request struct {
	Prompt    string
	Context   string
	SessionID string
}

// Backend is a concrete completion provider.
type Backend interface {
	Name() string
	// Ping verifies the backend can serve requests (credentials present,
	// server reachable, runtime created).
	Ping(ctx context.Context) error
	Complete(ctx context.Context, req Request) (string, error)
	Close() error
}

type Bridge struct {
	backend   Backend
	timeout   time.Duration
	maxChars  int
	sessionID string
	logger    *zap.Logger

	mu      sync.RWMutex
	status  Status
	lastErr error
}

type Option func(*Bridge)

// WithTimeout bounds Initialize and each Generate call.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithMaxChars sets the length above which replies are cut to two
// sentences. Zero disables the cut.
func WithMaxChars(n int) Option {
	return func(b *Bridge) { b.maxChars = n }
}

func WithSessionID(id string) Option {
	return func(b *Bridge) { b.sessionID = id }
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

func NewBridge(backend Backend, opts ...Option) *Bridge {
	b := &Bridge{
		backend:  backend,
		timeout:  DefaultTimeout,
		maxChars: DefaultMaxChars,
		logger:   zap.NewNop(),
		status:   StatusDegraded,
		lastErr:  ErrNotReady,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Initialize pings the backend once. The bridge stays degraded on failure
// and every Generate call returns ErrNotReady.
func (b *Bridge) Initialize(ctx context.Context) Status {
	if b.backend == nil {
		b.setStatus(StatusDegraded, ErrNotReady)
		return StatusDegraded
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.backend.Ping(ctx); err != nil {
		b.logger.Warn("generation backend unavailable", zap.String("backend", b.backend.Name()), zap.Error(err))
		b.setStatus(StatusDegraded, err)
		return StatusDegraded
	}
	b.logger.Info("generation backend ready", zap.String("backend", b.backend.Name()))
	b.setStatus(StatusReady, nil)
	return StatusReady
}

func (b *Bridge) setStatus(s Status, err error) {
	b.mu.Lock()
	b.status = s
	b.lastErr = err
	b.mu.Unlock()
}

func (b *Bridge) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// LastError reports why the bridge is degraded, if it is.
func (b *Bridge) LastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}

// BackendName is "none" when no backend is configured.
func (b *Bridge) BackendName() string {
	if b.backend == nil {
		return "none"
	}
	return b.backend.Name()
}

// Generate asks the backend for a reply conditioned on the context window.
func (b *Bridge) Generate(ctx context.Context, prompt, history string) (string, error) {
	if b.Status() != StatusReady {
		return "", ErrNotReady
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	raw, err := b.backend.Complete(ctx, Request{Prompt: prompt, Context: history, SessionID: b.sessionID})
	if err != nil {
		return "", fmt.Errorf("%s: %w", b.backend.Name(), err)
	}
	text := CleanResponse(raw, prompt, b.maxChars)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (b *Bridge) Close() error {
	if b.backend == nil {
		return nil
	}
	return b.backend.Close()
}

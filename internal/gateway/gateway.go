// Package gateway runs DayMate as a long-lived service: chat channels feed the
// message bus, every chat gets its own session, a scheduler delivers due
// reminders and the daily tip, and an HTTP listener serves health and metrics.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stellarlinkco/daymate/internal/bus"
	"github.com/stellarlinkco/daymate/internal/channel"
	"github.com/stellarlinkco/daymate/internal/config"
	"github.com/stellarlinkco/daymate/internal/cron"
	"github.com/stellarlinkco/daymate/internal/daily"
	"github.com/stellarlinkco/daymate/internal/generate"
	"github.com/stellarlinkco/daymate/internal/knowledge"
	"github.com/stellarlinkco/daymate/internal/metrics"
	"github.com/stellarlinkco/daymate/internal/router"
	"github.com/stellarlinkco/daymate/internal/session"
)

const (
	busBufSize      = 64
	tipJobName      = "daily-tip"
	shutdownTimeout = 5 * time.Second
	apologyReply    = "Sorry, something went wrong handling that message. Please try again."
)

// Options carries the shared collaborators. Knowledge defaults to the
// built-in rules and a nil Generator switches generation off.
type Options struct {
	Knowledge *knowledge.Matcher
	Generator generate.Generator
	Exporter  router.Exporter
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// chatSession is one conversation on one channel.
type chatSession struct {
	channel string
	chatID  string
	router  *router.Router
}

type Gateway struct {
	cfg       *config.Config
	bus       *bus.MessageBus
	channels  *channel.ChannelManager
	scheduler *cron.Scheduler
	knowledge *knowledge.Matcher
	generator generate.Generator
	exporter  router.Exporter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location

	mu       sync.Mutex
	sessions map[string]*chatSession
}

func New(cfg *config.Config, opts Options) (*Gateway, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		cfg:       cfg,
		bus:       bus.NewMessageBus(busBufSize),
		knowledge: opts.Knowledge,
		generator: opts.Generator,
		exporter:  opts.Exporter,
		metrics:   opts.Metrics,
		logger:    logger.Named("gateway"),
		now:       opts.Now,
		loc:       loc,
		sessions:  make(map[string]*chatSession),
	}
	if g.knowledge == nil {
		g.knowledge = knowledge.New(knowledge.WithLogger(logger))
	}
	if g.metrics == nil {
		g.metrics = metrics.New()
	}
	if g.now == nil {
		g.now = time.Now
	}
	g.bus.SetLogger(logger)

	g.channels, err = channel.NewChannelManager(cfg.Channels, g.bus, logger)
	if err != nil {
		return nil, fmt.Errorf("create channel manager: %w", err)
	}

	g.scheduler = cron.NewScheduler(
		cron.WithInterval(cfg.TickInterval()),
		cron.WithLocation(loc),
		cron.WithClock(g.now),
		cron.WithLogger(logger),
	)
	g.scheduler.OnTick = g.deliverDueReminders
	g.scheduler.OnJob = g.runJob
	if spec := strings.TrimSpace(cfg.Gateway.TipSchedule); spec != "" {
		if _, err := g.scheduler.AddJob(tipJobName, spec); err != nil {
			return nil, fmt.Errorf("schedule daily tip: %w", err)
		}
	}
	return g, nil
}

// RegisterChannel adds a channel beyond the configured ones.
func (g *Gateway) RegisterChannel(ch channel.Channel) {
	g.channels.Register(ch)
}

func (g *Gateway) Bus() *bus.MessageBus { return g.bus }

// SessionCount reports how many chats currently hold a session.
func (g *Gateway) SessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails. Shutdown stops channels and the scheduler before returning.
func (g *Gateway) Run(ctx context.Context) error {
	if err := g.channels.StartAll(ctx); err != nil {
		g.channels.StopAll()
		return fmt.Errorf("start channels: %w", err)
	}
	g.logger.Info("channels started", zap.Strings("channels", g.channels.EnabledChannels()))

	if err := g.scheduler.Start(ctx); err != nil {
		g.channels.StopAll()
		return fmt.Errorf("start scheduler: %w", err)
	}

	addr := net.JoinHostPort(g.cfg.Gateway.Host, strconv.Itoa(g.cfg.Gateway.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		g.scheduler.Stop()
		g.channels.StopAll()
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: g.Handler(), ReadHeaderTimeout: 5 * time.Second}
	g.logger.Info("http listening", zap.String("addr", ln.Addr().String()))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		g.bus.DispatchOutbound(ctx)
		return nil
	})
	eg.Go(func() error {
		g.processLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		g.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			g.logger.Warn("http shutdown", zap.Error(err))
		}
		g.scheduler.Stop()
		g.channels.StopAll()
		return nil
	})

	err = eg.Wait()
	g.logger.Info("shutdown complete")
	return err
}

// Handler serves /healthz and /metrics.
func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", g.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		g.metrics.Handler().ServeHTTP(w, r)
	})
	return r
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	generation := "none"
	if b, ok := g.generator.(*generate.Bridge); ok && b != nil {
		generation = fmt.Sprintf("%s (%s)", b.BackendName(), b.Status())
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"channels":   g.channels.EnabledChannels(),
		"sessions":   g.SessionCount(),
		"generation": generation,
	})
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			reply := g.handleInbound(ctx, msg)
			if reply == "" {
				continue
			}
			if err := g.bus.Publish(ctx, bus.OutboundMessage{Channel: msg.Channel, ChatID: msg.ChatID, Content: reply}); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleInbound routes one message through the sender's session. A panic in
// any handler is answered with an apology instead of taking the gateway down.
func (g *Gateway) handleInbound(ctx context.Context, msg bus.InboundMessage) (reply string) {
	key := msg.SessionKey()
	g.logger.Debug("inbound", zap.String("session", key), zap.String("text", truncate(msg.Content, 80)))

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("panic while handling message", zap.String("session", key), zap.Any("panic", r))
			reply = apologyReply
		}
	}()

	sess, err := g.session(msg)
	if err != nil {
		g.logger.Error("create session", zap.String("session", key), zap.Error(err))
		return apologyReply
	}

	if isStart(msg.Content) {
		return fmt.Sprintf("%s! I'm DayMate, your everyday assistant. Type /help for commands.", sess.router.Greeting())
	}

	out := sess.router.Route(ctx, msg.Content)
	if out.Exit {
		g.dropSession(key)
	}
	return out.Text
}

func isStart(content string) bool {
	fields := strings.Fields(content)
	return len(fields) > 0 && strings.EqualFold(fields[0], "/start")
}

func (g *Gateway) session(msg bus.InboundMessage) (*chatSession, error) {
	key := msg.SessionKey()
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[key]; ok {
		return s, nil
	}
	r, err := g.newRouter(key)
	if err != nil {
		return nil, err
	}
	s := &chatSession{channel: msg.Channel, chatID: msg.ChatID, router: r}
	g.sessions[key] = s
	g.logger.Info("session started", zap.String("session", key))
	return s, nil
}

func (g *Gateway) newRouter(key string) (*router.Router, error) {
	mem, err := session.New(session.Options{
		Capacity:     g.cfg.Assistant.HistoryLimit,
		ContextTurns: g.cfg.Assistant.ContextTurns,
		Now:          g.now,
	})
	if err != nil {
		return nil, err
	}
	logger := g.logger.With(zap.String("session", key))
	return router.New(router.Options{
		Memory:    mem,
		Daily:     daily.New(daily.Options{Now: g.now, Location: g.loc, Logger: logger}),
		Knowledge: g.knowledge,
		Generator: g.generator,
		Exporter:  g.exporter,
		Metrics:   g.metrics,
		Logger:    logger,
		Now:       g.now,
	})
}

func (g *Gateway) dropSession(key string) {
	g.mu.Lock()
	delete(g.sessions, key)
	g.mu.Unlock()
	g.logger.Info("session ended", zap.String("session", key))
}

func (g *Gateway) snapshotSessions() []*chatSession {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*chatSession, 0, len(g.sessions))
	for _, s := range g.sessions {
		out = append(out, s)
	}
	return out
}

// deliverDueReminders runs on every scheduler tick.
func (g *Gateway) deliverDueReminders(time.Time) {
	for _, s := range g.snapshotSessions() {
		for _, notice := range s.router.DueReminders() {
			g.send(s, notice)
		}
	}
}

func (g *Gateway) runJob(job cron.Job) (string, error) {
	switch job.Name {
	case tipJobName:
		sessions := g.snapshotSessions()
		for _, s := range sessions {
			g.send(s, s.router.DailyTip())
		}
		return fmt.Sprintf("sent tip to %d chats", len(sessions)), nil
	default:
		return "", fmt.Errorf("unknown job %q", job.Name)
	}
}

// send queues a message without blocking the scheduler when the bus is full.
func (g *Gateway) send(s *chatSession, text string) {
	select {
	case g.bus.Outbound <- bus.OutboundMessage{Channel: s.channel, ChatID: s.chatID, Content: text}:
	default:
		g.logger.Warn("outbound queue full, dropping message", zap.String("channel", s.channel), zap.String("chat", s.chatID))
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

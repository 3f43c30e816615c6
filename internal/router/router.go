// Package router decides which tier answers an input line: slash commands
// first, then the daily utilities, then the knowledge rules, and finally the
// generative backend with the knowledge default pool as its fallback.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/stellarlinkco/daymate/internal/daily"
	"github.com/stellarlinkco/daymate/internal/export"
	"github.com/stellarlinkco/daymate/internal/generate"
	"github.com/stellarlinkco/daymate/internal/knowledge"
	"github.com/stellarlinkco/daymate/internal/metrics"
	"github.com/stellarlinkco/daymate/internal/session"
)

// Tier names the handler that produced a reply.
type Tier string

const (
	TierNone       Tier = ""
	TierCommand    Tier = "command"
	TierDaily      Tier = "daily"
	TierKnowledge  Tier = "knowledge"
	TierGenerative Tier = "generative"
	TierFallback   Tier = "fallback"
)

// Reply is the outcome of routing one line. An empty Text means nothing
// should be printed.
type Reply struct {
	Text string
	Tier Tier
	// Exit asks the host to stop reading input.
	Exit bool
	// Logged reports whether the exchange was stored as a turn.
	Logged bool
}

// Exporter persists a session snapshot and returns where it went.
type Exporter interface {
	Export(ctx context.Context, snap session.Snapshot, f export.Format) (string, error)
}

type Options struct {
	Memory    *session.Memory
	Daily     *daily.Engine
	Knowledge *knowledge.Matcher
	// Generator is optional; without it unclaimed lines get a default reply.
	Generator generate.Generator
	Exporter  Exporter
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// Router is the per-session dispatcher. It handles one line at a time.
type Router struct {
	memory    *session.Memory
	daily     *daily.Engine
	knowledge *knowledge.Matcher
	generator generate.Generator
	exporter  Exporter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func New(opts Options) (*Router, error) {
	if opts.Memory == nil || opts.Daily == nil || opts.Knowledge == nil {
		return nil, errors.New("router: memory, daily engine and knowledge matcher are required")
	}
	r := &Router{
		memory:    opts.Memory,
		daily:     opts.Daily,
		knowledge: opts.Knowledge,
		generator: opts.Generator,
		exporter:  opts.Exporter,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

func (r *Router) Memory() *session.Memory { return r.memory }

// Route answers one input line.
func (r *Router) Route(ctx context.Context, line string) Reply {
	line = strings.TrimSpace(line)
	if line == "" {
		return Reply{}
	}

	if IsCommand(line) {
		r.memory.RecordCommand()
		reply := r.runCommand(ctx, line)
		reply.Tier = TierCommand
		r.metrics.ObserveRoute(string(TierCommand))
		return reply
	}

	text, tier := r.respond(ctx, line)
	r.memory.AddTurn(line, text)
	r.metrics.ObserveRoute(string(tier))
	r.logger.Debug("routed line", zap.String("tier", string(tier)))
	return Reply{Text: text, Tier: tier, Logged: true}
}

func (r *Router) respond(ctx context.Context, line string) (string, Tier) {
	if r.daily.Claims(line) {
		return r.daily.Process(line), TierDaily
	}
	if r.knowledge.Claims(line) {
		return r.knowledge.Answer(ctx, line), TierKnowledge
	}
	if text, ok := r.generate(ctx, line); ok {
		return text, TierGenerative
	}
	return r.knowledge.Default(), TierFallback
}

func (r *Router) generate(ctx context.Context, line string) (string, bool) {
	if r.generator == nil {
		r.metrics.ObserveFallback("disabled")
		return "", false
	}
	start := time.Now()
	text, err := r.generator.Generate(ctx, line, r.memory.Context())
	r.metrics.ObserveGeneration(time.Since(start))
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, generate.ErrNotReady):
			reason = "not_ready"
		case errors.Is(err, context.DeadlineExceeded):
			reason = "timeout"
		case errors.Is(err, generate.ErrEmptyResponse):
			reason = "empty"
		}
		r.metrics.ObserveFallback(reason)
		if reason != "not_ready" {
			r.logger.Warn("generation failed, using default reply", zap.String("reason", reason), zap.Error(err))
		}
		return "", false
	}
	return text, true
}

func (r *Router) runCommand(ctx context.Context, line string) Reply {
	cmd, err := ParseCommand(line)
	if err != nil {
		var ue *UsageError
		if errors.As(err, &ue) {
			r.metrics.ObserveCommand(ue.Command)
			return Reply{Text: ue.Usage}
		}
		return Reply{Text: err.Error()}
	}
	r.metrics.ObserveCommand(cmd.Name())

	switch c := cmd.(type) {
	case HelpCmd:
		return Reply{Text: helpText}
	case ExitCmd:
		return Reply{Text: r.Summary(), Exit: true}
	case ClearCmd:
		r.memory.Clear()
		return Reply{Text: "🧹 Conversation history cleared."}
	case StatsCmd:
		return Reply{Text: r.statsText()}
	case TipCmd:
		return Reply{Text: r.daily.DailyTip()}
	case HistoryCmd:
		return Reply{Text: r.historyText(c.Count)}
	case ExportCmd:
		return Reply{Text: r.export(ctx, c.Format)}
	case RemindCmd:
		return Reply{Text: r.daily.SetReminder(c.Text, c.When)}
	case RemindersCmd:
		if c.Done > 0 {
			return Reply{Text: r.daily.CompleteReminder(c.Done)}
		}
		return Reply{Text: r.daily.ListReminders()}
	case HabitCmd:
		return Reply{Text: r.daily.TrackHabit(c.Habit)}
	case CalcCmd:
		return Reply{Text: daily.Calculate(c.Expr)}
	case CalcTipCmd:
		return Reply{Text: daily.TipTable(c.Amount, c.Percents...)}
	case WeatherCmd:
		return Reply{Text: daily.WeatherAdvice(c.Condition)}
	case TimeCmd:
		return Reply{Text: r.daily.CurrentTime(c.Zone)}
	case ConvertCmd:
		return Reply{Text: daily.ConversionReply(c.Value, c.From, c.To)}
	case SearchCmd:
		return Reply{Text: r.searchText(c.Query)}
	case UnknownCmd:
		return Reply{Text: fmt.Sprintf("Unknown command: %s. Type /help for available commands.", c.Raw)}
	}
	return Reply{Text: fmt.Sprintf("Unknown command: /%s. Type /help for available commands.", cmd.Name())}
}

// DueReminders returns the notices for reminders that came due since the
// last call. Each reminder is returned once.
func (r *Router) DueReminders() []string {
	due := r.daily.DueReminders(r.now())
	out := make([]string, len(due))
	for i, rem := range due {
		out[i] = daily.FormatDue(rem)
	}
	r.metrics.ObserveReminders(len(out))
	return out
}

// Greeting is the time-of-day salutation for this session's zone.
func (r *Router) Greeting() string { return r.daily.Greeting() }

// DailyTip draws a tip without counting it as a command.
func (r *Router) DailyTip() string { return r.daily.DailyTip() }

// Summary is the goodbye message derived from the session stats.
func (r *Router) Summary() string {
	st := r.memory.Stats()
	var b strings.Builder
	b.WriteString("👋 Goodbye! Here's your session summary:\n")
	fmt.Fprintf(&b, "• Questions asked: %d\n", st.QuestionsAsked)
	fmt.Fprintf(&b, "• Commands used: %d\n", st.CommandsUsed)
	fmt.Fprintf(&b, "• Topics discussed: %s\n", topicList(st.TopicsSeen))
	fmt.Fprintf(&b, "• Session length: %s", r.memory.Duration().Round(time.Second))
	return b.String()
}

func (r *Router) statsText() string {
	st := r.memory.Stats()
	var b strings.Builder
	b.WriteString("📊 Session Statistics:\n")
	fmt.Fprintf(&b, "• Questions asked: %d\n", st.QuestionsAsked)
	fmt.Fprintf(&b, "• Commands used: %d\n", st.CommandsUsed)
	fmt.Fprintf(&b, "• Topics discussed: %s\n", topicList(st.TopicsSeen))
	fmt.Fprintf(&b, "• Stored turns: %d/%d\n", st.StoredTurns, r.memory.Capacity())
	fmt.Fprintf(&b, "• Reminders: %d\n", len(r.daily.Reminders()))
	fmt.Fprintf(&b, "• Habits tracked: %d\n", len(r.daily.Habits()))
	fmt.Fprintf(&b, "• Session started: %s", humanize.RelTime(st.SessionStart, r.now(), "ago", "from now"))

	prefs := r.memory.Preferences()
	for _, category := range []string{session.PreferenceLikes, session.PreferenceDislikes} {
		if values := prefs[category]; len(values) > 0 {
			fmt.Fprintf(&b, "\n• You %s: %s", strings.TrimSuffix(category, "s"), strings.Join(values, ", "))
		}
	}
	return b.String()
}

func topicList(topics []string) string {
	if len(topics) == 0 {
		return "none yet"
	}
	return strings.Join(topics, ", ")
}

func (r *Router) historyText(n int) string {
	turns := r.memory.History(n)
	if len(turns) == 0 {
		return "No conversation history yet."
	}
	var b strings.Builder
	b.WriteString("📜 Recent conversation:")
	for i, t := range turns {
		fmt.Fprintf(&b, "\n\n%d. You: %s\n   DayMate: %s", i+1, t.User, t.Bot)
	}
	return b.String()
}

func (r *Router) searchText(query string) string {
	turns := r.memory.Search(query)
	if len(turns) == 0 {
		return fmt.Sprintf("🔍 No conversation matched %q.", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Found %d matching %s:", len(turns), plural(len(turns), "turn"))
	for _, t := range turns {
		fmt.Fprintf(&b, "\n\n[%s] You: %s\n   DayMate: %s", t.Timestamp.Format("15:04"), t.User, t.Bot)
	}
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func (r *Router) export(ctx context.Context, f export.Format) string {
	if r.exporter == nil {
		return "Export is not configured."
	}
	path, err := r.exporter.Export(ctx, r.memory.Snapshot(), f)
	if err != nil {
		r.logger.Warn("export failed", zap.String("format", string(f)), zap.Error(err))
		return "Sorry, I couldn't export the conversation right now."
	}
	return fmt.Sprintf("💾 Conversation exported to %s", path)
}

const helpText = `🤖 DayMate commands:

• /help                     Show this help
• /remind <text> [at <time>] Set a reminder (e.g. /remind call mom at 3pm)
• /reminders [done <n>]     List reminders or mark one done
• /habit [<name>]           Track a habit today, or show your streaks
• /tip                      Get a tip of the day
• /calc <expression>        Calculate (e.g. /calc 15 * 4)
• /calc tip <amount> [<%>]  Work out a tip (e.g. /calc tip 50 20)
• /convert <v> <from> <to>  Convert °C/°F, kg/lb, km/mi
• /weather [<condition>]    Weather advice
• /time [<timezone>]        Current time (e.g. /time tokyo)
• /history [count]          Show recent conversation
• /search <words>           Search this conversation
• /stats                    Session statistics
• /export [json|yaml|sqlite] Save the conversation
• /clear                    Clear conversation history
• /exit or /quit            Leave with a session summary

Or just talk to me: ask about capitals, simple sums, facts, or anything else.`

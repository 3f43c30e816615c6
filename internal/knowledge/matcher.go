package knowledge

import (
	"context"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/stellarlinkco/daymate/internal/capitals"
)

// Rule is one entry of the ordered rule table. Match receives the lowercased
// line; Respond receives the line as typed.
type Rule struct {
	Name    string
	Match   func(lower string) bool
	Respond func(ctx context.Context, line string) string
}

// Matcher evaluates rules top to bottom; the first matching rule answers.
type Matcher struct {
	rules    []Rule
	defaults []string
	pick     func(n int) int
	capitals capitals.Lookup
	logger   *zap.Logger
	extra    []FactTable
}

type Option func(*Matcher)

func WithCapitals(l capitals.Lookup) Option {
	return func(m *Matcher) { m.capitals = l }
}

// WithFactTables appends tables after the built-in ones.
func WithFactTables(tables ...FactTable) Option {
	return func(m *Matcher) { m.extra = append(m.extra, tables...) }
}

// WithPicker replaces the uniform random source used for default replies.
func WithPicker(pick func(n int) int) Option {
	return func(m *Matcher) { m.pick = pick }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

func New(opts ...Option) *Matcher {
	m := &Matcher{
		defaults: defaultResponses,
		pick:     rand.IntN,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.rules = append(m.rules, m.capitalRule(), additionRule(), subtractionRule())
	for _, table := range builtinTables {
		m.rules = append(m.rules, table.rule())
	}
	for _, table := range m.extra {
		m.rules = append(m.rules, table.rule())
	}
	return m
}

// RuleNames lists rules in evaluation order.
func (m *Matcher) RuleNames() []string {
	names := make([]string, len(m.rules))
	for i, r := range m.rules {
		names[i] = r.Name
	}
	return names
}

// Claims reports whether any rule (excluding the default pool) matches.
func (m *Matcher) Claims(line string) bool {
	_, ok := m.match(line)
	return ok
}

// Answer replies with the first matching rule, or a default prompt.
func (m *Matcher) Answer(ctx context.Context, line string) string {
	if r, ok := m.match(line); ok {
		m.logger.Debug("knowledge rule matched", zap.String("rule", r.Name))
		return r.Respond(ctx, strings.TrimSpace(line))
	}
	return m.Default()
}

// Default picks uniformly from the open-ended conversational prompts.
func (m *Matcher) Default() string {
	return m.defaults[m.pick(len(m.defaults))]
}

func (m *Matcher) match(line string) (Rule, bool) {
	lower := strings.ToLower(strings.TrimSpace(line))
	if lower == "" {
		return Rule{}, false
	}
	for _, r := range m.rules {
		if r.Match(lower) {
			return r, true
		}
	}
	return Rule{}, false
}

var defaultResponses = []string{
	"That's interesting! Can you tell me more about that?",
	"I see what you mean. How does that make you feel?",
	"That's a great point. What would you like to explore about this topic?",
	"Thanks for sharing that with me. What's your next step?",
	"I understand. Is there a specific aspect you'd like to focus on?",
	"I'm listening. What's on your mind?",
	"That sounds important. Would you like help organizing your thoughts about it?",
}

package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCapacity     = 100
	DefaultContextTurns = 3
)

var (
	ErrInvalidCapacity     = errors.New("session: capacity must be positive")
	ErrInvalidContextTurns = errors.New("session: context turns must be positive")
)

// Options configures a Memory.
type Options struct {
	// Capacity is the retention cap for stored turns.
	Capacity int
	// ContextTurns is how many recent turns Context returns.
	ContextTurns int
	Now          func() time.Time
}

// Memory is the bounded, ordered conversation log of a single session.
// It is not safe for concurrent use; callers process one line at a time.
type Memory struct {
	capacity     int
	contextTurns int
	now          func() time.Time

	turns     []Turn
	nextSeq   int64
	questions int
	commands  int
	topics    map[string]struct{}
	prefs     map[string][]string
	start     time.Time
}

func New(opts Options) (*Memory, error) {
	if opts.Capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, opts.Capacity)
	}
	if opts.ContextTurns <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidContextTurns, opts.ContextTurns)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Memory{
		capacity:     opts.Capacity,
		contextTurns: opts.ContextTurns,
		now:          now,
		turns:        make([]Turn, 0, min(opts.Capacity, 16)),
		topics:       make(map[string]struct{}),
		prefs:        make(map[string][]string),
		start:        now(),
	}, nil
}

// AddTurn stores a completed exchange, evicting the oldest turn when the log
// is full, and updates stats, topics and preferences.
func (m *Memory) AddTurn(userText, botText string) Turn {
	m.nextSeq++
	t := Turn{
		Seq:       m.nextSeq,
		ID:        uuid.NewString(),
		User:      strings.TrimSpace(userText),
		Bot:       strings.TrimSpace(botText),
		Timestamp: m.now(),
	}

	m.turns = append(m.turns, t)
	if over := len(m.turns) - m.capacity; over > 0 {
		kept := make([]Turn, m.capacity, m.capacity+1)
		copy(kept, m.turns[over:])
		m.turns = kept
	}

	m.questions++
	for _, topic := range scanTopics(t.User) {
		m.topics[topic] = struct{}{}
	}
	for _, p := range extractPreferences(t.User) {
		m.addPreference(p.category, p.value)
	}
	return t
}

func (m *Memory) addPreference(category, value string) {
	for _, existing := range m.prefs[category] {
		if strings.EqualFold(existing, value) {
			return
		}
	}
	m.prefs[category] = append(m.prefs[category], value)
}

// RecordCommand counts a command-tier line. Commands are not stored as turns.
func (m *Memory) RecordCommand() {
	m.commands++
}

// Context renders the last ContextTurns turns as alternating user/assistant
// lines for prompt conditioning.
func (m *Memory) Context() string {
	recent := m.History(m.contextTurns)
	if len(recent) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, t := range recent {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("User: ")
		sb.WriteString(t.User)
		sb.WriteString("\nAssistant: ")
		sb.WriteString(t.Bot)
	}
	return sb.String()
}

// History returns up to n most recent turns, oldest first. n <= 0 returns all
// stored turns.
func (m *Memory) History(n int) []Turn {
	if n <= 0 || n > len(m.turns) {
		n = len(m.turns)
	}
	out := make([]Turn, n)
	copy(out, m.turns[len(m.turns)-n:])
	return out
}

// Search returns stored turns whose user or bot text contains query.
func (m *Memory) Search(query string) []Turn {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Turn
	for _, t := range m.turns {
		if strings.Contains(strings.ToLower(t.User), q) || strings.Contains(strings.ToLower(t.Bot), q) {
			out = append(out, t)
		}
	}
	return out
}

// Clear drops stored turns. Aggregate stats and preferences are kept.
func (m *Memory) Clear() {
	m.turns = m.turns[:0]
}

func (m *Memory) Len() int { return len(m.turns) }

func (m *Memory) Capacity() int { return m.capacity }

func (m *Memory) Stats() Stats {
	topics := make([]string, 0, len(m.topics))
	for t := range m.topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return Stats{
		QuestionsAsked: m.questions,
		CommandsUsed:   m.commands,
		TopicsSeen:     topics,
		SessionStart:   m.start,
		StoredTurns:    len(m.turns),
	}
}

func (m *Memory) Preferences() map[string][]string {
	out := make(map[string][]string, len(m.prefs))
	for k, v := range m.prefs {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Duration is the elapsed time since the session started.
func (m *Memory) Duration() time.Duration {
	return m.now().Sub(m.start)
}

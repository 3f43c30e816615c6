// Package daily implements the deterministic everyday utilities: reminders,
// habit streaks, tip and expression calculators, unit conversion, weather
// advice and clock formatting. Every entry point returns a user-facing string;
// malformed input produces a usage hint rather than an error.
package daily

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
)

type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Location decides calendar days for habits and wall clock reminders.
	// Defaults to time.Local.
	Location *time.Location
	// Pick returns an index in [0, n). Defaults to math/rand/v2.IntN.
	Pick   func(n int) int
	Logger *zap.Logger
}

// Engine holds the per-session reminder and habit state. It is safe for
// concurrent use so the gateway scheduler can drain due reminders while a
// message is being handled.
type Engine struct {
	mu        sync.Mutex
	now       func() time.Time
	loc       *time.Location
	pick      func(n int) int
	logger    *zap.Logger
	reminders []Reminder
	lastID    int64
	habits    map[string]*Habit
	order     []string
}

func New(opts Options) *Engine {
	e := &Engine{
		now:    opts.Now,
		loc:    opts.Location,
		pick:   opts.Pick,
		logger: opts.Logger,
		habits: make(map[string]*Habit),
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.pick == nil {
		e.pick = rand.IntN
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

func (e *Engine) clock() time.Time {
	return e.now().In(e.loc)
}

// Location reports the zone used for calendar days.
func (e *Engine) Location() *time.Location {
	return e.loc
}

var triggerWords = []string{
	"remind", "reminder", "reminders",
	"habit", "track",
	"tip", "advice",
	"calc", "calculate",
	"weather",
	"time", "schedule",
	"convert",
}

// Claims reports whether the line carries one of the utility trigger words
// as a whole word.
func (e *Engine) Claims(line string) bool {
	words := wordSet(line)
	for _, w := range triggerWords {
		if _, ok := words[w]; ok {
			return true
		}
	}
	return false
}

// Process handles a free-text line that Claims accepted.
func (e *Engine) Process(line string) string {
	line = strings.TrimSpace(line)
	words := wordSet(line)
	has := func(ws ...string) bool {
		for _, w := range ws {
			if _, ok := words[w]; ok {
				return true
			}
		}
		return false
	}

	switch {
	case has("reminders", "schedule"):
		return e.ListReminders()
	case has("remind", "reminder"):
		body, when := SplitWhen(stripRemindWords(line))
		return e.SetReminder(body, when)
	case has("habit", "track"):
		return e.TrackHabit(stripHabitWords(line))
	case has("convert"):
		return ConvertReply(removeWords(line, "convert"))
	case has("calc", "calculate"):
		return Calculate(removeWords(line, "calc", "calculate"))
	case has("tip", "advice"):
		return e.DailyTip()
	case has("weather"):
		return WeatherAdvice(line)
	case has("time"):
		return e.timeFromText(line)
	}
	return "I can help with reminders, habits, tips, calculations, and more! Type /help for commands."
}

func (e *Engine) timeFromText(line string) string {
	lower := strings.ToLower(line)
	if idx := strings.LastIndex(lower, " in "); idx >= 0 {
		zone := strings.Trim(strings.TrimSpace(line[idx+4:]), "?.!")
		if loc, ok := resolveZone(zone); ok {
			return formatClock(e.now().In(loc), displayZone(zone, loc))
		}
	}
	return e.CurrentTime("")
}

func stripRemindWords(line string) string {
	s := removeWords(line, "remind", "reminder")
	lower := strings.ToLower(s)
	for _, prefix := range []string{"me to ", "me about ", "me "} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(s[len(prefix):])
		}
	}
	return s
}

func stripHabitWords(line string) string {
	s := removeWords(line, "habit", "track")
	if strings.HasPrefix(strings.ToLower(s), "my ") {
		s = strings.TrimSpace(s[3:])
	}
	return s
}

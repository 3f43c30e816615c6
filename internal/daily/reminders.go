package daily

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/stellarlinkco/daymate/internal/cron"
)

// Reminder is never deleted; only Completed flips.
type Reminder struct {
	ID          int64      `json:"id"`
	Text        string     `json:"text"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Completed   bool       `json:"completed"`
	fired       bool
}

const reminderStamp = "Mon Jan 2, 3:04 PM"

const reminderUsage = "Please specify what you'd like to be reminded about. Example: /remind Call mom at 3pm"

// SplitWhen separates a trailing time expression ("at 3pm", "in 20 minutes",
// "tomorrow", a cron descriptor after "at") from the reminder body. When no
// suffix parses, the whole text is the body.
func SplitWhen(text string) (body, when string) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	type split struct{ at, whenStart int }
	var candidates []split
	for _, marker := range []string{" at ", " in "} {
		if idx := strings.LastIndex(lower, marker); idx >= 0 {
			candidates = append(candidates, split{idx, idx + len(marker)})
		}
	}
	if idx := strings.LastIndex(lower, " tomorrow"); idx >= 0 {
		candidates = append(candidates, split{idx, idx + 1})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].at < candidates[j].at })

	ref := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range candidates {
		expr := strings.TrimSpace(text[c.whenStart:])
		if _, err := cron.ParseWhen(expr, ref); err == nil {
			return strings.TrimSpace(text[:c.at]), expr
		}
	}
	return text, ""
}

// SetReminder stores a reminder. An empty text is rejected with a usage
// hint; anything else creates exactly one Reminder. An unparseable when is
// kept out of the schedule and reported in the reply.
func (e *Engine) SetReminder(text, when string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return reminderUsage
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()
	id := now.UnixMilli()
	if id <= e.lastID {
		id = e.lastID + 1
	}
	e.lastID = id

	r := Reminder{ID: id, Text: text, CreatedAt: now}
	var badWhen string
	if when = strings.TrimSpace(when); when != "" {
		at, err := cron.ParseWhen(when, now)
		if err != nil {
			e.logger.Debug("reminder time not understood", zap.String("when", when), zap.Error(err))
			badWhen = when
		} else {
			r.ScheduledAt = &at
		}
	}
	e.reminders = append(e.reminders, r)

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Reminder set: %q\n", text)
	fmt.Fprintf(&b, "📅 Created: %s", now.Format(reminderStamp))
	switch {
	case r.ScheduledAt != nil:
		fmt.Fprintf(&b, "\n⏰ Due: %s (%s)", r.ScheduledAt.Format(reminderStamp), humanize.RelTime(*r.ScheduledAt, now, "ago", "from now"))
		b.WriteString("\n🔔 I'll nudge you here when it's due.")
	case badWhen != "":
		fmt.Fprintf(&b, "\n⚠️ I couldn't understand the time %q, so I saved it without one. Try \"at 3pm\", \"at 15:30\", \"in 20 minutes\" or \"at 0 9 * * *\".", badWhen)
	default:
		b.WriteString("\n💡 Tip: I'll remember this for our conversation, but for actual notifications, consider using your phone's reminder app!")
	}
	return b.String()
}

// Reminders returns a copy of every reminder in creation order.
func (e *Engine) Reminders() []Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Reminder, len(e.reminders))
	copy(out, e.reminders)
	return out
}

func (e *Engine) ListReminders() string {
	reminders := e.Reminders()
	if len(reminders) == 0 {
		return "📝 No reminders set yet."
	}
	now := e.clock()

	var b strings.Builder
	b.WriteString("📝 Your Reminders:\n")
	for i, r := range reminders {
		fmt.Fprintf(&b, "\n%d. %s\n   📅 Created: %s", i+1, r.Text, humanize.RelTime(r.CreatedAt, now, "ago", "from now"))
		if r.ScheduledAt != nil {
			fmt.Fprintf(&b, "\n   ⏰ Due: %s", r.ScheduledAt.In(e.loc).Format(reminderStamp))
		}
		if r.Completed {
			b.WriteString("\n   ✅ Done")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// CompleteReminder marks the n-th reminder (1-based, as listed) done.
func (e *Engine) CompleteReminder(n int) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n < 1 || n > len(e.reminders) {
		return fmt.Sprintf("There's no reminder #%d. You have %d %s.", n, len(e.reminders), plural(len(e.reminders), "reminder"))
	}
	r := &e.reminders[n-1]
	if r.Completed {
		return fmt.Sprintf("Reminder #%d is already done.", n)
	}
	r.Completed = true
	return fmt.Sprintf("✅ Marked reminder #%d as done: %q", n, r.Text)
}

// DueReminders returns scheduled, incomplete reminders whose time is at or
// before now. Each reminder is returned at most once.
func (e *Engine) DueReminders(now time.Time) []Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()

	var due []Reminder
	for i := range e.reminders {
		r := &e.reminders[i]
		if r.ScheduledAt == nil || r.Completed || r.fired || r.ScheduledAt.After(now) {
			continue
		}
		r.fired = true
		due = append(due, *r)
	}
	return due
}

func FormatDue(r Reminder) string {
	return "⏰ Reminder: " + r.Text
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

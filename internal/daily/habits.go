package daily

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Habit tracks the calendar days a habit was done. Dates only grows.
type Habit struct {
	Key         string              `json:"key"`
	DisplayName string              `json:"displayName"`
	Dates       map[string]struct{} `json:"-"`
	Streak      int                 `json:"streak"`
}

// Days returns the tracked days in ascending order.
func (h Habit) Days() []string {
	days := make([]string, 0, len(h.Dates))
	for d := range h.Dates {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// TrackHabit records today for name. An empty name returns the summary.
func (e *Engine) TrackHabit(name string) string {
	display := strings.TrimSpace(name)
	if display == "" {
		return e.HabitSummary()
	}
	key := strings.ToLower(display)
	today := e.clock().Format(dayLayout)

	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.habits[key]
	if !ok {
		h = &Habit{Key: key, DisplayName: display, Dates: make(map[string]struct{})}
		e.habits[key] = h
		e.order = append(e.order, key)
	}

	if _, done := h.Dates[today]; done {
		return fmt.Sprintf("✅ You've already tracked %q today!\n🔥 Current streak: %d %s", h.DisplayName, h.Streak, plural(h.Streak, "day"))
	}
	h.Dates[today] = struct{}{}
	h.Streak = currentStreak(h.Dates)

	return fmt.Sprintf("🎯 Habit %q tracked for today!\n🔥 Current streak: %d %s\n📊 Total completions: %d",
		h.DisplayName, h.Streak, plural(h.Streak, "day"), len(h.Dates))
}

// Habits returns copies of every habit in first-tracked order.
func (e *Engine) Habits() []Habit {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Habit, 0, len(e.order))
	for _, key := range e.order {
		h := *e.habits[key]
		h.Dates = make(map[string]struct{}, len(e.habits[key].Dates))
		for d := range e.habits[key].Dates {
			h.Dates[d] = struct{}{}
		}
		out = append(out, h)
	}
	return out
}

func (e *Engine) HabitSummary() string {
	habits := e.Habits()
	if len(habits) == 0 {
		return "📊 No habits tracked yet. Start tracking with: /habit [habit name]"
	}
	var b strings.Builder
	b.WriteString("📊 Your Habit Summary:\n")
	for _, h := range habits {
		fmt.Fprintf(&b, "\n🎯 %s\n   🔥 Streak: %d %s\n   📈 Total: %d %s\n",
			h.DisplayName, h.Streak, plural(h.Streak, "day"), len(h.Dates), plural(len(h.Dates), "completion"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// currentStreak walks the days newest first and counts the run of entries
// exactly one calendar day apart. Days are compared as civil dates, so DST
// transitions never produce 23 or 25 hour gaps.
func currentStreak(dates map[string]struct{}) int {
	if len(dates) == 0 {
		return 0
	}
	days := make([]time.Time, 0, len(dates))
	for d := range dates {
		t, err := time.Parse(dayLayout, d)
		if err != nil {
			continue
		}
		days = append(days, t)
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i], days[i-1]) != 1 {
			break
		}
		streak++
	}
	return streak
}

// daysBetween counts calendar days from a to b. Both must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReminder_EmptyIsRejected(t *testing.T) {
	e, _ := newTestEngine(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, reminderUsage, e.SetReminder("   ", ""))
	assert.Equal(t, reminderUsage, e.SetReminder("", "3pm"))
	assert.Empty(t, e.Reminders())
}

func TestSetReminder_Unscheduled(t *testing.T) {
	e, _ := newTestEngine(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	reply := e.SetReminder(" Buy groceries ", "")

	assert.Equal(t, "✅ Reminder set: \"Buy groceries\"\n📅 Created: Wed May 1, 10:00 AM\n💡 Tip: I'll remember this for our conversation, but for actual notifications, consider using your phone's reminder app!", reply)
	reminders := e.Reminders()
	require.Len(t, reminders, 1)
	assert.Equal(t, "Buy groceries", reminders[0].Text)
	assert.Nil(t, reminders[0].ScheduledAt)
	assert.False(t, reminders[0].Completed)
}

func TestSetReminder_Scheduled(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t, start)

	reply := e.SetReminder("Call mom", "3pm")
	assert.Contains(t, reply, "⏰ Due: Wed May 1, 3:00 PM (5 hours from now)")

	r := e.Reminders()[0]
	require.NotNil(t, r.ScheduledAt)
	assert.True(t, r.ScheduledAt.Equal(time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)))
}

func TestSetReminder_UnparseableTimeStillCreates(t *testing.T) {
	e, _ := newTestEngine(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	reply := e.SetReminder("Water plants", "whenever")

	assert.Contains(t, reply, `I couldn't understand the time "whenever"`)
	require.Len(t, e.Reminders(), 1)
	assert.Nil(t, e.Reminders()[0].ScheduledAt)
}

func TestSetReminder_OffsetBeyondDurationRange(t *testing.T) {
	e, _ := newTestEngine(t, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	reply := e.SetReminder("pay rent", "in 300000 days")

	assert.Contains(t, reply, `I couldn't understand the time "in 300000 days"`)
	require.Len(t, e.Reminders(), 1)
	assert.Nil(t, e.Reminders()[0].ScheduledAt)
}

func TestSetReminder_MonotonicIDs(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e, clock := newTestEngine(t, start)

	e.SetReminder("a", "")
	e.SetReminder("b", "")
	clock.t = start.Add(-time.Minute) // clock stepped backwards
	e.SetReminder("c", "")

	reminders := e.Reminders()
	require.Len(t, reminders, 3)
	assert.Equal(t, start.UnixMilli(), reminders[0].ID)
	assert.Equal(t, start.UnixMilli()+1, reminders[1].ID)
	assert.Equal(t, start.UnixMilli()+2, reminders[2].ID)
}

func TestDueReminders(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t, start)
	e.SetReminder("stand up", "in 30 minutes")
	e.SetReminder("lunch", "12:00")
	e.SetReminder("no time", "")
	e.SetReminder("cancelled", "in 10 minutes")
	e.CompleteReminder(4)

	assert.Empty(t, e.DueReminders(start.Add(29*time.Minute)))

	due := e.DueReminders(start.Add(30 * time.Minute))
	require.Len(t, due, 1)
	assert.Equal(t, "stand up", due[0].Text)
	assert.Equal(t, "⏰ Reminder: stand up", FormatDue(due[0]))

	assert.Empty(t, e.DueReminders(start.Add(31*time.Minute)), "a reminder fires once")

	due = e.DueReminders(start.Add(3 * time.Hour))
	require.Len(t, due, 1)
	assert.Equal(t, "lunch", due[0].Text)
	assert.Len(t, e.Reminders(), 4, "reminders are never deleted")
}

func TestCompleteReminder(t *testing.T) {
	e, _ := newTestEngine(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, "There's no reminder #1. You have 0 reminders.", e.CompleteReminder(1))

	e.SetReminder("pay rent", "")
	assert.Equal(t, "There's no reminder #0. You have 1 reminder.", e.CompleteReminder(0))
	assert.Equal(t, "✅ Marked reminder #1 as done: \"pay rent\"", e.CompleteReminder(1))
	assert.Equal(t, "Reminder #1 is already done.", e.CompleteReminder(1))
	assert.True(t, e.Reminders()[0].Completed)
}

func TestListReminders(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e, clock := newTestEngine(t, start)
	assert.Equal(t, "📝 No reminders set yet.", e.ListReminders())

	e.SetReminder("call mom", "3pm")
	e.SetReminder("buy milk", "")
	e.CompleteReminder(2)
	clock.t = start.Add(2 * time.Hour)

	list := e.ListReminders()
	assert.Contains(t, list, "1. call mom\n   📅 Created: 2 hours ago\n   ⏰ Due: Wed May 1, 3:00 PM")
	assert.Contains(t, list, "2. buy milk")
	assert.Contains(t, list, "✅ Done")
}

func TestSplitWhen(t *testing.T) {
	tests := []struct {
		in, body, when string
	}{
		{"Call mom at 3pm", "Call mom", "3pm"},
		{"stand up in 20 minutes", "stand up", "20 minutes"},
		{"Call dentist tomorrow", "Call dentist", "tomorrow"},
		{"call mom tomorrow at 9am", "call mom", "tomorrow at 9am"},
		{"water the plants at 0 9 * * *", "water the plants", "0 9 * * *"},
		{"meet John at the cafe", "meet John at the cafe", ""},
		{"check in with the team", "check in with the team", ""},
		{"look at the stars at 21:30", "look at the stars", "21:30"},
	}
	for _, tt := range tests {
		body, when := SplitWhen(tt.in)
		assert.Equal(t, tt.body, body, tt.in)
		assert.Equal(t, tt.when, when, tt.in)
	}
}

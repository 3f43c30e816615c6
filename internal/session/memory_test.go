package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestMemory(t *testing.T, capacity int) *Memory {
	t.Helper()
	m, err := New(Options{
		Capacity:     capacity,
		ContextTurns: DefaultContextTurns,
		Now:          fixedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	return m
}

func TestNew_RejectsInvalidCapacity(t *testing.T) {
	_, err := New(Options{Capacity: 0, ContextTurns: 3})
	require.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New(Options{Capacity: -4, ContextTurns: 3})
	require.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New(Options{Capacity: 5, ContextTurns: 0})
	require.ErrorIs(t, err, ErrInvalidContextTurns)
}

func TestAddTurn_EvictsOldestBeyondCapacity(t *testing.T) {
	m := newTestMemory(t, 5)
	for i := 1; i <= 12; i++ {
		m.AddTurn(fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
	}

	history := m.History(0)
	require.Len(t, history, 5)
	for i, turn := range history {
		assert.Equal(t, fmt.Sprintf("question %d", 8+i), turn.User)
		assert.Equal(t, int64(8+i), turn.Seq)
	}
	assert.Equal(t, 12, m.Stats().QuestionsAsked)
	assert.Equal(t, 5, m.Stats().StoredTurns)
}

func TestAddTurn_AssignsIdentity(t *testing.T) {
	m := newTestMemory(t, 5)
	a := m.AddTurn("  hello  ", " hi there ")
	b := m.AddTurn("again", "yes")

	assert.Equal(t, "hello", a.User)
	assert.Equal(t, "hi there", a.Bot)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, b.Timestamp.After(a.Timestamp))
}

func TestContext_LastThreeTurns(t *testing.T) {
	m := newTestMemory(t, 10)
	assert.Empty(t, m.Context())

	for i := 1; i <= 4; i++ {
		m.AddTurn(fmt.Sprintf("u%d", i), fmt.Sprintf("b%d", i))
	}
	want := "User: u2\nAssistant: b2\nUser: u3\nAssistant: b3\nUser: u4\nAssistant: b4"
	assert.Equal(t, want, m.Context())
	assert.Equal(t, 4, m.Len(), "Context must not mutate the log")
}

func TestTopics_SetSemantics(t *testing.T) {
	m := newTestMemory(t, 10)
	m.AddTurn("I need to study for my course", "ok")
	m.AddTurn("Studying again, this book is long", "ok")
	m.AddTurn("My boss scheduled a meeting at work", "ok")
	m.AddTurn("nothing relevant here", "ok")

	assert.Equal(t, []string{"learning", "work"}, m.Stats().TopicsSeen)
}

func TestPreferences_BestEffortExtraction(t *testing.T) {
	m := newTestMemory(t, 10)
	m.AddTurn("I like hiking in the mountains.", "nice")
	m.AddTurn("Honestly I hate traffic, it is awful", "sorry")
	m.AddTurn("i really love pizza but not olives", "yum")
	m.AddTurn("I like hiking in the mountains", "you said")
	m.AddTurn("I don't like mondays", "fair")

	got := m.Preferences()
	want := map[string][]string{
		PreferenceLikes:    {"hiking in the mountains", "pizza"},
		PreferenceDislikes: {"traffic", "mondays"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("preferences mismatch (-want +got):\n%s", diff)
	}
}

func TestPreferences_TruncatesOnRuneBoundary(t *testing.T) {
	m := newTestMemory(t, 10)
	m.AddTurn("I like "+strings.Repeat("a", maxPreferenceLen-1)+"ébc", "ok")

	likes := m.Preferences()[PreferenceLikes]
	require.Len(t, likes, 1)
	assert.True(t, utf8.ValidString(likes[0]))
	assert.Equal(t, strings.Repeat("a", maxPreferenceLen-1)+"é", likes[0])
}

func TestSearchAndClear(t *testing.T) {
	m := newTestMemory(t, 10)
	m.AddTurn("what is the weather", "sunny")
	m.AddTurn("tell me a joke", "no")
	m.RecordCommand()

	assert.Len(t, m.Search("WEATHER"), 1)
	assert.Len(t, m.Search("sunny"), 1)
	assert.Empty(t, m.Search("   "))

	m.Clear()
	assert.Equal(t, 0, m.Len())
	stats := m.Stats()
	assert.Equal(t, 2, stats.QuestionsAsked)
	assert.Equal(t, 1, stats.CommandsUsed)
}

func TestSnapshot_RoundTripThroughJSON(t *testing.T) {
	m := newTestMemory(t, 3)
	m.AddTurn("I love music", "great")
	m.AddTurn("my flight got delayed", "ugh")
	m.AddTurn("how do I budget", "spreadsheet")
	m.AddTurn("time to cook dinner", "enjoy")
	m.RecordCommand()

	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored, err := Restore(decoded, Options{Capacity: 3, ContextTurns: 3})
	require.NoError(t, err)

	live, back := m.Stats(), restored.Stats()
	assert.Equal(t, live.QuestionsAsked, back.QuestionsAsked)
	assert.Equal(t, 4, back.QuestionsAsked)
	assert.Equal(t, live.CommandsUsed, back.CommandsUsed)
	assert.Equal(t, live.TopicsSeen, back.TopicsSeen)
	assert.True(t, live.SessionStart.Equal(back.SessionStart))
	if diff := cmp.Diff(m.Preferences(), restored.Preferences()); diff != "" {
		t.Errorf("preferences mismatch (-live +restored):\n%s", diff)
	}
	assert.Equal(t, m.Context(), restored.Context())

	next := restored.AddTurn("one more", "sure")
	assert.Equal(t, int64(5), next.Seq)
}

func TestRestore_TrimsToCapacity(t *testing.T) {
	m := newTestMemory(t, 10)
	for i := 0; i < 6; i++ {
		m.AddTurn(fmt.Sprintf("q%d", i), "a")
	}
	restored, err := Restore(m.Snapshot(), Options{Capacity: 2, ContextTurns: 1})
	require.NoError(t, err)

	history := restored.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, "q4", history[0].User)
	assert.Equal(t, "q5", history[1].User)
	assert.Equal(t, 6, restored.Stats().QuestionsAsked)
}

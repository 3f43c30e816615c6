package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Banner("Good morning", "mock")
	p.Prompt()
	p.Reply("🧮 2 + 3 = 5\n")
	p.Reply("")
	p.Notice("⏰ Reminder: stretch")

	want := "🤖 DayMate, your everyday assistant\nGood morning! Type /help for commands, /exit to quit.\n" +
		"generation: mock\n" +
		"\nyou › " +
		"🧮 2 + 3 = 5\n" +
		"⏰ Reminder: stretch\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinter_StyledKeepsText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.Banner("Hello", "ollama")
	p.Reply("line one\nline two")

	out := buf.String()
	for _, s := range []string{"DayMate", "Hello!", "ollama", "line one", "line two"} {
		assert.Contains(t, out, s)
	}
}

func TestDetectPlain(t *testing.T) {
	assert.True(t, DetectPlain(&bytes.Buffer{}))
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectPlain(nil))
}

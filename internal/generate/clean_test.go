package generate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name, raw, prompt, want string
	}{
		{"plain", "Sounds like a fun weekend.", "I went hiking", "Sounds like a fun weekend."},
		{"echoed prompt", "I went hiking Sounds great!", "I went hiking", "Sounds great!"},
		{"role label", "Assistant: that's lovely.", "hi", "That's lovely."},
		{"short label", "A: sure thing", "hi", "Sure thing"},
		{"invented turn", "Great idea.\nUser: thanks\nAssistant: no problem", "plan trip", "Great idea."},
		{"human turn", "Okay!\nHuman: more", "x", "Okay!"},
		{"crlf", "Fine.\r\nQ: next", "x", "Fine."},
		{"empty", "   ", "x", ""},
		{"label only", "Assistant:", "x", ""},
		{"non letter start", "42 is the answer.", "x", "42 is the answer."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanResponse(tt.raw, tt.prompt, DefaultMaxChars))
		})
	}
}

func TestCleanResponse_LongReplyKeepsTwoSentences(t *testing.T) {
	raw := "First sentence here. Second one follows! Third goes on and on. " + strings.Repeat("filler ", 80)
	assert.Equal(t, "First sentence here. Second one follows!", CleanResponse(raw, "", 100))
	assert.Equal(t, strings.TrimSpace(raw), CleanResponse(raw, "", 0), "zero disables the cut")

	// Decimal points are not sentence ends.
	raw = "Pi is 3.14 roughly. That is all. " + strings.Repeat("x", 50)
	assert.Equal(t, "Pi is 3.14 roughly. That is all.", CleanResponse(raw, "", 40))
}

package generate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars is the reply length above which CleanResponse keeps only
// the first two sentences.
const DefaultMaxChars = 400

var rolePrefixes = []string{"Assistant:", "AI:", "Bot:", "A:"}

// turnMarkers start a new speaker turn; anything from one onward is the model
// continuing the transcript on the user's behalf.
var turnMarkers = []string{"\nUser:", "\nHuman:", "\nQ:"}

// CleanResponse strips transcript artefacts from a raw completion: an echoed
// prompt, a leading role label, and any invented follow-up turns. Long
// replies are cut to their first two sentences when maxChars > 0. The result
// may be empty.
func CleanResponse(raw, prompt string, maxChars int) string {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	prompt = strings.TrimSpace(prompt)

	if prompt != "" && len(text) >= len(prompt) && strings.EqualFold(text[:len(prompt)], prompt) {
		text = strings.TrimSpace(text[len(prompt):])
	}
	for _, marker := range turnMarkers {
		if idx := strings.Index("\n"+text, marker); idx >= 0 {
			if idx == 0 {
				continue
			}
			text = strings.TrimSpace(text[:idx-1])
		}
	}
	for _, p := range rolePrefixes {
		if len(text) >= len(p) && strings.EqualFold(text[:len(p)], p) {
			text = strings.TrimSpace(text[len(p):])
			break
		}
	}
	if text == "" {
		return ""
	}

	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		text = firstSentences(text, 2)
	}
	return capitalize(text)
}

func firstSentences(text string, n int) string {
	count := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + 1
		if next < len(text) && !unicode.IsSpace(rune(text[next])) {
			continue
		}
		count++
		if count == n {
			return strings.TrimSpace(text[:next])
		}
	}
	return text
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if unicode.IsUpper(r) || !unicode.IsLetter(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

package session

import (
	"regexp"
	"strings"
	"unicode"
)

// Preference extraction is a substring heuristic, not language understanding.
// "I like X" / "I hate X" style phrases are scraped up to the next clause
// punctuation; odd phrasing can produce odd values.
var preferencePattern = regexp.MustCompile(`(?i)\bi\s+(?:really\s+)?(like|love|enjoy|hate|dislike|can't stand|don't like|do not like)\s+([^.,!?;]+)`)

const maxPreferenceLen = 60

type preference struct {
	category string
	value    string
}

func extractPreferences(text string) []preference {
	matches := preferencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]preference, 0, len(matches))
	for _, m := range matches {
		value := strings.TrimSpace(m[2])
		value = strings.TrimSuffix(strings.TrimSpace(strings.SplitN(value, " but ", 2)[0]), " too")
		if value == "" {
			continue
		}
		if r := []rune(value); len(r) > maxPreferenceLen {
			value = strings.TrimSpace(string(r[:maxPreferenceLen]))
		}
		category := PreferenceLikes
		switch strings.ToLower(m[1]) {
		case "hate", "dislike", "can't stand", "don't like", "do not like":
			category = PreferenceDislikes
		}
		out = append(out, preference{category: category, value: strings.ToLower(value)})
	}
	return out
}

var topicKeywords = []struct {
	topic string
	words []string
}{
	{"work", []string{"work", "job", "career", "office", "boss", "meeting"}},
	{"health", []string{"health", "healthy", "exercise", "workout", "sleep", "diet", "gym"}},
	{"food", []string{"food", "eat", "cook", "cooking", "recipe", "dinner", "lunch", "breakfast"}},
	{"money", []string{"money", "budget", "save", "saving", "salary", "spend", "bill"}},
	{"learning", []string{"learn", "learning", "study", "course", "book", "read", "reading"}},
	{"family", []string{"family", "mom", "dad", "kids", "friend", "friends"}},
	{"travel", []string{"travel", "trip", "vacation", "flight", "holiday"}},
	{"weather", []string{"weather", "rain", "rainy", "sunny", "snow", "cold", "hot"}},
	{"music", []string{"music", "song", "songs", "band", "guitar"}},
	{"technology", []string{"computer", "phone", "tech", "code", "coding", "programming", "software"}},
}

func scanTopics(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	if len(words) == 0 {
		return nil
	}
	present := make(map[string]struct{}, len(words))
	for _, w := range words {
		present[w] = struct{}{}
	}
	var out []string
	for _, tk := range topicKeywords {
		for _, w := range tk.words {
			if _, ok := present[w]; ok {
				out = append(out, tk.topic)
				break
			}
		}
	}
	return out
}

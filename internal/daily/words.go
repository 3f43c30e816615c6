package daily

import (
	"regexp"
	"strings"
	"unicode"
)

func wordSet(line string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// removeWords drops whole-word occurrences of words (case-insensitive) and
// collapses the remaining whitespace.
func removeWords(line string, words ...string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return strings.Join(strings.Fields(re.ReplaceAllString(line, " ")), " ")
}

// hasWordPrefix reports whether needle starts a word somewhere in haystack.
func hasWordPrefix(haystack, needle string) bool {
	for offset := 0; offset < len(haystack); {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return false
		}
		pos := offset + idx
		if pos == 0 || !isWordByte(haystack[pos-1]) {
			return true
		}
		offset = pos + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

package knowledge

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/stellarlinkco/daymate/internal/capitals"
)

var (
	capitalPattern = regexp.MustCompile(`(?i)capital of\s+([a-z][a-z .'\-]*)`)
	digitRun       = regexp.MustCompile(`\d+`)
)

func (m *Matcher) capitalRule() Rule {
	return Rule{
		Name: "capitals",
		Match: func(lower string) bool {
			return countryFrom(lower) != ""
		},
		Respond: func(ctx context.Context, line string) string {
			country := countryFrom(line)
			if m.capitals == nil {
				return fmt.Sprintf("Sorry, I had trouble looking up the capital of %s right now.", country)
			}
			capital, err := m.capitals.Lookup(ctx, country)
			switch {
			case err == nil:
				return fmt.Sprintf("The capital of %s is %s.", country, capital)
			case errors.Is(err, capitals.ErrNotFound):
				return fmt.Sprintf("Sorry, I couldn't find the capital of %s.", country)
			default:
				m.logger.Warn("capital lookup failed", zap.String("country", country), zap.Error(err))
				return fmt.Sprintf("Sorry, I had trouble looking up the capital of %s right now.", country)
			}
		},
	}
}

func countryFrom(line string) string {
	match := capitalPattern.FindStringSubmatch(line)
	if match == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(match[1]), "?.,!'-"))
	if len(name) > 4 && strings.EqualFold(name[:4], "the ") {
		name = strings.TrimSpace(name[4:])
	}
	return name
}

func isWhatIs(lower string) bool {
	return strings.Contains(lower, "what is") || strings.Contains(lower, "what's")
}

// firstTwoInts extracts the first two base-10 digit runs, wherever they sit
// relative to the operator.
func firstTwoInts(lower string) (int64, int64, bool) {
	runs := digitRun.FindAllString(lower, 2)
	if len(runs) < 2 {
		return 0, 0, false
	}
	a, errA := strconv.ParseInt(runs[0], 10, 64)
	b, errB := strconv.ParseInt(runs[1], 10, 64)
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return a, b, true
}

func additionRule() Rule {
	return Rule{
		Name: "addition",
		Match: func(lower string) bool {
			if !isWhatIs(lower) || !(strings.Contains(lower, "+") || strings.Contains(lower, "plus")) {
				return false
			}
			_, _, ok := firstTwoInts(lower)
			return ok
		},
		Respond: func(_ context.Context, line string) string {
			a, b, _ := firstTwoInts(strings.ToLower(line))
			return fmt.Sprintf("%d plus %d equals %d.", a, b, a+b)
		},
	}
}

func subtractionRule() Rule {
	return Rule{
		Name: "subtraction",
		Match: func(lower string) bool {
			if !isWhatIs(lower) || !(strings.Contains(lower, "-") || strings.Contains(lower, "minus")) {
				return false
			}
			_, _, ok := firstTwoInts(lower)
			return ok
		},
		Respond: func(_ context.Context, line string) string {
			a, b, _ := firstTwoInts(strings.ToLower(line))
			return fmt.Sprintf("%d minus %d equals %d.", a, b, a-b)
		},
	}
}

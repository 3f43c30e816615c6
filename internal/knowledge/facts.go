package knowledge

import (
	"context"
	"strings"
	"unicode"
)

// FactTable is a closed keyword→answer table. The table applies when any
// trigger occurs in the line (or always, when Triggers is empty) and one of
// its facts has a keyword in the line. Facts are tried in order.
type FactTable struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
	Facts    []Fact   `yaml:"facts"`
}

type Fact struct {
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
}

func (t FactTable) triggered(lower string) bool {
	if len(t.Triggers) == 0 {
		return true
	}
	for _, trig := range t.Triggers {
		if containsFold(lower, trig) {
			return true
		}
	}
	return false
}

func (t FactTable) lookup(lower string) (string, bool) {
	if !t.triggered(lower) {
		return "", false
	}
	// Triggered tables use plain substring containment; a table without
	// triggers sees every line, so its keywords must start a word.
	match := containsWord
	if len(t.Triggers) > 0 {
		match = containsFold
	}
	for _, f := range t.Facts {
		for _, kw := range f.Keywords {
			if match(lower, kw) {
				return f.Answer, true
			}
		}
	}
	return "", false
}

func (t FactTable) rule() Rule {
	return Rule{
		Name: t.Name,
		Match: func(lower string) bool {
			_, ok := t.lookup(lower)
			return ok
		},
		Respond: func(_ context.Context, line string) string {
			answer, _ := t.lookup(strings.ToLower(line))
			return answer
		},
	}
}

func containsFold(haystack, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	return needle != "" && strings.Contains(haystack, needle)
}

// containsWord reports whether needle occurs in haystack starting at a word
// boundary. Keywords act as word prefixes, so "boil" matches "boiling" while
// "eat" does not match "great".
func containsWord(haystack, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return false
		}
		pos := offset + idx
		if pos == 0 || !isWordRune(rune(haystack[pos-1])) {
			return true
		}
		offset = pos + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

var builtinTables = []FactTable{
	{
		Name:     "colors",
		Triggers: []string{"color", "colour"},
		Facts: []Fact{
			{Keywords: []string{"sky"}, Answer: "The sky is typically blue during the day."},
			{Keywords: []string{"grass"}, Answer: "Grass is typically green."},
			{Keywords: []string{"sun"}, Answer: "The sun appears yellow or white."},
			{Keywords: []string{"ocean", "sea"}, Answer: "The ocean usually looks blue because water absorbs red light."},
			{Keywords: []string{"banana"}, Answer: "Ripe bananas are yellow."},
			{Keywords: []string{"blood"}, Answer: "Blood is red."},
		},
	},
	{
		Name:     "days",
		Triggers: []string{"days in", "how many days"},
		Facts: []Fact{
			{Keywords: []string{"leap year"}, Answer: "A leap year has 366 days."},
			{Keywords: []string{"february"}, Answer: "February has 28 days, or 29 in a leap year."},
			{Keywords: []string{"week"}, Answer: "There are 7 days in a week."},
			{Keywords: []string{"month"}, Answer: "Most months have 30 or 31 days, except February which has 28 days (29 in leap years)."},
			{Keywords: []string{"year"}, Answer: "There are 365 days in a regular year, and 366 days in a leap year."},
		},
	},
	{
		Name:     "water",
		Triggers: []string{"water"},
		Facts: []Fact{
			{Keywords: []string{"boil"}, Answer: "Water boils at 100°C (212°F) at sea level."},
			{Keywords: []string{"freez"}, Answer: "Water freezes at 0°C (32°F) at sea level."},
		},
	},
	{
		Name:     "planets",
		Triggers: []string{"planet"},
		Facts: []Fact{
			{Keywords: []string{"closest to sun", "closest to the sun", "nearest to sun", "nearest to the sun"}, Answer: "Mercury is the planet closest to the Sun."},
			{Keywords: []string{"farthest", "furthest"}, Answer: "Neptune is the farthest planet from the Sun."},
			{Keywords: []string{"largest", "biggest"}, Answer: "Jupiter is the largest planet in our solar system."},
			{Keywords: []string{"smallest"}, Answer: "Mercury is the smallest planet in our solar system."},
			{Keywords: []string{"hottest"}, Answer: "Venus is the hottest planet, thanks to its thick atmosphere."},
			{Keywords: []string{"red planet"}, Answer: "Mars is known as the Red Planet."},
			{Keywords: []string{"rings"}, Answer: "Saturn has the most prominent rings in our solar system."},
			{Keywords: []string{"how many"}, Answer: "There are 8 planets in our solar system."},
		},
	},
	{
		Name:     "languages",
		Triggers: []string{"language"},
		Facts: []Fact{
			{Keywords: []string{"most spoken", "most popular", "most common"}, Answer: "English has the most total speakers; Mandarin Chinese has the most native speakers."},
			{Keywords: []string{"brazil"}, Answer: "The official language of Brazil is Portuguese."},
			{Keywords: []string{"mexico"}, Answer: "Spanish is the most widely spoken language in Mexico."},
			{Keywords: []string{"japan"}, Answer: "The main language of Japan is Japanese."},
			{Keywords: []string{"china"}, Answer: "Mandarin Chinese is the official language of China."},
			{Keywords: []string{"how many"}, Answer: "There are roughly 7,000 languages spoken in the world today."},
		},
	},
	{
		Name:     "people",
		Triggers: []string{"who"},
		Facts: []Fact{
			{Keywords: []string{"einstein", "relativity"}, Answer: "Albert Einstein was a physicist best known for the theory of relativity."},
			{Keywords: []string{"newton", "gravity"}, Answer: "Isaac Newton formulated the laws of motion and universal gravitation."},
			{Keywords: []string{"shakespeare", "hamlet"}, Answer: "William Shakespeare was an English playwright who wrote Hamlet and Romeo and Juliet."},
			{Keywords: []string{"mona lisa"}, Answer: "Leonardo da Vinci painted the Mona Lisa."},
			{Keywords: []string{"telephone"}, Answer: "Alexander Graham Bell is credited with inventing the telephone."},
			{Keywords: []string{"light bulb", "lightbulb"}, Answer: "Thomas Edison developed the first practical incandescent light bulb."},
			{Keywords: []string{"penicillin"}, Answer: "Alexander Fleming discovered penicillin in 1928."},
			{Keywords: []string{"moon"}, Answer: "Neil Armstrong was the first person to walk on the Moon, in 1969."},
		},
	},
	{
		Name:     "animals",
		Triggers: []string{"animal", "bird", "mammal"},
		Facts: []Fact{
			{Keywords: []string{"fastest bird"}, Answer: "The peregrine falcon is the fastest bird, diving at over 300 km/h."},
			{Keywords: []string{"fastest"}, Answer: "The cheetah is the fastest land animal, reaching about 110 km/h."},
			{Keywords: []string{"largest", "biggest"}, Answer: "The blue whale is the largest animal ever known to have lived."},
			{Keywords: []string{"tallest"}, Answer: "The giraffe is the tallest animal."},
			{Keywords: []string{"slowest"}, Answer: "The three-toed sloth is one of the slowest mammals."},
			{Keywords: []string{"smallest"}, Answer: "The bee hummingbird is the smallest bird."},
		},
	},
	{
		Name: "advice",
		Facts: []Fact{
			{Keywords: []string{"stress", "anxious", "anxiety"}, Answer: "Try slow breathing: in for 4 seconds, hold for 4, out for 6. A short walk helps too."},
			{Keywords: []string{"sleep", "insomnia"}, Answer: "Keep a consistent bedtime, dim screens an hour before bed, and keep your room cool."},
			{Keywords: []string{"healthy", "health"}, Answer: "Small steady habits win: water, movement every day, and plenty of vegetables."},
			{Keywords: []string{"eat", "diet", "nutrition", "food"}, Answer: "Aim for a plate that's half vegetables, a quarter protein and a quarter whole grains."},
			{Keywords: []string{"money", "budget", "saving"}, Answer: "Pay yourself first: move a fixed amount into savings on payday before spending."},
			{Keywords: []string{"learn", "study"}, Answer: "Study in short focused blocks and test yourself instead of rereading."},
			{Keywords: []string{"productive", "productivity", "procrastinat", "focus"}, Answer: "Pick three priorities for the day and start with the smallest next action."},
			{Keywords: []string{"rain", "sunny", "snow"}, Answer: "Check the forecast the night before and plan indoor alternatives."},
			{Keywords: []string{"busy", "deadline", "overwhelmed"}, Answer: "Block your calendar for deep work and add buffers between meetings."},
		},
	},
}

package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarlinkco/daymate/internal/capitals"
)

type fakeCapitals struct {
	capital string
	err     error
	asked   []string
}

func (f *fakeCapitals) Lookup(_ context.Context, country string) (string, error) {
	f.asked = append(f.asked, country)
	return f.capital, f.err
}

func TestArithmetic(t *testing.T) {
	m := New()
	ctx := context.Background()

	assert.True(t, m.Claims("what is 7 plus 5"))
	assert.Contains(t, m.Answer(ctx, "what is 7 plus 5"), "12")
	assert.Contains(t, m.Answer(ctx, "What is 10 minus 3?"), "7")
	assert.Equal(t, "4 plus 9 equals 13.", m.Answer(ctx, "what is 4+9"))
	assert.Equal(t, "20 minus 30 equals -10.", m.Answer(ctx, "what's 20 - 30"))
	// Operands are the first two digit runs regardless of operator position.
	assert.Equal(t, "3 plus 4 equals 7.", m.Answer(ctx, "what is 3 and 4 plus 100"))
}

func TestArithmetic_FewerThanTwoIntegersFallsThrough(t *testing.T) {
	m := New()
	assert.False(t, m.Claims("what is plus"))
	assert.False(t, m.Claims("what is 5 plus"))
	assert.False(t, m.Claims("7 plus 5"), "needs a what-is phrase")
}

func TestCapitals_ThreeOutcomes(t *testing.T) {
	ctx := context.Background()

	found := &fakeCapitals{capital: "Paris"}
	m := New(WithCapitals(found))
	require.True(t, m.Claims("What is the capital of France?"))
	assert.Equal(t, "The capital of France is Paris.", m.Answer(ctx, "What is the capital of France?"))
	assert.Equal(t, []string{"France"}, found.asked)

	missing := &fakeCapitals{err: capitals.ErrNotFound}
	m = New(WithCapitals(missing))
	assert.Equal(t, "Sorry, I couldn't find the capital of Atlantis.", m.Answer(ctx, "capital of Atlantis!"))

	broken := &fakeCapitals{err: errors.New("dial tcp: timeout")}
	m = New(WithCapitals(broken))
	failure := m.Answer(ctx, "capital of the United Kingdom")
	assert.Equal(t, "Sorry, I had trouble looking up the capital of United Kingdom right now.", failure)
	assert.NotContains(t, failure, "dial tcp")
}

func TestFactTables(t *testing.T) {
	m := New()
	ctx := context.Background()

	cases := map[string]string{
		"what color is the sky":                  "The sky is typically blue during the day.",
		"How many days in a week?":               "There are 7 days in a week.",
		"how many days in a leap year":           "A leap year has 366 days.",
		"when does water boil":                   "Water boils at 100°C (212°F) at sea level.",
		"at what temperature does water freeze?": "Water freezes at 0°C (32°F) at sea level.",
		"which planet is closest to the sun":     "Mercury is the planet closest to the Sun.",
		"what is the largest planet":             "Jupiter is the largest planet in our solar system.",
		"what language do they speak in Brazil":  "The official language of Brazil is Portuguese.",
		"who painted the mona lisa":              "Leonardo da Vinci painted the Mona Lisa.",
		"what is the fastest bird":               "The peregrine falcon is the fastest bird, diving at over 300 km/h.",
		"what's the tallest animal":              "The giraffe is the tallest animal.",
		"I can't sleep at night":                 "Keep a consistent bedtime, dim screens an hour before bed, and keep your room cool.",
	}
	for line, want := range cases {
		assert.True(t, m.Claims(line), line)
		assert.Equal(t, want, m.Answer(ctx, line), line)
	}
}

func TestFactTables_KeywordsMatchAtWordStart(t *testing.T) {
	m := New()
	assert.False(t, m.Claims("that sounds great"), "eat must not match inside great")
	assert.False(t, m.Claims("what color is my car"), "trigger without a known keyword")
}

func TestFactTables_TriggeredTablesMatchSubstrings(t *testing.T) {
	m := New()
	ctx := context.Background()
	assert.True(t, m.Claims("when does seawater boil"))
	assert.Equal(t, "Water boils at 100°C (212°F) at sea level.", m.Answer(ctx, "when does seawater boil"))
	assert.Equal(t, "Water boils at 100°C (212°F) at sea level.", m.Answer(ctx, "when does water reboil"))
}

func TestRuleOrder(t *testing.T) {
	m := New(WithFactTables(FactTable{Name: "custom", Facts: []Fact{{Keywords: []string{"zebra"}, Answer: "stripes"}}}))
	names := m.RuleNames()
	require.GreaterOrEqual(t, len(names), 4)
	assert.Equal(t, []string{"capitals", "addition", "subtraction"}, names[:3])
	assert.Equal(t, "custom", names[len(names)-1])

	// Built-in tables win over later packs for the same keyword.
	m = New(WithFactTables(FactTable{Name: "sky", Triggers: []string{"color"}, Facts: []Fact{{Keywords: []string{"sky"}, Answer: "green"}}}))
	assert.Equal(t, "The sky is typically blue during the day.", m.Answer(context.Background(), "color of the sky"))
}

func TestDefaultPool(t *testing.T) {
	var asked []int
	m := New(WithPicker(func(n int) int {
		asked = append(asked, n)
		return n - 1
	}))
	assert.GreaterOrEqual(t, len(defaultResponses), 5)
	assert.False(t, m.Claims("tell me something"))
	assert.Equal(t, defaultResponses[len(defaultResponses)-1], m.Answer(context.Background(), "tell me something"))
	assert.Equal(t, []int{len(defaultResponses)}, asked)
}

func TestLoadFactPacks(t *testing.T) {
	dir := t.TempDir()
	pack := `tables:
  - name: pets
    triggers: [pet, dog, cat]
    facts:
      - keywords: [dog]
        answer: Dogs were domesticated over 15,000 years ago.
      - keywords: [cat]
        answer: Cats sleep 12 to 16 hours a day.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-pets.yaml"), []byte(pack), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	tables, err := LoadFactPacks(dir)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	m := New(WithFactTables(tables...))
	assert.Equal(t, "Cats sleep 12 to 16 hours a day.", m.Answer(context.Background(), "how much does my cat nap"))
}

func TestLoadFactPacks_Errors(t *testing.T) {
	tables, err := LoadFactPacks(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Nil(t, tables)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("tables:\n  - name: x\n    facts: []\n"), 0o644))
	_, err = LoadFactPacks(dir)
	require.ErrorIs(t, err, errInvalidFactPack)

	dup := t.TempDir()
	body := "tables:\n  - name: same\n    facts:\n      - keywords: [a]\n        answer: b\n"
	require.NoError(t, os.WriteFile(filepath.Join(dup, "a.yaml"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dup, "b.yml"), []byte(body), 0o644))
	_, err = LoadFactPacks(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate fact table")
}

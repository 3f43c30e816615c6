package daily

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTip(t *testing.T) {
	tb, err := CalculateTip(50, 20)
	require.NoError(t, err)
	assert.Equal(t, "50.00", tb.Amount)
	assert.Equal(t, "10.00", tb.Tip)
	assert.Equal(t, "60.00", tb.Total)

	// 1005 cents * 15% = 150.75 cents rounds half-up to 151.
	tb, err = CalculateTip(10.05, 15)
	require.NoError(t, err)
	assert.Equal(t, "1.51", tb.Tip)
	assert.Equal(t, "11.56", tb.Total)

	tb, err = CalculateTip(1.005, 0)
	require.NoError(t, err)
	assert.Equal(t, "1.01", tb.Amount)

	tb, err = CalculateTip(0.10, 25)
	require.NoError(t, err)
	assert.Equal(t, "0.03", tb.Tip, "2.5 cents rounds up")

	_, err = CalculateTip(-5, 15)
	assert.Error(t, err)
	_, err = CalculateTip(5, -1)
	assert.Error(t, err)

	_, err = CalculateTip(1e17, 15)
	assert.ErrorIs(t, err, errAmountTooLarge)
	_, err = CalculateTip(1e12, 1e9)
	assert.ErrorIs(t, err, errAmountTooLarge)
	assert.Equal(t, tipUsage, TipTable(1e17))
	assert.Equal(t, tipUsage, TipReply("100000000000000000"))

	tb, err = CalculateTip(1e12, 20)
	require.NoError(t, err)
	assert.Equal(t, "200000000000.00", tb.Tip)
	assert.Equal(t, "1200000000000.00", tb.Total)
}

func TestTipReply(t *testing.T) {
	reply := TipReply(" 50")
	assert.Equal(t, "💰 Tip Calculator for $50.00:\n• 15%: $7.50 (Total: $57.50)\n• 18%: $9.00 (Total: $59.00)\n• 20%: $10.00 (Total: $60.00)", reply)

	assert.Equal(t, "💰 Tip Calculator for $80.00:\n• 12.5%: $10.00 (Total: $90.00)", TipReply("$80 12.5%"))

	for _, bad := range []string{"", "abc", "50 abc", "1 2 3", "-10"} {
		assert.Equal(t, tipUsage, TipReply(bad), bad)
	}
}

func TestCalculate(t *testing.T) {
	tests := map[string]string{
		"15 + 25":      "🧮 15 + 25 = 40",
		"2 * (3 + 4)":  "🧮 2 * (3 + 4) = 14",
		"10 / 4":       "🧮 10 / 4 = 2.5",
		"0.1 + 0.2":    "🧮 0.1 + 0.2 = 0.3",
		"-3 + 5":       "🧮 -3 + 5 = 2",
		"2 - 3 - 4":    "🧮 2 - 3 - 4 = -5",
		"8 / 2 / 2":    "🧮 8 / 2 / 2 = 2",
		"1 + 2 * 3":    "🧮 1 + 2 * 3 = 7",
		"-(2 + 3) * 2": "🧮 -(2 + 3) * 2 = -10",
		"((1))":        "🧮 ((1)) = 1",
		"1/0":          "I can't divide by zero. Please check your expression.",
		"2 +":          "Sorry, I couldn't calculate that. Please check your expression and try again.",
		"(1 + 2":       "Sorry, I couldn't calculate that. Please check your expression and try again.",
		"1.2.3 + 1":    "Sorry, I couldn't calculate that. Please check your expression and try again.",
		"2 3":          "Sorry, I couldn't calculate that. Please check your expression and try again.",
		"rm -rf /":     "For security, I can only calculate basic math expressions (+, -, *, /, parentheses).",
		"   ":          calcUsage,
		"tip 50 20":    "💰 Tip Calculator for $50.00:\n• 20%: $10.00 (Total: $60.00)",
		"TIP nonsense": tipUsage,
	}
	for expr, want := range tests {
		assert.Equal(t, want, Calculate(expr), expr)
	}
}

func TestEvaluate_DeepNesting(t *testing.T) {
	expr := ""
	for i := 0; i < 100; i++ {
		expr += "("
	}
	expr += "1"
	for i := 0; i < 100; i++ {
		expr += ")"
	}
	_, err := Evaluate(expr)
	assert.ErrorIs(t, err, errSyntax)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(-0.0000000000001))
	assert.Equal(t, "3.3333333333", FormatNumber(10.0/3))
}

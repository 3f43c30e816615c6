package daily

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const DefaultTipPercent = 15.0

var extraTipPercents = []float64{18, 20}

// maxCents bounds amounts in cents so a tip plus its bill still fits in an
// int64.
const maxCents = math.MaxInt64 / 200

var errAmountTooLarge = errors.New("amount too large")

// TipBreakdown holds amounts already rounded half-up to cents.
type TipBreakdown struct {
	Percent float64
	Amount  string
	Tip     string
	Total   string
}

// CalculateTip splits a bill into tip and total. Rounding happens once,
// on integer cents.
func CalculateTip(amount, percent float64) (TipBreakdown, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return TipBreakdown{}, fmt.Errorf("invalid amount %v", amount)
	}
	if math.IsNaN(percent) || math.IsInf(percent, 0) || percent < 0 {
		return TipBreakdown{}, fmt.Errorf("invalid percentage %v", percent)
	}
	if amount*100 > maxCents {
		return TipBreakdown{}, fmt.Errorf("%w: %v", errAmountTooLarge, amount)
	}
	amountCents := roundHalfUp(amount * 100)
	tip := float64(amountCents) * percent / 100
	if tip > maxCents {
		return TipBreakdown{}, fmt.Errorf("%w: %v%% of %v", errAmountTooLarge, percent, amount)
	}
	tipCents := roundHalfUp(tip)
	return TipBreakdown{
		Percent: percent,
		Amount:  formatCents(amountCents),
		Tip:     formatCents(tipCents),
		Total:   formatCents(amountCents + tipCents),
	}, nil
}

func roundHalfUp(v float64) int64 {
	// Nudge by a tiny epsilon so 1.005*100 = 100.49999... still rounds up.
	return int64(math.Floor(v + 0.5 + 1e-9))
}

func formatCents(c int64) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}

const tipUsage = "Please provide a valid amount for tip calculation. Example: /calc tip 50 or /calc tip 50 20"

// TipReply parses "<amount> [<percent>]". Without a percent it lists the
// default along with the common alternatives.
func TipReply(args string) string {
	fields := strings.Fields(strings.NewReplacer("$", "", "%", "").Replace(args))
	if len(fields) == 0 || len(fields) > 2 {
		return tipUsage
	}
	amount, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return tipUsage
	}
	if len(fields) == 1 {
		return TipTable(amount)
	}
	p, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return tipUsage
	}
	return TipTable(amount, p)
}

// TipTable formats the tip for each percentage. With none given it shows the
// default percentage and the common alternatives.
func TipTable(amount float64, percents ...float64) string {
	if len(percents) == 0 {
		percents = append([]float64{DefaultTipPercent}, extraTipPercents...)
	}
	var b strings.Builder
	for i, p := range percents {
		tb, err := CalculateTip(amount, p)
		if err != nil {
			return tipUsage
		}
		if i == 0 {
			fmt.Fprintf(&b, "💰 Tip Calculator for $%s:", tb.Amount)
		}
		fmt.Fprintf(&b, "\n• %s%%: $%s (Total: $%s)", strconv.FormatFloat(p, 'f', -1, 64), tb.Tip, tb.Total)
	}
	return b.String()
}

const calcUsage = "Please provide a calculation. Examples:\n• /calc 15 + 25\n• /calc tip 50 (calculates 15%, 18% and 20% tips)\n• /calc 10 * 8"

var allowedExpr = regexp.MustCompile(`^[\d\s+\-*/.()]+$`)

// Calculate evaluates a basic arithmetic expression, or a tip request when
// the expression starts with "tip".
func Calculate(expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return calcUsage
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(expr), "tip"); ok {
		return TipReply(rest)
	}
	if !allowedExpr.MatchString(expr) {
		return "For security, I can only calculate basic math expressions (+, -, *, /, parentheses)."
	}
	v, err := Evaluate(expr)
	if err != nil {
		if errors.Is(err, ErrDivisionByZero) {
			return "I can't divide by zero. Please check your expression."
		}
		return "Sorry, I couldn't calculate that. Please check your expression and try again."
	}
	return fmt.Sprintf("🧮 %s = %s", expr, FormatNumber(v))
}

// FormatNumber prints v without float noise (0.1+0.2 prints as 0.3).
func FormatNumber(v float64) string {
	r := math.Round(v*1e10) / 1e10
	if r == 0 {
		r = 0 // normalise -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

var (
	ErrDivisionByZero = errors.New("division by zero")
	errSyntax         = errors.New("syntax error")
)

// Evaluate parses and evaluates expr with the usual precedence:
//
//	expr   = term { ("+"|"-") term }
//	term   = factor { ("*"|"/") factor }
//	factor = ["+"|"-"] ( number | "(" expr ")" )
func Evaluate(expr string) (float64, error) {
	p := &exprParser{src: expr}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("%w: unexpected %q at %d", errSyntax, p.src[p.pos], p.pos)
	}
	return v, nil
}

type exprParser struct {
	src   string
	pos   int
	depth int
}

const maxExprDepth = 64

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) term() (float64, error) {
	left, err := p.factor()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.factor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		left /= right
	}
}

func (p *exprParser) factor() (float64, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxExprDepth {
		return 0, fmt.Errorf("%w: expression nested too deeply", errSyntax)
	}

	switch c := p.peek(); {
	case c == '+' || c == '-':
		p.pos++
		v, err := p.factor()
		if c == '-' {
			v = -v
		}
		return v, err
	case c == '(':
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: missing )", errSyntax)
		}
		p.pos++
		return v, nil
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
			p.pos++
		}
		v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad number %q", errSyntax, p.src[start:p.pos])
		}
		return v, nil
	case c == 0:
		return 0, fmt.Errorf("%w: unexpected end of expression", errSyntax)
	default:
		return 0, fmt.Errorf("%w: unexpected %q", errSyntax, c)
	}
}

package router

import (
	"strconv"
	"strings"

	"github.com/stellarlinkco/daymate/internal/daily"
	"github.com/stellarlinkco/daymate/internal/export"
)

// Command is one parsed slash command. The set of implementations is closed;
// each carries the arguments its handler needs, already validated.
type Command interface {
	// Name is the canonical command name without the slash.
	Name() string
	command()
}

type (
	HelpCmd  struct{}
	ExitCmd  struct{}
	ClearCmd struct{}
	StatsCmd struct{}
	// TipCmd is the random tip of the day, unrelated to CalcTipCmd.
	TipCmd     struct{}
	HistoryCmd struct{ Count int }
	ExportCmd  struct{ Format export.Format }
	RemindCmd  struct{ Text, When string }
	// RemindersCmd lists reminders, or marks reminder Done (1-based) complete.
	RemindersCmd struct{ Done int }
	HabitCmd     struct{ Habit string }
	CalcCmd      struct{ Expr string }
	CalcTipCmd   struct {
		Amount   float64
		Percents []float64
	}
	WeatherCmd struct{ Condition string }
	TimeCmd    struct{ Zone string }
	ConvertCmd struct {
		Value    float64
		From, To string
	}
	SearchCmd  struct{ Query string }
	UnknownCmd struct{ Raw string }
)

func (HelpCmd) Name() string      { return "help" }
func (ExitCmd) Name() string      { return "exit" }
func (ClearCmd) Name() string     { return "clear" }
func (StatsCmd) Name() string     { return "stats" }
func (TipCmd) Name() string       { return "tip" }
func (HistoryCmd) Name() string   { return "history" }
func (ExportCmd) Name() string    { return "export" }
func (RemindCmd) Name() string    { return "remind" }
func (RemindersCmd) Name() string { return "reminders" }
func (HabitCmd) Name() string     { return "habit" }
func (CalcCmd) Name() string      { return "calc" }
func (CalcTipCmd) Name() string   { return "calc tip" }
func (WeatherCmd) Name() string   { return "weather" }
func (TimeCmd) Name() string      { return "time" }
func (ConvertCmd) Name() string   { return "convert" }
func (SearchCmd) Name() string    { return "search" }
func (UnknownCmd) Name() string   { return "unknown" }

func (HelpCmd) command()      {}
func (ExitCmd) command()      {}
func (ClearCmd) command()     {}
func (StatsCmd) command()     {}
func (TipCmd) command()       {}
func (HistoryCmd) command()   {}
func (ExportCmd) command()    {}
func (RemindCmd) command()    {}
func (RemindersCmd) command() {}
func (HabitCmd) command()     {}
func (CalcCmd) command()      {}
func (CalcTipCmd) command()   {}
func (WeatherCmd) command()   {}
func (TimeCmd) command()      {}
func (ConvertCmd) command()   {}
func (SearchCmd) command()    {}
func (UnknownCmd) command()   {}

// UsageError reports command arguments that failed validation. Its message
// is shown to the user as the reply.
type UsageError struct {
	Command string
	Usage   string
}

func (e *UsageError) Error() string { return e.Usage }

const (
	defaultHistoryCount = 5

	historyUsage   = "Usage: /history [count]. Example: /history 10"
	exportUsage    = "Usage: /export [json|yaml|sqlite]"
	remindUsage    = "Please specify what you'd like to be reminded about. Example: /remind Call mom at 3pm"
	remindersUsage = "Usage: /reminders or /reminders done <number>"
	calcUsage      = "Please provide a calculation. Examples:\n• /calc 15 + 25\n• /calc tip 50 (calculates 15%, 18% and 20% tips)\n• /calc 10 * 8"
	calcTipUsage   = "Please provide a valid amount for tip calculation. Example: /calc tip 50 or /calc tip 50 20"
	convertUsage   = "Usage: /convert <value> <from> <to>. Example: /convert 10 km mi"
	searchUsage    = "Usage: /search <words>. Example: /search dinner"
)

func usage(cmd, text string) error {
	return &UsageError{Command: cmd, Usage: text}
}

// IsCommand reports whether line is routed to the command tier: a leading
// slash, or a bare exit/quit.
func IsCommand(line string) bool {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "/") {
		return true
	}
	switch strings.ToLower(line) {
	case "exit", "quit":
		return true
	}
	return false
}

// ParseCommand turns a command line into its variant. Unrecognized names
// yield UnknownCmd, not an error; malformed arguments yield *UsageError.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	body := strings.TrimPrefix(line, "/")
	name, args, _ := strings.Cut(body, " ")
	name = strings.ToLower(name)
	args = strings.TrimSpace(args)

	switch name {
	case "help", "?":
		return HelpCmd{}, nil
	case "exit", "quit", "bye":
		return ExitCmd{}, nil
	case "clear":
		return ClearCmd{}, nil
	case "stats":
		return StatsCmd{}, nil
	case "tip":
		return TipCmd{}, nil
	case "history":
		return parseHistory(args)
	case "export":
		f, err := export.ParseFormat(args)
		if err != nil {
			return nil, usage(name, exportUsage)
		}
		return ExportCmd{Format: f}, nil
	case "remind":
		text, when := daily.SplitWhen(args)
		if text == "" {
			return nil, usage(name, remindUsage)
		}
		return RemindCmd{Text: text, When: when}, nil
	case "reminders":
		return parseReminders(args)
	case "habit":
		return HabitCmd{Habit: args}, nil
	case "calc":
		return parseCalc(args)
	case "weather":
		return WeatherCmd{Condition: args}, nil
	case "time":
		return TimeCmd{Zone: args}, nil
	case "convert":
		return parseConvert(args)
	case "search":
		if args == "" {
			return nil, usage(name, searchUsage)
		}
		return SearchCmd{Query: args}, nil
	}
	return UnknownCmd{Raw: "/" + name}, nil
}

func parseHistory(args string) (Command, error) {
	if args == "" {
		return HistoryCmd{Count: defaultHistoryCount}, nil
	}
	n, err := strconv.Atoi(args)
	if err != nil || n <= 0 {
		return nil, usage("history", historyUsage)
	}
	return HistoryCmd{Count: n}, nil
}

func parseReminders(args string) (Command, error) {
	if args == "" {
		return RemindersCmd{}, nil
	}
	fields := strings.Fields(args)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "done") {
		return nil, usage("reminders", remindersUsage)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(fields[1], "#"))
	if err != nil || n <= 0 {
		return nil, usage("reminders", remindersUsage)
	}
	return RemindersCmd{Done: n}, nil
}

func parseCalc(args string) (Command, error) {
	if args == "" {
		return nil, usage("calc", calcUsage)
	}
	first, rest, _ := strings.Cut(args, " ")
	if !strings.EqualFold(first, "tip") {
		return CalcCmd{Expr: args}, nil
	}

	fields := strings.Fields(strings.NewReplacer("$", "", "%", "").Replace(rest))
	if len(fields) == 0 || len(fields) > 2 {
		return nil, usage("calc tip", calcTipUsage)
	}
	nums := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			return nil, usage("calc tip", calcTipUsage)
		}
		nums[i] = v
	}
	return CalcTipCmd{Amount: nums[0], Percents: nums[1:]}, nil
}

func parseConvert(args string) (Command, error) {
	fields := strings.Fields(args)
	if len(fields) == 4 && strings.EqualFold(fields[2], "to") {
		fields = []string{fields[0], fields[1], fields[3]}
	}
	if len(fields) != 3 {
		return nil, usage("convert", convertUsage)
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, usage("convert", convertUsage)
	}
	return ConvertCmd{Value: v, From: fields[1], To: fields[2]}, nil
}

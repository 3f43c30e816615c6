package cron

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	rcron "github.com/robfig/cron/v3"
)

// ErrUnrecognizedTime is returned when an expression is neither a clock time,
// a relative offset nor a cron descriptor.
var ErrUnrecognizedTime = errors.New("unrecognized time")

var (
	clockPattern    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?$`)
	relativePattern = regexp.MustCompile(`^(?:in\s+)?(\d+)\s*(m|mins?|minutes?|h|hrs?|hours?|d|days?)$`)
)

const defaultTomorrowHour = 9

// ParseWhen resolves a reminder time expression against now. Supported forms:
//
//	3pm, 3:30 pm, 15:30, noon, midnight   next occurrence of that wall clock time
//	tomorrow [<clock>]                    tomorrow at clock (09:00 when omitted)
//	in 20 minutes, in 2h, in 1 day        offset from now
//	@daily, 0 9 * * *                     next firing of the cron descriptor
//
// Wall clock times are interpreted in now's location.
func ParseWhen(expr string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(expr)
	s := strings.ToLower(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnrecognizedTime)
	}

	if strings.HasPrefix(s, "@") || len(strings.Fields(s)) == 5 || strings.HasPrefix(s, "cron_tz=") || strings.HasPrefix(s, "tz=") {
		spec := raw
		if !strings.HasPrefix(s, "cron_tz=") && !strings.HasPrefix(s, "tz=") {
			spec = "CRON_TZ=" + now.Location().String() + " " + raw
		}
		sched, err := rcron.ParseStandard(spec)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrUnrecognizedTime, err)
		}
		return sched.Next(now), nil
	}

	if d, ok := parseRelative(s); ok {
		return now.Add(d), nil
	}

	tomorrow := false
	if rest, ok := strings.CutPrefix(s, "tomorrow"); ok {
		tomorrow = true
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "at "))
		if s == "" {
			s = strconv.Itoa(defaultTomorrowHour) + ":00"
		}
	}

	hour, minute, ok := parseClock(s)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedTime, raw)
	}

	y, mo, d := now.Date()
	at := time.Date(y, mo, d, hour, minute, 0, 0, now.Location())
	switch {
	case tomorrow:
		at = time.Date(y, mo, d+1, hour, minute, 0, 0, now.Location())
	case !at.After(now):
		at = time.Date(y, mo, d+1, hour, minute, 0, 0, now.Location())
	}
	return at, nil
}

func parseClock(s string) (int, int, bool) {
	switch s {
	case "noon":
		return 12, 0, true
	case "midnight":
		return 0, 0, true
	}
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, false
	}

	meridiem := strings.ReplaceAll(m[3], ".", "")
	switch meridiem {
	case "":
		// A bare number is too ambiguous to schedule.
		if m[2] == "" || hour > 23 {
			return 0, 0, false
		}
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		hour %= 12
		if meridiem == "pm" {
			hour += 12
		}
	}
	return hour, minute, true
}

func parseRelative(s string) (time.Duration, bool) {
	m := relativePattern.FindStringSubmatch(s)
	if m == nil {
		if rest, ok := strings.CutPrefix(s, "in "); ok {
			if d, err := time.ParseDuration(strings.TrimSpace(rest)); err == nil && d > 0 {
				return d, true
			}
		}
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	unit := 24 * time.Hour
	switch m[2][0] {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	}
	// time.Duration spans about 292 years; longer offsets would wrap.
	if int64(n) > math.MaxInt64/int64(unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

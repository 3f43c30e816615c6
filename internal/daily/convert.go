package daily

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrUnsupportedConversion = errors.New("unsupported conversion")

const (
	kgPerPound = 0.45359237
	kmPerMile  = 1.609344
)

type unit string

const (
	celsius    unit = "c"
	fahrenheit unit = "f"
	kilogram   unit = "kg"
	pound      unit = "lb"
	kilometer  unit = "km"
	mile       unit = "mi"
)

var unitAliases = map[string]unit{
	"c": celsius, "°c": celsius, "celsius": celsius, "centigrade": celsius,
	"f": fahrenheit, "°f": fahrenheit, "fahrenheit": fahrenheit,
	"kg": kilogram, "kgs": kilogram, "kilo": kilogram, "kilos": kilogram, "kilogram": kilogram, "kilograms": kilogram,
	"lb": pound, "lbs": pound, "pound": pound, "pounds": pound,
	"km": kilometer, "kms": kilometer, "kilometer": kilometer, "kilometers": kilometer, "kilometre": kilometer, "kilometres": kilometer,
	"mi": mile, "mile": mile, "miles": mile,
}

var conversions = map[[2]unit]func(float64) float64{
	{celsius, fahrenheit}: func(v float64) float64 { return v*9/5 + 32 },
	{fahrenheit, celsius}: func(v float64) float64 { return (v - 32) * 5 / 9 },
	{kilogram, pound}:     func(v float64) float64 { return v / kgPerPound },
	{pound, kilogram}:     func(v float64) float64 { return v * kgPerPound },
	{kilometer, mile}:     func(v float64) float64 { return v / kmPerMile },
	{mile, kilometer}:     func(v float64) float64 { return v * kmPerMile },
}

const supportedConversions = "°C ↔ °F, kg ↔ lb, km ↔ mi"

// Convert converts value between two units of the fixed table. Unknown
// units and cross-dimension pairs return ErrUnsupportedConversion.
func Convert(value float64, from, to string) (float64, error) {
	f, okFrom := unitAliases[strings.ToLower(strings.TrimSpace(from))]
	t, okTo := unitAliases[strings.ToLower(strings.TrimSpace(to))]
	if !okFrom || !okTo {
		return 0, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, from, to)
	}
	if f == t {
		return value, nil
	}
	fn, ok := conversions[[2]unit{f, t}]
	if !ok {
		return 0, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, from, to)
	}
	return fn(value), nil
}

func UnsupportedMessage(from, to string) string {
	return fmt.Sprintf("Sorry, I can't convert %s to %s. Supported conversions: %s.", from, to, supportedConversions)
}

const convertUsage = "Usage: /convert <value> <from> <to>. Example: /convert 10 km mi. Supported conversions: " + supportedConversions + "."

// ConvertReply parses "<value> <from> [to] <to>".
func ConvertReply(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 4 && strings.EqualFold(fields[2], "to") {
		fields = []string{fields[0], fields[1], fields[3]}
	}
	if len(fields) != 3 {
		return convertUsage
	}
	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return convertUsage
	}
	return ConversionReply(value, fields[1], fields[2])
}

// ConversionReply converts and formats the result to two decimals, or
// explains which pairs are supported.
func ConversionReply(value float64, from, to string) string {
	result, err := Convert(value, from, to)
	if err != nil {
		return UnsupportedMessage(from, to)
	}
	if !inCentsRange(value) || !inCentsRange(result) {
		return convertUsage
	}
	return fmt.Sprintf("🔄 %s %s = %s %s", FormatNumber(value), from, formatRounded(result), to)
}

func inCentsRange(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v)*100 <= maxCents
}

func formatRounded(v float64) string {
	return strconv.FormatFloat(float64(roundHalfUp(v*100))/100, 'f', -1, 64)
}

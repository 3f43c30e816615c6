package daily

import (
	"fmt"
	"strings"
	"time"
)

var weatherAdvice = []struct {
	keywords []string
	advice   string
}{
	{[]string{"sunny", "sunshine"}, "☀️ Great weather! Don't forget sunscreen and stay hydrated."},
	{[]string{"rain", "drizzl", "shower", "storm"}, "🌧️ Perfect day for indoor activities! Maybe catch up on reading or organize your space."},
	{[]string{"cloud", "overcast"}, "☁️ Nice mild weather, great for a walk or outdoor errands."},
	{[]string{"cold", "freezing", "chilly"}, "🥶 Bundle up! Hot drinks and warm meals will keep you cozy."},
	{[]string{"hot", "heat", "humid"}, "🔥 Stay cool and hydrated! Seek shade and avoid peak sun hours."},
	{[]string{"wind", "breezy"}, "💨 Secure loose items and maybe skip the outdoor workout today."},
	{[]string{"snow", "sleet"}, "❄️ Beautiful but be careful! Hot cocoa weather for sure."},
}

// WeatherAdvice returns the advice for the first condition mentioned.
func WeatherAdvice(condition string) string {
	lower := strings.ToLower(condition)
	for _, w := range weatherAdvice {
		for _, kw := range w.keywords {
			if hasWordPrefix(lower, kw) {
				return w.advice
			}
		}
	}
	return "🌤️ Whatever the weather, make it a great day! Stay prepared and enjoy the moment."
}

var zoneAbbreviations = map[string]string{
	"utc":  "UTC",
	"gmt":  "Etc/GMT",
	"est":  "America/New_York",
	"edt":  "America/New_York",
	"et":   "America/New_York",
	"cst":  "America/Chicago",
	"cdt":  "America/Chicago",
	"ct":   "America/Chicago",
	"mst":  "America/Denver",
	"mdt":  "America/Denver",
	"mt":   "America/Denver",
	"pst":  "America/Los_Angeles",
	"pdt":  "America/Los_Angeles",
	"pt":   "America/Los_Angeles",
	"bst":  "Europe/London",
	"cet":  "Europe/Paris",
	"cest": "Europe/Paris",
	"ist":  "Asia/Kolkata",
	"jst":  "Asia/Tokyo",
	"aest": "Australia/Sydney",
}

// resolveZone accepts IANA names (case-insensitive for the final
// component, e.g. "europe/paris"), common abbreviations and bare city names
// found in the zone database ("tokyo", "new york").
func resolveZone(zone string) (*time.Location, bool) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return nil, false
	}
	if name, ok := zoneAbbreviations[strings.ToLower(zone)]; ok {
		zone = name
	}
	if loc, err := time.LoadLocation(zone); err == nil && !strings.EqualFold(zone, "local") {
		return loc, true
	}
	if loc, err := time.LoadLocation(canonicalZone(zone)); err == nil {
		return loc, true
	}
	city := canonicalZone(zone)
	for _, region := range []string{"America", "Europe", "Asia", "Australia", "Africa", "Pacific"} {
		if loc, err := time.LoadLocation(region + "/" + city); err == nil {
			return loc, true
		}
	}
	return nil, false
}

// canonicalZone title-cases each path segment and joins words with
// underscores: "new york" -> "New_York", "america/new york" -> "America/New_York".
func canonicalZone(zone string) string {
	parts := strings.Split(zone, "/")
	for i, part := range parts {
		words := strings.Fields(strings.ReplaceAll(part, "_", " "))
		for j, w := range words {
			words[j] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
		parts[i] = strings.Join(words, "_")
	}
	return strings.Join(parts, "/")
}

func displayZone(input string, loc *time.Location) string {
	if _, ok := zoneAbbreviations[strings.ToLower(strings.TrimSpace(input))]; ok {
		return fmt.Sprintf("%s (%s)", loc.String(), strings.ToUpper(strings.TrimSpace(input)))
	}
	return loc.String()
}

func formatClock(t time.Time, zoneLabel string) string {
	abbr, _ := t.Zone()
	return fmt.Sprintf("🕐 Current time: %s %s\n📅 Today's date: %s\n🌍 Time zone: %s",
		t.Format("3:04 PM"), abbr, t.Format("Monday, January 2, 2006"), zoneLabel)
}

// CurrentTime formats the time in zone, or in the engine's location when
// zone is empty.
func (e *Engine) CurrentTime(zone string) string {
	if strings.TrimSpace(zone) == "" {
		return formatClock(e.clock(), e.loc.String())
	}
	loc, ok := resolveZone(zone)
	if !ok {
		return fmt.Sprintf("Sorry, I don't know the time zone %q. Try an IANA name like Europe/Paris or an abbreviation like PST.", zone)
	}
	return formatClock(e.now().In(loc), displayZone(zone, loc))
}

// Greeting picks a salutation for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "Good morning"
	case h >= 12 && h < 17:
		return "Good afternoon"
	case h >= 17 && h < 22:
		return "Good evening"
	default:
		return "Hello, night owl"
	}
}

func (e *Engine) Greeting() string {
	return Greeting(e.clock())
}

var dailyTips = []string{
	"💡 Start your day with a glass of water to stay hydrated!",
	"🌅 Try the 2-minute rule: if something takes less than 2 minutes, do it now!",
	"📱 Take regular breaks from screens to rest your eyes.",
	"🚶 A 10-minute walk can boost your energy and mood.",
	"📝 Write down 3 things you're grateful for each day.",
	"🧘 Take 5 deep breaths when feeling stressed.",
	"🛏️ Make your bed first thing in the morning for an instant win!",
	"🥗 Prep healthy snacks in advance to avoid junk food.",
	"📚 Read for 15 minutes before bed instead of scrolling.",
	"🎯 Set 3 priorities for tomorrow before ending your day.",
	"☀️ Get some sunlight exposure in the morning to regulate sleep.",
	"🧹 Clean as you go to maintain a tidy space.",
	"💪 Do 10 push-ups or stretches during work breaks.",
	"📞 Call a friend or family member you haven't spoken to recently.",
	"🎵 Listen to uplifting music to boost your mood.",
}

// DailyTip returns a random tip of the day.
func (e *Engine) DailyTip() string {
	return dailyTips[e.pick(len(dailyTips))] + "\n\n💪 You've got this! Small daily actions lead to big results."
}

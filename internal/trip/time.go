package trip

import (
	"regexp"
	"strconv"
	"time"
)

var (
	isoTimeRegex      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z`)
	durShorthandRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)([smh])$`)
)

// FormatTime renders a timestamp in the canonical form stored in
// history and schedule entries: RFC 3339 in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseTime parses an RFC 3339 timestamp, with or without fractional
// seconds.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05.000Z07:00", s)
}

// Duration parses duration shorthand as authored in scripts: "10s",
// "5m", "2.5h". Malformed or negative shorthand parses to zero, so a
// bad wait in a script degrades to no delay rather than an error.
func Duration(shorthand string) time.Duration {
	m := durShorthandRegex.FindStringSubmatch(shorthand)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil || n < 0 {
		return 0
	}
	switch m[2] {
	case "s":
		return time.Duration(n * float64(time.Second))
	case "m":
		return time.Duration(n * float64(time.Minute))
	case "h":
		return time.Duration(n * float64(time.Hour))
	}
	return 0
}

// LaterOf returns the later of two timestamps.
func LaterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

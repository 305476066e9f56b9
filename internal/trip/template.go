package trip

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var (
	interpolationRegex = regexp.MustCompile(`\{\{\s*([\w_\-.:]+)\s*\}\}`)
	ifBlockRegex       = regexp.MustCompile(`\{%\s*if\s+(.+?)\s*%\}(.*?)(?:\{%\s*else\s*%\}(.*?))?\{%\s*endif\s*%\}`)
	phoneRegex         = regexp.MustCompile(`^\d{10}$`)

	foldCaser = cases.Fold()
)

// Fold returns the Unicode case-folded form of s, used for all
// case-insensitive matching in conditions and event matchers.
func Fold(s string) string {
	return foldCaser.String(s)
}

// TemplateText renders a value for presentation: booleans become
// Yes/No, numbers are formatted plainly, ISO timestamps are shown as
// local times, ten-digit strings are formatted as phone numbers, and
// strings are interpolated: {{ ref }} substitutes a context lookup and
// {% if ref %}...{% else %}...{% endif %} picks a branch on a truthy
// lookup.
func TemplateText(ec EvalContext, text any, tz *time.Location) string {
	switch v := text.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case float64:
		return FormatNumber(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return templateString(ec, v, tz)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func templateString(ec EvalContext, text string, tz *time.Location) string {
	if isoTimeRegex.MatchString(text) {
		if t, err := ParseTime(text); err == nil {
			if tz == nil {
				tz = time.UTC
			}
			return formatClockTime(t.In(tz))
		}
	}
	if phoneRegex.MatchString(text) {
		return "(" + text[0:3] + ") " + text[3:6] + "-" + text[6:]
	}

	text = interpolationRegex.ReplaceAllStringFunc(text, func(m string) string {
		ref := interpolationRegex.FindStringSubmatch(m)[1]
		return TemplateText(ec, LookupRef(ec, ref), tz)
	})
	text = ifBlockRegex.ReplaceAllStringFunc(text, func(m string) string {
		parts := ifBlockRegex.FindStringSubmatch(m)
		if Truthy(LookupRef(ec, parts[1])) {
			return parts[2]
		}
		return parts[3]
	})
	return text
}

// FormatNumber renders a float without a trailing ".0" for integral
// values, matching how script authors write numbers.
func FormatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// formatClockTime renders "3:04pm", the display form used in messages.
func formatClockTime(t time.Time) string {
	return strings.ToLower(t.Format("3:04PM"))
}

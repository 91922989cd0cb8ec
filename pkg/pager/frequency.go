package pager

import (
	"regexp"
	"strings"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

// codeFrequencySuffix matches a trailing frequency-and-index suffix on
// a BOJ series code, e.g. "FXERD01M01" -> "M".
var codeFrequencySuffix = regexp.MustCompile(`([CYFHQMWD]{1,2})\d{2,}$`)

// GuessFrequencyFromCode infers a Frequency from the shape of a series
// code, the way the server-side code catalog is expected to but which
// this engine cannot query directly. Codes with an explicit "@"
// separator carry their frequency literally after it; otherwise the
// code's trailing letters-then-digits suffix is matched against the
// known frequency letters. Anything else guesses FrequencyUnknown.
func GuessFrequencyFromCode(code string) boj.Frequency {
	code = strings.TrimSpace(code)
	if code == "" {
		return boj.FrequencyUnknown
	}
	if idx := strings.LastIndex(code, "@"); idx >= 0 && idx+1 < len(code) {
		suffix := code[idx+1:]
		if f, ok := matchFrequencyLetters(suffix); ok {
			return f
		}
	}
	m := codeFrequencySuffix.FindStringSubmatch(code)
	if m == nil {
		return boj.FrequencyUnknown
	}
	if f, ok := matchFrequencyLetters(m[1]); ok {
		return f
	}
	return boj.FrequencyUnknown
}

func matchFrequencyLetters(s string) (boj.Frequency, bool) {
	switch strings.ToUpper(s) {
	case "CY":
		return boj.FrequencyCalendarYear, true
	case "FY":
		return boj.FrequencyFiscalYear, true
	case "CH":
		return boj.FrequencyCalendarHalf, true
	case "FH":
		return boj.FrequencyFiscalHalf, true
	case "Q":
		return boj.FrequencyQuarter, true
	case "M":
		return boj.FrequencyMonth, true
	case "W":
		return boj.FrequencyWeek, true
	case "D":
		return boj.FrequencyDay, true
	default:
		return "", false
	}
}

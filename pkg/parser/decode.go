package parser

import (
	"bytes"
	"io"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

const excerptLimit = 2048

// decode sniffs and decodes one response body. Error responses are
// always JSON regardless of the requested format, detected by peeking
// the first non-whitespace byte after a UTF-8 decode attempt, matching
// the original implementation's parse_response.
func decode(body []byte, lang boj.Lang, format boj.Format) (Decoded, error) {
	peek := strings.TrimLeftFunc(string(body), unicode.IsSpace)
	if strings.HasPrefix(peek, "{") {
		return parseJSON(body)
	}
	if format == boj.FormatJSON {
		return parseJSON(body)
	}

	text, err := decodeBytes(body, lang)
	if err != nil {
		return Decoded{}, err
	}
	return parseCSV(text)
}

// decodeBytes applies the LANG-dependent CSV character encoding:
// Shift-JIS for Japanese, UTF-8 for English, with a UTF-8 fallback on
// decode failure so a mislabeled body still degrades to something
// readable rather than erroring outright.
func decodeBytes(body []byte, lang boj.Lang) (string, error) {
	if lang != boj.LangJA {
		return string(body), nil
	}
	reader := transform.NewReader(bytes.NewReader(body), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(body), nil
	}
	return string(decoded), nil
}

func truncateExcerpt(s string) string {
	if len(s) <= excerptLimit {
		return s
	}
	return s[:excerptLimit]
}

// parseResponseDate parses the BOJ DATE field ("2026/03/04 08:50:00")
// into a JST-anchored time.Time, reporting a parse warning on failure
// rather than erroring the whole page.
func parseResponseDate(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	loc := time.FixedZone("JST", 9*60*60)
	layouts := []string{"2006/01/02 15:04:05", "2006-01-02 15:04:05", "2006/01/02", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, false
		}
	}
	return nil, true
}

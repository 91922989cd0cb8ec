package parser

import (
	"encoding/csv"
	"strings"
)

// parseCSV handles a successful (non-error) CSV body. The wire format
// carries a short preamble of single KEY,VALUE lines (STATUS,
// MESSAGEID, DATE, NEXTPOSITION — any subset, any order) followed by a
// blank line, then a header row and data rows. Blank fields are null,
// represented here as an empty string and left for the row mapper to
// turn into boj.Decimal's null state where numeric.
func parseCSV(text string) (Decoded, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	preamble := map[string]string{}
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			break
		}
		fields := strings.SplitN(line, ",", 2)
		if len(fields) != 2 {
			break
		}
		preamble[strings.ToUpper(strings.TrimSpace(fields[0]))] = strings.TrimSpace(fields[1])
	}

	rest := strings.Join(lines[i:], "\n")
	rows, err := decodeCSVRows(rest)
	if err != nil {
		return Decoded{}, err
	}

	status := 200
	var nextPosition *int
	if v, ok := preamble["NEXTPOSITION"]; ok {
		nextPosition = parseIntPtr(v)
	}
	dateRaw := preamble["DATE"]
	dateParsed, warning := parseResponseDate(dateRaw)

	return Decoded{
		Status:           status,
		MessageID:        preamble["MESSAGEID"],
		Message:          preamble["MESSAGE"],
		DateRaw:          dateRaw,
		DateParsed:       dateParsed,
		DateParseWarning: warning,
		NextPosition:     nextPosition,
		Rows:             rows,
		Excerpt:          truncateExcerpt(text),
	}, nil
}

func decodeCSVRows(text string) ([]Row, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i >= len(record) {
				continue
			}
			row[normalizeKey(col)] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseIntPtr(s string) *int {
	s = strings.TrimSpace(s)
	n := 0
	neg := false
	if s == "" {
		return nil
	}
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return nil
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return &n
}
